package docker

import (
	"github.com/edge-runtime/edged/internal/conf"
	"github.com/edge-runtime/edged/internal/core"
)

// DefaultConfigPath is the main configuration file used when
// AZIOT_EDGED_CONFIG is unset.
const DefaultConfigPath = "/etc/aziot/edged/config.toml"

// DockerConfig is the agent configuration for container-engine backed
// runtimes. CreateOptions and Auth are handed to the engine untouched.
type DockerConfig struct {
	Image         string           `toml:"image"`
	CreateOptions core.Table       `toml:"create_options,omitempty"`
	Auth          *core.AuthConfig `toml:"auth,omitempty"`
}

// CheckRequired records a missing image.
func (c DockerConfig) CheckRequired(m *conf.Missing, path string) {
	if c.Image == "" {
		m.Add(conf.Join(path, "image"))
	}
}

// Clone returns a deep copy of c.
func (c DockerConfig) Clone() DockerConfig {
	c.CreateOptions = c.CreateOptions.Clone()
	if c.Auth != nil {
		auth := c.Auth.Clone()
		c.Auth = &auth
	}
	return c
}
