package docker

import (
	"io"
	"log/slog"

	"github.com/edge-runtime/edged/internal/conf"
	"github.com/edge-runtime/edged/internal/core"
)

const defaultNetwork = "azure-iot-edge"

// MobyRuntime locates the container engine.
type MobyRuntime struct {
	URI     core.URL
	Network string
}

type mobyRuntimeDTO struct {
	URI     *core.URL `toml:"uri"`
	Network *string   `toml:"network"`
}

type settingsDTO struct {
	MobyRuntime *mobyRuntimeDTO `toml:"moby_runtime"`
}

// Settings is the configuration of a container-engine backed edged.
type Settings struct {
	base        core.Settings[DockerConfig]
	mobyRuntime MobyRuntime
}

var _ core.RuntimeSettings[DockerConfig] = (*Settings)(nil)

// Load reads the configuration named by the environment (see
// conf.SourceFromEnv) and decodes it.
func Load() (Settings, error) {
	cs := conf.SourceFromEnv(DefaultConfigPath)
	cs.Defaults = core.Defaults
	return LoadFrom(cs, conf.DecodeOptions{})
}

// LoadFrom reads cs and decodes it. Every error is a *core.LoadError.
func LoadFrom(cs *conf.ConfigSource, opts conf.DecodeOptions) (Settings, error) {
	doc, err := cs.Read()
	if err != nil {
		return Settings{}, core.NewLoadError(err)
	}
	s, err := Decode(doc, opts)
	if err != nil {
		return Settings{}, err
	}
	slog.Debug("loaded docker settings", "source", cs.String(), "hostname", s.Hostname())
	return s, nil
}

// Decode decodes a merged document.
func Decode(doc conf.Document, opts conf.DecodeOptions) (Settings, error) {
	var base core.Document[DockerConfig]
	var dto settingsDTO
	if err := conf.Decode(doc, opts, &base, &dto); err != nil {
		return Settings{}, core.NewLoadError(err)
	}

	var missing conf.Missing
	s := Settings{base: base.Resolve(&missing)}
	if dto.MobyRuntime == nil {
		missing.Add("moby_runtime")
	} else {
		s.mobyRuntime = MobyRuntime{
			URI:     conf.Required(&missing, "moby_runtime.uri", dto.MobyRuntime.URI),
			Network: conf.Default(dto.MobyRuntime.Network, defaultNetwork),
		}
	}
	if err := missing.Err(); err != nil {
		return Settings{}, core.NewLoadError(err)
	}
	return s, nil
}

// Encode writes s as a single TOML document.
func (s Settings) Encode(w io.Writer) error {
	dto := settingsDTO{
		MobyRuntime: &mobyRuntimeDTO{
			URI:     &s.mobyRuntime.URI,
			Network: &s.mobyRuntime.Network,
		},
	}
	return conf.Encode(w, s.base.Document(), dto)
}

func (s Settings) MobyRuntime() MobyRuntime { return s.mobyRuntime }

func (s Settings) Agent() core.ModuleSpec[DockerConfig] { return s.base.Agent() }

func (s *Settings) AgentMut() *core.ModuleSpec[DockerConfig] { return s.base.AgentMut() }

func (s Settings) Hostname() string { return s.base.Hostname() }

func (s Settings) Connect() core.Connect { return s.base.Connect() }

func (s Settings) Listen() core.Listen { return s.base.Listen() }

func (s Settings) Homedir() string { return s.base.Homedir() }

func (s Settings) Watchdog() core.WatchdogSettings { return s.base.Watchdog() }

func (s Settings) Endpoints() core.Endpoints { return s.base.Endpoints() }

func (s Settings) EdgeCACert() (string, bool) { return s.base.EdgeCACert() }

func (s Settings) EdgeCAKey() (string, bool) { return s.base.EdgeCAKey() }

func (s Settings) TrustBundleCert() (string, bool) { return s.base.TrustBundleCert() }

func (s Settings) AutoReprovisioningMode() core.AutoReprovisioningMode {
	return s.base.AutoReprovisioningMode()
}
