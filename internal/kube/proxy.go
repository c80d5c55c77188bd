package kube

import (
	"github.com/edge-runtime/edged/internal/conf"
	"github.com/edge-runtime/edged/internal/core"
)

// ProxySettings configures the proxy container that runs next to every
// module pod.
type ProxySettings struct {
	auth                     *core.AuthConfig
	image                    string
	imagePullPolicy          string
	configPath               string
	configMapName            string
	trustBundlePath          string
	trustBundleConfigMapName string
	resources                *ResourceRequirements
}

type proxyDTO struct {
	Auth                     *core.AuthConfig      `toml:"auth"`
	Image                    *string               `toml:"image"`
	ImagePullPolicy          *string               `toml:"image_pull_policy"`
	ConfigPath               *string               `toml:"config_path"`
	ConfigMapName            *string               `toml:"config_map_name"`
	TrustBundlePath          *string               `toml:"trust_bundle_path"`
	TrustBundleConfigMapName *string               `toml:"trust_bundle_config_map_name"`
	Resources                *ResourceRequirements `toml:"resources"`
}

func (d proxyDTO) resolve(m *conf.Missing, path string) ProxySettings {
	return ProxySettings{
		auth:                     d.Auth,
		image:                    conf.Required(m, conf.Join(path, "image"), d.Image),
		imagePullPolicy:          conf.Required(m, conf.Join(path, "image_pull_policy"), d.ImagePullPolicy),
		configPath:               conf.Required(m, conf.Join(path, "config_path"), d.ConfigPath),
		configMapName:            conf.Required(m, conf.Join(path, "config_map_name"), d.ConfigMapName),
		trustBundlePath:          conf.Required(m, conf.Join(path, "trust_bundle_path"), d.TrustBundlePath),
		trustBundleConfigMapName: conf.Required(m, conf.Join(path, "trust_bundle_config_map_name"), d.TrustBundleConfigMapName),
		resources:                d.Resources,
	}
}

func (p ProxySettings) document() *proxyDTO {
	return &proxyDTO{
		Auth:                     p.auth,
		Image:                    &p.image,
		ImagePullPolicy:          &p.imagePullPolicy,
		ConfigPath:               &p.configPath,
		ConfigMapName:            &p.configMapName,
		TrustBundlePath:          &p.trustBundlePath,
		TrustBundleConfigMapName: &p.trustBundleConfigMapName,
		Resources:                p.resources,
	}
}

func (p ProxySettings) Auth() (core.AuthConfig, bool) { return optionalTable(p.auth) }

func (p ProxySettings) Image() string { return p.image }

func (p ProxySettings) ImagePullPolicy() string { return p.imagePullPolicy }

func (p ProxySettings) ConfigPath() string { return p.configPath }

func (p ProxySettings) ConfigMapName() string { return p.configMapName }

func (p ProxySettings) TrustBundlePath() string { return p.trustBundlePath }

func (p ProxySettings) TrustBundleConfigMapName() string { return p.trustBundleConfigMapName }

func (p ProxySettings) Resources() (ResourceRequirements, bool) { return optionalTable(p.resources) }
