package kube

import (
	"io"
	"log/slog"

	"github.com/edge-runtime/edged/internal/conf"
	"github.com/edge-runtime/edged/internal/core"
	"github.com/edge-runtime/edged/internal/docker"
)

// ResourceRequirements is a pod resource request/limit specification. It is
// passed to the scheduler as-is.
type ResourceRequirements = core.Table

// Settings is the configuration of a Kubernetes backed edged. It embeds the
// settings shared by every backend and adds the cluster specific ones, all in
// one flat TOML namespace.
//
// A Settings is immutable. WithDeviceID, WithIoTHubHostname and WithNodesRBAC
// return a modified copy; holders of the original are unaffected.
type Settings struct {
	base              core.Settings[docker.DockerConfig]
	namespace         string
	iotHubHostname    *string
	deviceID          *string
	deviceHubSelector string
	proxy             ProxySettings
	configPath        string
	configMapName     string
	configMapVolume   string
	resources         *ResourceRequirements
	hasNodesRBAC      bool
}

var _ core.RuntimeSettings[docker.DockerConfig] = (*Settings)(nil)

type settingsDTO struct {
	Namespace         *string               `toml:"namespace"`
	IoTHubHostname    *string               `toml:"iot_hub_hostname"`
	DeviceID          *string               `toml:"device_id"`
	DeviceHubSelector *string               `toml:"device_hub_selector"`
	Proxy             *proxyDTO             `toml:"proxy"`
	ConfigPath        *string               `toml:"config_path"`
	ConfigMapName     *string               `toml:"config_map_name"`
	ConfigMapVolume   *string               `toml:"config_map_volume"`
	Resources         *ResourceRequirements `toml:"resources"`
	HasNodesRBAC      *bool                 `toml:"has_nodes_rbac"`
}

// Load reads the configuration named by the environment: the main file is
// $AZIOT_EDGED_CONFIG or /etc/aziot/edged/config.toml, drop-ins are read from
// $AZIOT_EDGED_CONFIG_DIR or /etc/aziot/edged/config.d.
func Load() (Settings, error) {
	cs := conf.SourceFromEnv(docker.DefaultConfigPath)
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
	slog.Debug("loaded kubernetes settings", "source", cs.String(), "namespace", s.namespace)
	return s, nil
}

// Decode decodes a merged document. The shared fields and the cluster fields
// are decoded in two passes over the same document.
func Decode(doc conf.Document, opts conf.DecodeOptions) (Settings, error) {
	var base core.Document[docker.DockerConfig]
	var dto settingsDTO
	if err := conf.Decode(doc, opts, &base, &dto); err != nil {
		return Settings{}, core.NewLoadError(err)
	}

	var missing conf.Missing
	s := Settings{
		base:              base.Resolve(&missing),
		namespace:         conf.Required(&missing, "namespace", dto.Namespace),
		iotHubHostname:    dto.IoTHubHostname,
		deviceID:          dto.DeviceID,
		deviceHubSelector: conf.Required(&missing, "device_hub_selector", dto.DeviceHubSelector),
		configPath:        conf.Required(&missing, "config_path", dto.ConfigPath),
		configMapName:     conf.Required(&missing, "config_map_name", dto.ConfigMapName),
		configMapVolume:   conf.Required(&missing, "config_map_volume", dto.ConfigMapVolume),
		resources:         dto.Resources,
		hasNodesRBAC:      conf.Default(dto.HasNodesRBAC, true),
	}
	if dto.Proxy == nil {
		missing.Add("proxy")
	} else {
		s.proxy = dto.Proxy.resolve(&missing, "proxy")
	}

	if err := missing.Err(); err != nil {
		return Settings{}, core.NewLoadError(err)
	}
	return s, nil
}

// Encode writes s as a single TOML document that Decode accepts.
func (s Settings) Encode(w io.Writer) error {
	dto := settingsDTO{
		Namespace:         &s.namespace,
		IoTHubHostname:    s.iotHubHostname,
		DeviceID:          s.deviceID,
		DeviceHubSelector: &s.deviceHubSelector,
		Proxy:             s.proxy.document(),
		ConfigPath:        &s.configPath,
		ConfigMapName:     &s.configMapName,
		ConfigMapVolume:   &s.configMapVolume,
		Resources:         s.resources,
		HasNodesRBAC:      &s.hasNodesRBAC,
	}
	return conf.Encode(w, s.base.Document(), dto)
}

// WithDeviceID returns a copy of s with the device id set.
func (s Settings) WithDeviceID(deviceID string) Settings {
	s.deviceID = &deviceID
	return s
}

// WithIoTHubHostname returns a copy of s with the IoT hub hostname set.
func (s Settings) WithIoTHubHostname(iotHubHostname string) Settings {
	s.iotHubHostname = &iotHubHostname
	return s
}

// WithNodesRBAC returns a copy of s recording whether the service account may
// read cluster nodes.
func (s Settings) WithNodesRBAC(hasNodesRBAC bool) Settings {
	s.hasNodesRBAC = hasNodesRBAC
	return s
}

func (s Settings) Namespace() string { return s.namespace }

func (s Settings) IoTHubHostname() (string, bool) { return optional(s.iotHubHostname) }

func (s Settings) DeviceID() (string, bool) { return optional(s.deviceID) }

func (s Settings) DeviceHubSelector() string { return s.deviceHubSelector }

func (s Settings) Proxy() ProxySettings { return s.proxy }

func (s Settings) ConfigPath() string { return s.configPath }

func (s Settings) ConfigMapName() string { return s.configMapName }

func (s Settings) ConfigMapVolume() string { return s.configMapVolume }

func (s Settings) Resources() (ResourceRequirements, bool) { return optionalTable(s.resources) }

func (s Settings) HasNodesRBAC() bool { return s.hasNodesRBAC }

func (s Settings) Agent() core.ModuleSpec[docker.DockerConfig] { return s.base.Agent() }

func (s *Settings) AgentMut() *core.ModuleSpec[docker.DockerConfig] { return s.base.AgentMut() }

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

func optional(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	return *v, true
}

func optionalTable(t *core.Table) (core.Table, bool) {
	if t == nil {
		return nil, false
	}
	return t.Clone(), true
}
