package core

import (
	_ "embed"

	"github.com/edge-runtime/edged/internal/conf"
)

// Defaults is the lowest configuration layer shared by every backend.
//
//go:embed defaults.toml
var Defaults string

const (
	defaultCertdURL     URL = "unix:///run/aziot/certd.sock"
	defaultKeydURL      URL = "unix:///run/aziot/keyd.sock"
	defaultIdentitydURL URL = "unix:///run/aziot/identityd.sock"
)

// Settings holds the runtime settings common to all backends. C is the
// backend's agent configuration type. A Settings is immutable once resolved;
// only AgentMut hands out a mutable view, to the owner of the value.
type Settings[C any] struct {
	agent                  ModuleSpec[C]
	hostname               string
	connect                Connect
	listen                 Listen
	homedir                string
	watchdog               WatchdogSettings
	endpoints              Endpoints
	edgeCACert             *string
	edgeCAKey              *string
	trustBundleCert        *string
	autoReprovisioningMode AutoReprovisioningMode
}

var _ RuntimeSettings[Table] = (*Settings[Table])(nil)

func (s Settings[C]) Agent() ModuleSpec[C] { return s.agent.clone() }

func (s *Settings[C]) AgentMut() *ModuleSpec[C] { return &s.agent }

func (s Settings[C]) Hostname() string { return s.hostname }

func (s Settings[C]) Connect() Connect { return s.connect }

func (s Settings[C]) Listen() Listen { return s.listen }

func (s Settings[C]) Homedir() string { return s.homedir }

func (s Settings[C]) Watchdog() WatchdogSettings { return s.watchdog }

func (s Settings[C]) Endpoints() Endpoints { return s.endpoints }

func (s Settings[C]) EdgeCACert() (string, bool) { return optional(s.edgeCACert) }

func (s Settings[C]) EdgeCAKey() (string, bool) { return optional(s.edgeCAKey) }

func (s Settings[C]) TrustBundleCert() (string, bool) { return optional(s.trustBundleCert) }

func (s Settings[C]) AutoReprovisioningMode() AutoReprovisioningMode {
	return s.autoReprovisioningMode
}

func optional(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	return *v, true
}

// RequiredChecker is implemented by agent configuration types that have
// required fields of their own.
type RequiredChecker interface {
	CheckRequired(m *conf.Missing, path string)
}

// Document is the TOML form of Settings. Pointer fields distinguish "not set"
// from the zero value.
type Document[C any] struct {
	Agent                  *moduleSpecDTO[C]       `toml:"agent"`
	Hostname               *string                 `toml:"hostname"`
	Connect                *connectDTO             `toml:"connect"`
	Listen                 *listenDTO              `toml:"listen"`
	Homedir                *string                 `toml:"homedir"`
	Watchdog               *watchdogDTO            `toml:"watchdog"`
	Endpoints              *endpointsDTO           `toml:"endpoints"`
	EdgeCACert             *string                 `toml:"edge_ca_cert"`
	EdgeCAKey              *string                 `toml:"edge_ca_key"`
	TrustBundleCert        *string                 `toml:"trust_bundle_cert"`
	AutoReprovisioningMode *AutoReprovisioningMode `toml:"auto_reprovisioning_mode"`
}

type moduleSpecDTO[C any] struct {
	Name            *string           `toml:"name"`
	Type            *string           `toml:"type"`
	Config          *C                `toml:"config"`
	Env             map[string]string `toml:"env"`
	ImagePullPolicy *ImagePullPolicy  `toml:"image_pull_policy"`
}

type connectDTO struct {
	WorkloadURI   *URL `toml:"workload_uri"`
	ManagementURI *URL `toml:"management_uri"`
}

type listenDTO struct {
	WorkloadURI   *URL           `toml:"workload_uri"`
	ManagementURI *URL           `toml:"management_uri"`
	MinTLSVersion *MinTLSVersion `toml:"min_tls_version"`
}

type watchdogDTO struct {
	MaxRetries *RetryLimit `toml:"max_retries"`
}

type endpointsDTO struct {
	AziotCertdURL     *URL `toml:"aziot_certd_url"`
	AziotKeydURL      *URL `toml:"aziot_keyd_url"`
	AziotIdentitydURL *URL `toml:"aziot_identityd_url"`
}

// Resolve converts d into Settings, applying defaults and recording every
// absent required field in m.
func (d Document[C]) Resolve(m *conf.Missing) Settings[C] {
	s := Settings[C]{
		hostname:               conf.Required(m, "hostname", d.Hostname),
		homedir:                conf.Required(m, "homedir", d.Homedir),
		edgeCACert:             d.EdgeCACert,
		edgeCAKey:              d.EdgeCAKey,
		trustBundleCert:        d.TrustBundleCert,
		autoReprovisioningMode: conf.Default(d.AutoReprovisioningMode, AutoReprovisioningDynamic),
		watchdog:               WatchdogSettings{MaxRetries: RetryInfinite},
		endpoints: Endpoints{
			AziotCertdURL:     defaultCertdURL,
			AziotKeydURL:      defaultKeydURL,
			AziotIdentitydURL: defaultIdentitydURL,
		},
		listen: Listen{MinTLSVersion: TLS10},
	}

	if d.Agent == nil {
		m.Add("agent")
	} else {
		s.agent = d.Agent.resolve(m, "agent")
	}

	if d.Connect == nil {
		m.Add("connect")
	} else {
		s.connect = Connect{
			WorkloadURI:   conf.Required(m, "connect.workload_uri", d.Connect.WorkloadURI),
			ManagementURI: conf.Required(m, "connect.management_uri", d.Connect.ManagementURI),
		}
	}

	if d.Listen == nil {
		m.Add("listen")
	} else {
		s.listen = Listen{
			WorkloadURI:   conf.Required(m, "listen.workload_uri", d.Listen.WorkloadURI),
			ManagementURI: conf.Required(m, "listen.management_uri", d.Listen.ManagementURI),
			MinTLSVersion: conf.Default(d.Listen.MinTLSVersion, TLS10),
		}
	}

	if d.Watchdog != nil {
		s.watchdog.MaxRetries = conf.Default(d.Watchdog.MaxRetries, RetryInfinite)
	}

	if d.Endpoints != nil {
		s.endpoints = Endpoints{
			AziotCertdURL:     conf.Default(d.Endpoints.AziotCertdURL, defaultCertdURL),
			AziotKeydURL:      conf.Default(d.Endpoints.AziotKeydURL, defaultKeydURL),
			AziotIdentitydURL: conf.Default(d.Endpoints.AziotIdentitydURL, defaultIdentitydURL),
		}
	}

	return s
}

func (d moduleSpecDTO[C]) resolve(m *conf.Missing, path string) ModuleSpec[C] {
	spec := ModuleSpec[C]{
		Name:            conf.Required(m, conf.Join(path, "name"), d.Name),
		Type:            conf.Required(m, conf.Join(path, "type"), d.Type),
		Config:          conf.Required(m, conf.Join(path, "config"), d.Config),
		Env:             d.Env,
		ImagePullPolicy: conf.Default(d.ImagePullPolicy, ImagePullOnCreate),
	}
	if spec.Env == nil {
		spec.Env = map[string]string{}
	}
	if d.Config != nil {
		if checker, ok := any(*d.Config).(RequiredChecker); ok {
			checker.CheckRequired(m, conf.Join(path, "config"))
		}
	}
	return spec
}

// Document returns the TOML form of s.
func (s Settings[C]) Document() Document[C] {
	agent := s.agent.clone()
	return Document[C]{
		Agent: &moduleSpecDTO[C]{
			Name:            &agent.Name,
			Type:            &agent.Type,
			Config:          &agent.Config,
			Env:             agent.Env,
			ImagePullPolicy: &agent.ImagePullPolicy,
		},
		Hostname: &s.hostname,
		Connect: &connectDTO{
			WorkloadURI:   &s.connect.WorkloadURI,
			ManagementURI: &s.connect.ManagementURI,
		},
		Listen: &listenDTO{
			WorkloadURI:   &s.listen.WorkloadURI,
			ManagementURI: &s.listen.ManagementURI,
			MinTLSVersion: &s.listen.MinTLSVersion,
		},
		Homedir:                &s.homedir,
		Watchdog:               &watchdogDTO{MaxRetries: &s.watchdog.MaxRetries},
		Endpoints: &endpointsDTO{
			AziotCertdURL:     &s.endpoints.AziotCertdURL,
			AziotKeydURL:      &s.endpoints.AziotKeydURL,
			AziotIdentitydURL: &s.endpoints.AziotIdentitydURL,
		},
		EdgeCACert:             copyString(s.edgeCACert),
		EdgeCAKey:              copyString(s.edgeCAKey),
		TrustBundleCert:        copyString(s.trustBundleCert),
		AutoReprovisioningMode: &s.autoReprovisioningMode,
	}
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
