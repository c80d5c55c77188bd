package core

import (
	"fmt"
	"maps"
	"net/url"
	"strconv"
)

// URL is an absolute URL kept in its textual form.
type URL string

// UnmarshalText accepts absolute URLs only.
func (u *URL) UnmarshalText(text []byte) error {
	parsed, err := url.Parse(string(text))
	if err != nil {
		return err
	}
	if parsed.Scheme == "" {
		return fmt.Errorf("%q is not an absolute URL", text)
	}
	*u = URL(text)
	return nil
}

// Parse returns the parsed form of u.
func (u URL) Parse() (*url.URL, error) {
	return url.Parse(string(u))
}

func (u URL) String() string {
	return string(u)
}

// Connect holds the URIs clients use to reach the workload and management
// APIs.
type Connect struct {
	WorkloadURI   URL
	ManagementURI URL
}

// MinTLSVersion is the lowest TLS version accepted on listen sockets.
type MinTLSVersion string

const (
	TLS10 MinTLSVersion = "tls1.0"
	TLS12 MinTLSVersion = "tls1.2"
)

func (v *MinTLSVersion) UnmarshalText(text []byte) error {
	switch MinTLSVersion(text) {
	case TLS10, TLS12:
		*v = MinTLSVersion(text)
		return nil
	}
	return fmt.Errorf("unsupported TLS version %q", text)
}

// Listen holds the URIs the daemon binds its APIs to.
type Listen struct {
	WorkloadURI   URL
	ManagementURI URL
	MinTLSVersion MinTLSVersion
}

// RetryLimit bounds how many times the watchdog restarts the agent.
// RetryInfinite means no bound.
type RetryLimit int64

const RetryInfinite RetryLimit = -1

// UnmarshalTOML accepts "infinite" or a non-negative integer.
func (r *RetryLimit) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case int64:
		if v < 0 {
			return fmt.Errorf("max_retries must not be negative, got %d", v)
		}
		*r = RetryLimit(v)
		return nil
	case string:
		if v == "infinite" {
			*r = RetryInfinite
			return nil
		}
	}
	return fmt.Errorf(`max_retries must be "infinite" or a non-negative integer, got %v`, data)
}

func (r RetryLimit) MarshalTOML() ([]byte, error) {
	if r < 0 {
		return []byte(`"infinite"`), nil
	}
	return []byte(strconv.FormatInt(int64(r), 10)), nil
}

type WatchdogSettings struct {
	MaxRetries RetryLimit
}

// Endpoints locates the identity, key and certificate services.
type Endpoints struct {
	AziotCertdURL     URL
	AziotKeydURL      URL
	AziotIdentitydURL URL
}

// AutoReprovisioningMode controls when the device re-runs provisioning.
type AutoReprovisioningMode string

const (
	AutoReprovisioningDynamic         AutoReprovisioningMode = "Dynamic"
	AutoReprovisioningAlwaysOnStartup AutoReprovisioningMode = "AlwaysOnStartup"
	AutoReprovisioningOnErrorOnly     AutoReprovisioningMode = "OnErrorOnly"
)

func (m *AutoReprovisioningMode) UnmarshalText(text []byte) error {
	switch AutoReprovisioningMode(text) {
	case AutoReprovisioningDynamic, AutoReprovisioningAlwaysOnStartup, AutoReprovisioningOnErrorOnly:
		*m = AutoReprovisioningMode(text)
		return nil
	}
	return fmt.Errorf("unknown auto-reprovisioning mode %q", text)
}

// ImagePullPolicy decides when the agent image is pulled.
type ImagePullPolicy string

const (
	ImagePullOnCreate ImagePullPolicy = "on-create"
	ImagePullNever    ImagePullPolicy = "never"
)

func (p *ImagePullPolicy) UnmarshalText(text []byte) error {
	switch ImagePullPolicy(text) {
	case ImagePullOnCreate, ImagePullNever:
		*p = ImagePullPolicy(text)
		return nil
	}
	return fmt.Errorf("unknown image pull policy %q", text)
}

// ModuleSpec describes a workload; C is the backend-specific configuration.
type ModuleSpec[C any] struct {
	Name            string
	Type            string
	Config          C
	Env             map[string]string
	ImagePullPolicy ImagePullPolicy
}

func (m ModuleSpec[C]) clone() ModuleSpec[C] {
	m.Env = maps.Clone(m.Env)
	if c, ok := any(m.Config).(interface{ Clone() C }); ok {
		m.Config = c.Clone()
	}
	return m
}

// Table is an opaque TOML table. Its contents are owned by collaborators
// outside this module and are stored and re-encoded without inspection.
type Table map[string]any

// AuthConfig is a container registry credential, passed through as-is.
type AuthConfig = Table

func (t *Table) UnmarshalTOML(data any) error {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("expected a table, got %T", data)
	}
	*t = m
	return nil
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	return cloneValue(map[string]any(t)).(map[string]any)
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[key] = cloneValue(value)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(v))
		for i, value := range v {
			out[i] = cloneValue(value).(map[string]any)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, value := range v {
			out[i] = cloneValue(value)
		}
		return out
	default:
		return v
	}
}
