package core

// RuntimeSettings is the read-only view of the settings every backend shares.
// Upstream code that only needs these fields takes a RuntimeSettings and works
// with any backend.
type RuntimeSettings[C any] interface {
	// Agent returns a copy of the agent module specification.
	Agent() ModuleSpec[C]
	// AgentMut lets the owner of a settings value adjust the agent
	// specification before the value is shared.
	AgentMut() *ModuleSpec[C]
	Hostname() string
	Connect() Connect
	Listen() Listen
	Homedir() string
	Watchdog() WatchdogSettings
	Endpoints() Endpoints
	EdgeCACert() (string, bool)
	EdgeCAKey() (string, bool)
	TrustBundleCert() (string, bool)
	AutoReprovisioningMode() AutoReprovisioningMode
}
