package eximcheck

// Config holds the harness configuration.
type Config struct {
	Exim EximConfig `toml:"exim"`
	Log  LogConfig  `toml:"log"`
}

// EximConfig describes how the exim binary under test is invoked.
type EximConfig struct {
	Binary     string `toml:"binary"`
	ConfigFile string `toml:"config_file"` // passed as -C<path> when set
	Sender     string `toml:"sender"`      // envelope sender for -f when set
	Timeout    string `toml:"timeout"`
}

// LogConfig defines the harness logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// RouteOutcome is the parsed result of one address-test invocation.
type RouteOutcome struct {
	AllOK         bool
	Deliverable   int
	Undeliverable int
	Total         int
	Addresses     map[string]*AddressResult
}

// AddressResult describes the routing of a single address echoed by exim.
type AddressResult struct {
	Address   string
	OK        bool
	Discarded bool
	Reason    string
	Router    string
	Transport string
	Target    string
	Original  []string
	Data      []string
}

// RoutesOK reports whether the outcome contains only deliverable addresses.
func (o *RouteOutcome) RoutesOK() bool {
	return o.Deliverable > 0 && o.Undeliverable == 0
}

// IsUndeliverable reports whether the outcome contains only undeliverable
// addresses.
func (o *RouteOutcome) IsUndeliverable() bool {
	return o.Undeliverable > 0 && o.Deliverable == 0
}

// IsDiscarded reports whether the outcome is a single address that the router
// explicitly discarded.
func (o *RouteOutcome) IsDiscarded() bool {
	if o.Total != 1 {
		return false
	}
	for _, r := range o.Addresses {
		return r.Discarded
	}
	return false
}

// TargetSpec describes the expected routing of one resulting address.
// Zero-valued fields are not compared; the nil-able booleans distinguish
// "expect false" from "don't care".
type TargetSpec struct {
	Address   string `toml:"address"`
	Router    string `toml:"router"`
	Transport string `toml:"transport"`
	Target    string `toml:"target"`
	OK        *bool  `toml:"ok"`
	Discarded *bool  `toml:"discarded"`
}

// Invocation captures one run of the exim binary.
type Invocation struct {
	Success  bool
	ExitCode int
	Stdout   []string
	Stderr   []string
	Combined []string
}

// Capabilities is the feature table reported by exim -bV.
type Capabilities struct {
	Version        string
	Support        map[string]bool
	Lookups        map[string]bool
	Authenticators map[string]bool
	Routers        map[string]bool
	Transports     map[string]bool
}
