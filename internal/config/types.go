// Package config loads and persists the .ogcd.toml project file: the OGC
// servers to bridge plus discovery and job tuning.
package config

import (
	"time"
)

var (
	_ Provider = (*DefaultLoader)(nil)
	_ Modifier = (*Config)(nil)
)

type Loader interface {
	Load(path string) (Modifier, error)
}

type Initializer interface {
	Init(path string) error
}

type Provider interface {
	Initializer
	Loader
}

type Modifier interface {
	AddServer(entry ServerEntry) error
	RemoveServer(name string) error
	ListServers() []ServerEntry
	Discovery() DiscoverySettings
	Jobs() JobSettings
	API() APISettings
}

type DefaultLoader struct{}

// Config represents the .ogcd.toml file structure.
type Config struct {
	Servers []ServerEntry `toml:"servers"`

	DiscoverySection *DiscoverySettings `toml:"discovery,omitempty"`
	JobsSection      *JobSettings       `toml:"jobs,omitempty"`
	APISection       *APISettings       `toml:"api,omitempty"`

	configFilePath string `toml:"-"`
}

// ServerEntry is one bridged OGC API server.
type ServerEntry struct {
	// Name is the unique handle referenced by the user, e.g. 'pygeoapi-demo'.
	Name string `json:"name" toml:"name"`

	// URL is the server's landing page base URL.
	URL string `json:"url" toml:"url"`

	// Refresh is the re-discovery interval. Zero disables periodic
	// re-discovery for this server.
	Refresh Duration `json:"refresh,omitempty" toml:"refresh,omitempty"`
}

// DiscoverySettings tunes capability discovery.
type DiscoverySettings struct {
	// Timeout bounds each outbound OGC request during discovery.
	Timeout Duration `json:"timeout,omitempty" toml:"timeout,omitempty"`
}

// JobSettings tunes asynchronous job polling.
type JobSettings struct {
	// PollInterval is the backoff ceiling between status polls.
	PollInterval Duration `json:"pollInterval,omitempty" toml:"poll_interval,omitempty"`

	// MaxWait bounds a single blocking wait for job completion.
	MaxWait Duration `json:"maxWait,omitempty" toml:"max_wait,omitempty"`
}

// APISettings configures the optional REST facade.
type APISettings struct {
	// Addr is the listen address, e.g. 'localhost:8090'.
	Addr string `json:"addr,omitempty" toml:"addr,omitempty"`
}

// Duration is a time.Duration that round-trips through TOML as a string
// ("15m", "30s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
