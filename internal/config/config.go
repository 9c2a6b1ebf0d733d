package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// regularFile is the permission set for configuration files.
const regularFile os.FileMode = 0o644

// Defaults applied when the corresponding section or field is absent.
const (
	DefaultDiscoveryTimeout = 30 * time.Second
	DefaultPollInterval     = 2 * time.Second
	DefaultMaxWait          = 5 * time.Minute
	DefaultAPIAddr          = "localhost:8090"
)

// Init creates the base skeleton configuration file for an ogcd project.
func (d *DefaultLoader) Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	content := `servers = []
`

	if err := os.WriteFile(path, []byte(content), regularFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func (d *DefaultLoader) Load(path string) (Modifier, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrConfigLoadFailed)
	}

	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: config file cannot be found, run: 'ogcd init'", ErrConfigLoadFailed)
		}
		return nil, fmt.Errorf("%w: failed to stat config file (%s): %w", ErrConfigLoadFailed, path, err)
	}

	var cfg *Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to decode config from file (%s): %w", ErrConfigLoadFailed, path, err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: config file is empty (%s)", ErrConfigLoadFailed, path)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: failed to validate config (%s): %w", ErrConfigLoadFailed, path, err)
	}

	// Track the path that loaded this file so saves go back to it.
	cfg.configFilePath = path

	return cfg, nil
}

// AddServer persists a new OGC server entry to the configuration file.
func (c *Config) AddServer(entry ServerEntry) error {
	c.Servers = append(c.Servers, entry)

	if err := c.validate(); err != nil {
		c.Servers = c.Servers[:len(c.Servers)-1]
		return err
	}

	if err := c.saveConfig(); err != nil {
		return fmt.Errorf("failed to save updated config: %w", err)
	}

	return nil
}

// RemoveServer removes a server entry by name from the configuration file.
func (c *Config) RemoveServer(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: server name cannot be empty", ErrConfigInvalid)
	}

	filtered := make([]ServerEntry, 0, len(c.Servers))
	for _, s := range c.Servers {
		if s.Name != name {
			filtered = append(filtered, s)
		}
	}

	if len(filtered) == len(c.Servers) {
		return fmt.Errorf("%w: server '%s' not found in config", ErrConfigInvalid, name)
	}

	c.Servers = filtered

	if err := c.saveConfig(); err != nil {
		return fmt.Errorf("failed to save updated config: %w", err)
	}

	return nil
}

// ListServers returns a copy of the configured server entries.
func (c *Config) ListServers() []ServerEntry {
	return slices.Clone(c.Servers)
}

// Discovery returns the discovery settings with defaults applied.
func (c *Config) Discovery() DiscoverySettings {
	out := DiscoverySettings{Timeout: Duration{DefaultDiscoveryTimeout}}
	if c.DiscoverySection != nil && c.DiscoverySection.Timeout.Duration > 0 {
		out.Timeout = c.DiscoverySection.Timeout
	}
	return out
}

// Jobs returns the job settings with defaults applied.
func (c *Config) Jobs() JobSettings {
	out := JobSettings{
		PollInterval: Duration{DefaultPollInterval},
		MaxWait:      Duration{DefaultMaxWait},
	}
	if c.JobsSection != nil {
		if c.JobsSection.PollInterval.Duration > 0 {
			out.PollInterval = c.JobsSection.PollInterval
		}
		if c.JobsSection.MaxWait.Duration > 0 {
			out.MaxWait = c.JobsSection.MaxWait
		}
	}
	return out
}

// API returns the REST facade settings with defaults applied.
func (c *Config) API() APISettings {
	out := APISettings{Addr: DefaultAPIAddr}
	if c.APISection != nil && c.APISection.Addr != "" {
		out.Addr = c.APISection.Addr
	}
	return out
}

// SaveConfig saves the current configuration to the config file.
func (c *Config) SaveConfig() error {
	return c.saveConfig()
}

func (c *Config) saveConfig() error {
	if c.configFilePath == "" {
		return fmt.Errorf("config file path not present")
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.configFilePath, data, regularFile)
}

// validate orchestrates validation of configuration structure.
func (c *Config) validate() error {
	seen := map[string]struct{}{}

	for _, entry := range c.Servers {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return fmt.Errorf("%w: server entry has empty name", ErrConfigInvalid)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: duplicate server name '%s'", ErrConfigInvalid, name)
		}
		seen[name] = struct{}{}

		if err := validateServerURL(entry.URL); err != nil {
			return fmt.Errorf("%w: server '%s': %w", ErrConfigInvalid, name, err)
		}
		if entry.Refresh.Duration < 0 {
			return fmt.Errorf("%w: server '%s': refresh cannot be negative", ErrConfigInvalid, name)
		}
	}

	return nil
}

func validateServerURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("url cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("url is not parseable: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must be http or https, got '%s'", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url has no host: '%s'", raw)
	}
	return nil
}
