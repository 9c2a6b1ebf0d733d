package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".ogcd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInitCreatesSkeleton(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".ogcd.toml")
	loader := &DefaultLoader{}

	require.NoError(t, loader.Init(path))

	cfg, err := loader.Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.ListServers())

	// A second init must not clobber the existing file.
	err = loader.Init(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestLoadFullConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[[servers]]
name = "pygeoapi-demo"
url = "https://demo.pygeoapi.io/master"
refresh = "15m"

[[servers]]
name = "local"
url = "http://localhost:5000"

[discovery]
timeout = "10s"

[jobs]
poll_interval = "1s"
max_wait = "2m"

[api]
addr = "0.0.0.0:9000"
`)

	cfg, err := (&DefaultLoader{}).Load(path)
	require.NoError(t, err)

	servers := cfg.ListServers()
	require.Len(t, servers, 2)
	assert.Equal(t, "pygeoapi-demo", servers[0].Name)
	assert.Equal(t, 15*time.Minute, servers[0].Refresh.Duration)
	assert.Zero(t, servers[1].Refresh.Duration)

	assert.Equal(t, 10*time.Second, cfg.Discovery().Timeout.Duration)
	assert.Equal(t, time.Second, cfg.Jobs().PollInterval.Duration)
	assert.Equal(t, 2*time.Minute, cfg.Jobs().MaxWait.Duration)
	assert.Equal(t, "0.0.0.0:9000", cfg.API().Addr)
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `servers = []`)

	cfg, err := (&DefaultLoader{}).Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultDiscoveryTimeout, cfg.Discovery().Timeout.Duration)
	assert.Equal(t, DefaultPollInterval, cfg.Jobs().PollInterval.Duration)
	assert.Equal(t, DefaultMaxWait, cfg.Jobs().MaxWait.Duration)
	assert.Equal(t, DefaultAPIAddr, cfg.API().Addr)
}

func TestLoadRejectsBadConfigs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{
			name: "empty server name",
			content: `
[[servers]]
name = ""
url = "https://example.com"
`,
		},
		{
			name: "duplicate server name",
			content: `
[[servers]]
name = "a"
url = "https://example.com"

[[servers]]
name = "a"
url = "https://example.org"
`,
		},
		{
			name: "missing url",
			content: `
[[servers]]
name = "a"
`,
		},
		{
			name: "non-http url",
			content: `
[[servers]]
name = "a"
url = "ftp://example.com"
`,
		},
		{
			name: "unparseable refresh",
			content: `
[[servers]]
name = "a"
url = "https://example.com"
refresh = "soon"
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, tc.content)
			_, err := (&DefaultLoader{}).Load(path)
			require.ErrorIs(t, err, ErrConfigLoadFailed)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := (&DefaultLoader{}).Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.ErrorIs(t, err, ErrConfigLoadFailed)
	assert.Contains(t, err.Error(), "ogcd init")
}

func TestAddServerPersists(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `servers = []`)
	loader := &DefaultLoader{}

	cfg, err := loader.Load(path)
	require.NoError(t, err)

	require.NoError(t, cfg.AddServer(ServerEntry{
		Name:    "demo",
		URL:     "https://demo.pygeoapi.io/master",
		Refresh: Duration{10 * time.Minute},
	}))

	reloaded, err := loader.Load(path)
	require.NoError(t, err)
	servers := reloaded.ListServers()
	require.Len(t, servers, 1)
	assert.Equal(t, "demo", servers[0].Name)
	assert.Equal(t, 10*time.Minute, servers[0].Refresh.Duration)
}

func TestAddServerRejectsInvalidAndRollsBack(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[[servers]]
name = "demo"
url = "https://demo.pygeoapi.io/master"
`)
	cfg, err := (&DefaultLoader{}).Load(path)
	require.NoError(t, err)

	err = cfg.AddServer(ServerEntry{Name: "demo", URL: "https://other.example"})
	require.ErrorIs(t, err, ErrConfigInvalid)
	assert.Len(t, cfg.ListServers(), 1)
}

func TestRemoveServer(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[[servers]]
name = "demo"
url = "https://demo.pygeoapi.io/master"
`)
	loader := &DefaultLoader{}
	cfg, err := loader.Load(path)
	require.NoError(t, err)

	require.NoError(t, cfg.RemoveServer("demo"))

	reloaded, err := loader.Load(path)
	require.NoError(t, err)
	assert.Empty(t, reloaded.ListServers())

	err = cfg.RemoveServer("demo")
	require.ErrorIs(t, err, ErrConfigInvalid)
}
