package daemon

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoapi-labs/ogcd/internal/jobs"
	"github.com/geoapi-labs/ogcd/internal/ogc"
	"github.com/geoapi-labs/ogcd/internal/registry"
	"github.com/geoapi-labs/ogcd/internal/resources"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()

	manager, err := jobs.NewManager(nil, nil)
	require.NoError(t, err)
	reg := registry.New(nil, ogc.NewDiscoverer(nil), manager, nil)

	return &Daemon{
		logger:       hclog.NewNullLogger(),
		registry:     reg,
		jobs:         manager,
		resources:    resources.NewProvider(reg),
		dynamicTools: map[string]struct{}{},
		resourceURIs: map[string]struct{}{},
	}
}

// listResourceURIs drives a resources/list request through the wire handler.
func listResourceURIs(t *testing.T, s *server.MCPServer) []string {
	t.Helper()

	resp := s.HandleMessage(
		context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`),
	)
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded struct {
		Result struct {
			Resources []struct {
				URI string `json:"uri"`
			} `json:"resources"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	uris := make([]string, 0, len(decoded.Result.Resources))
	for _, res := range decoded.Result.Resources {
		uris = append(uris, res.URI)
	}
	return uris
}

func listToolNames(t *testing.T, s *server.MCPServer) []string {
	t.Helper()

	resp := s.HandleMessage(
		context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`),
	)
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	names := make([]string, 0, len(decoded.Result.Tools))
	for _, tool := range decoded.Result.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestSyncResourcesDelistsVanishedDocuments(t *testing.T) {
	t.Parallel()

	d := newTestDaemon(t)
	s := d.buildMCPServer()

	_, err := d.registry.Refresh(&ogc.ServerCapability{
		BaseURL:     "http://server-a.example",
		Title:       "Server A",
		Collections: []ogc.Collection{{ID: "lakes"}, {ID: "rivers"}},
		Processes:   []ogc.Process{{ID: "buffer"}},
	})
	require.NoError(t, err)

	identity := resources.ServerIdentity("http://server-a.example")
	uris := listResourceURIs(t, s)
	assert.Contains(t, uris, "ogc://"+identity+"/server/info")
	assert.Contains(t, uris, "ogc://"+identity+"/collections/lakes")
	assert.Contains(t, uris, "ogc://"+identity+"/collections/rivers")
	assert.Contains(t, uris, "ogc://"+identity+"/processes/buffer")

	// Re-discovery without "rivers" or the process regenerates the document
	// set; the vanished URIs must be delisted, not just stop resolving.
	_, err = d.registry.Refresh(&ogc.ServerCapability{
		BaseURL:     "http://server-a.example",
		Title:       "Server A",
		Collections: []ogc.Collection{{ID: "lakes"}},
	})
	require.NoError(t, err)

	uris = listResourceURIs(t, s)
	assert.Contains(t, uris, "ogc://"+identity+"/server/info")
	assert.Contains(t, uris, "ogc://"+identity+"/collections/lakes")
	assert.NotContains(t, uris, "ogc://"+identity+"/collections/rivers")
	assert.NotContains(t, uris, "ogc://"+identity+"/processes/buffer")
}

func TestSyncOperationsDelistsVanishedTools(t *testing.T) {
	t.Parallel()

	d := newTestDaemon(t)
	s := d.buildMCPServer()

	_, err := d.registry.Refresh(&ogc.ServerCapability{
		BaseURL:   "http://server-a.example",
		Processes: []ogc.Process{{ID: "buffer"}, {ID: "hot-spot"}},
	})
	require.NoError(t, err)

	names := listToolNames(t, s)
	assert.Contains(t, names, "execute_buffer")
	assert.Contains(t, names, "execute_hot_spot")
	assert.Contains(t, names, "discover_ogc_server")

	_, err = d.registry.Refresh(&ogc.ServerCapability{
		BaseURL:   "http://server-a.example",
		Processes: []ogc.Process{{ID: "buffer"}},
	})
	require.NoError(t, err)

	names = listToolNames(t, s)
	assert.Contains(t, names, "execute_buffer")
	assert.NotContains(t, names, "execute_hot_spot")
	assert.Contains(t, names, "discover_ogc_server", "built-ins survive refresh")
}
