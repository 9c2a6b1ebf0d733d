package resources

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoapi-labs/ogcd/internal/errors"
	"github.com/geoapi-labs/ogcd/internal/ogc"
)

type fakeSource struct {
	snaps map[string]*ogc.ServerCapability
}

func (f *fakeSource) Servers() []string {
	out := make([]string, 0, len(f.snaps))
	for u := range f.snaps {
		out = append(out, u)
	}
	return out
}

func (f *fakeSource) Snapshot(serverURL string) (*ogc.ServerCapability, bool) {
	snap, ok := f.snaps[serverURL]
	return snap, ok
}

func testProvider() *Provider {
	return NewProvider(&fakeSource{snaps: map[string]*ogc.ServerCapability{
		"https://demo.pygeoapi.io/master": {
			BaseURL: "https://demo.pygeoapi.io/master",
			Title:   "pygeoapi demo",
			Collections: []ogc.Collection{
				{ID: "lakes", Title: "Large Lakes", ItemType: ogc.ItemTypeFeature},
			},
			Processes: []ogc.Process{
				{ID: "hello-world", Title: "Hello World"},
			},
		},
	}})
}

func TestServerIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		baseURL string
		want    string
	}{
		{"https://demo.pygeoapi.io/master", "https_demo_pygeoapi_io_master"},
		{"http://localhost:8080", "http_localhost_8080"},
		{"https://example.com/ogc/", "https_example_com_ogc"},
	}

	for _, tc := range tests {
		t.Run(tc.baseURL, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ServerIdentity(tc.baseURL))
		})
	}
}

func TestListEnumeratesServerDocuments(t *testing.T) {
	t.Parallel()

	list := testProvider().List()
	require.Len(t, list, 3)

	uris := make([]string, 0, len(list))
	for _, res := range list {
		uris = append(uris, res.URI)
	}

	assert.Contains(t, uris, "ogc://https_demo_pygeoapi_io_master/server/info")
	assert.Contains(t, uris, "ogc://https_demo_pygeoapi_io_master/collections/lakes")
	assert.Contains(t, uris, "ogc://https_demo_pygeoapi_io_master/processes/hello-world")
}

func TestReadServerInfo(t *testing.T) {
	t.Parallel()

	contents, err := testProvider().Read("ogc://https_demo_pygeoapi_io_master/server/info")
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text := textOf(t, contents[0])
	var snap ogc.ServerCapability
	require.NoError(t, json.Unmarshal([]byte(text), &snap))
	assert.Equal(t, "pygeoapi demo", snap.Title)
}

func TestReadCollectionAndProcess(t *testing.T) {
	t.Parallel()

	p := testProvider()

	contents, err := p.Read("ogc://https_demo_pygeoapi_io_master/collections/lakes")
	require.NoError(t, err)
	assert.Contains(t, textOf(t, contents[0]), "Large Lakes")

	contents, err = p.Read("ogc://https_demo_pygeoapi_io_master/processes/hello-world")
	require.NoError(t, err)
	assert.Contains(t, textOf(t, contents[0]), "Hello World")
}

func TestReadErrors(t *testing.T) {
	t.Parallel()

	p := testProvider()

	tests := []struct {
		name string
		uri  string
		want error
	}{
		{"wrong scheme", "file:///etc/passwd", errors.ErrBadRequest},
		{"unknown server", "ogc://nope/server/info", errors.ErrServerNotFound},
		{"unknown collection", "ogc://https_demo_pygeoapi_io_master/collections/rivers", errors.ErrBadRequest},
		{"unknown path", "ogc://https_demo_pygeoapi_io_master/jobs/1", errors.ErrBadRequest},
		{"truncated", "ogc://https_demo_pygeoapi_io_master", errors.ErrBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := p.Read(tc.uri)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func textOf(t *testing.T, contents mcp.ResourceContents) string {
	t.Helper()
	text, ok := contents.(mcp.TextResourceContents)
	require.True(t, ok, "expected text contents")
	return text.Text
}
