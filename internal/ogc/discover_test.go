package ogc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoapi-labs/ogcd/internal/errors"
)

// newFixtureServer serves a minimal pygeoapi-style OGC API surface.
// Facets listed in broken return HTTP 500.
func newFixtureServer(t *testing.T, broken ...string) *httptest.Server {
	t.Helper()

	isBroken := func(facet string) bool {
		for _, b := range broken {
			if b == facet {
				return true
			}
		}
		return false
	}

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"title":       "Demo Server",
			"description": "pygeoapi demo instance",
			"links": []map[string]string{
				{"rel": "self", "href": "/"},
				{"rel": "conformance", "href": "/conformance"},
				{"rel": "data", "href": "/collections"},
				{"rel": "http://www.opengis.net/def/rel/ogc/1.0/processes", "href": "/processes"},
			},
		})
	})
	mux.HandleFunc("GET /conformance", func(w http.ResponseWriter, _ *http.Request) {
		if isBroken("conformance") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{
			"conformsTo": []string{
				"http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/core",
				"http://www.opengis.net/spec/ogcapi-records-1/1.0/conf/core",
				"http://www.opengis.net/spec/ogcapi-edr-1/1.0/conf/core",
			},
		})
	})
	mux.HandleFunc("GET /collections", func(w http.ResponseWriter, _ *http.Request) {
		if isBroken("collections") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{
			"collections": []map[string]any{
				{"id": "lakes", "title": "Large Lakes"},
				{"id": "catalog", "title": "Metadata Catalog", "itemType": "record"},
			},
		})
	})
	mux.HandleFunc("GET /collections/lakes", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"id":          "lakes",
			"title":       "Large Lakes",
			"description": "lakes of the world",
			"itemType":    "feature",
			"extent": map[string]any{
				"spatial": map[string]any{"bbox": [][]float64{{-180, -90, 180, 90}}},
			},
			"crs": []string{"http://www.opengis.net/def/crs/OGC/1.3/CRS84"},
		})
	})
	mux.HandleFunc("GET /collections/catalog", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"id":       "catalog",
			"title":    "Metadata Catalog",
			"itemType": "record",
		})
	})
	mux.HandleFunc("GET /processes", func(w http.ResponseWriter, _ *http.Request) {
		if isBroken("processes") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{
			"processes": []map[string]any{
				{"id": "geospatial-buffer", "title": "Buffer"},
				{"id": "cool-spot-demo", "title": "Cool Spot Analysis"},
			},
		})
	})
	mux.HandleFunc("GET /processes/cool-spot-demo", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"id":                "cool-spot-demo",
			"title":             "Cool Spot Analysis",
			"version":           "0.2.0",
			"jobControlOptions": []string{"sync-execute", "async-execute"},
			"inputs": map[string]any{
				"area": map[string]any{
					"description": "Area of interest as GeoJSON",
					"schema":      map[string]any{"type": "object", "format": "geojson-geometry"},
					"minOccurs":   1,
				},
			},
			"outputs": map[string]any{
				"result": map[string]any{"schema": map[string]any{"type": "object"}},
			},
		})
	})
	mux.HandleFunc("GET /processes/geospatial-buffer", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"id":      "geospatial-buffer",
			"title":   "Buffer",
			"version": "1.0.0",
			"inputs": map[string]any{
				"geometry": map[string]any{
					"schema":    map[string]any{"type": "object", "format": "geojson-geometry"},
					"minOccurs": 1,
				},
				"distance": map[string]any{
					"schema":    map[string]any{"type": "number", "minimum": 0.0},
					"minOccurs": 1,
				},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	srv := newFixtureServer(t)
	d := NewDiscoverer(nil)

	snap, err := d.Discover(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Demo Server", snap.Title)
	assert.Empty(t, snap.Partial)
	assert.ElementsMatch(t,
		[]string{"features", "processes", "records", "edr"},
		snap.Capabilities,
	)

	// Collections sorted by ID, detail fetched.
	require.Len(t, snap.Collections, 2)
	assert.Equal(t, "catalog", snap.Collections[0].ID)
	assert.Equal(t, "lakes", snap.Collections[1].ID)
	assert.Equal(t, "lakes of the world", snap.Collections[1].Description)
	assert.NotEmpty(t, snap.Collections[1].Extent)

	catalogs := snap.Catalogs()
	require.Len(t, catalogs, 1)
	assert.Equal(t, "catalog", catalogs[0].ID)

	// Processes sorted by ID, full input schemas resolved.
	require.Len(t, snap.Processes, 2)
	assert.Equal(t, "cool-spot-demo", snap.Processes[0].ID)
	assert.Equal(t, "geospatial-buffer", snap.Processes[1].ID)
	assert.Contains(t, snap.Processes[0].Inputs, "area")
	assert.True(t, snap.Processes[0].SupportsAsync())
	assert.False(t, snap.Processes[1].SupportsAsync())
	assert.True(t, snap.Processes[1].SupportsSync())
}

func TestDiscoverPartialFacets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		broken      []string
		wantPartial []string
	}{
		{name: "collections down", broken: []string{"collections"}, wantPartial: []string{"collections"}},
		{name: "processes down", broken: []string{"processes"}, wantPartial: []string{"processes"}},
		{name: "conformance down", broken: []string{"conformance"}, wantPartial: []string{"conformance"}},
		{
			name:        "everything but landing down",
			broken:      []string{"conformance", "collections", "processes"},
			wantPartial: []string{"conformance", "collections", "processes"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := newFixtureServer(t, tc.broken...)
			d := NewDiscoverer(nil)

			snap, err := d.Discover(context.Background(), srv.URL)
			require.NoError(t, err, "partial facet failure must not fail discovery")
			assert.ElementsMatch(t, tc.wantPartial, snap.Partial)
		})
	}
}

func TestDiscoverUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	d := NewDiscoverer(nil)
	_, err := d.Discover(context.Background(), srv.URL)
	require.ErrorIs(t, err, errors.ErrDiscovery)
}

func TestDiscoverNonConformantLanding(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["not", "a", "landing", "page"]`))
	}))
	t.Cleanup(srv.Close)

	d := NewDiscoverer(nil)
	_, err := d.Discover(context.Background(), srv.URL)
	require.ErrorIs(t, err, errors.ErrDiscovery)
}
