package ogc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindLinkHref(t *testing.T) {
	t.Parallel()

	links := []Link{
		{Rel: "self", Href: "/"},
		{Rel: "data", Href: "/collections"},
		{Rel: "http://www.opengis.net/def/rel/ogc/1.0/processes", Href: "/processes"},
	}

	href, ok := FindLinkHref(links, "data")
	assert.True(t, ok)
	assert.Equal(t, "/collections", href)

	// Full OGC URI relations match by suffix.
	href, ok = FindLinkHref(links, "processes")
	assert.True(t, ok)
	assert.Equal(t, "/processes", href)

	_, ok = FindLinkHref(links, "tiling-schemes")
	assert.False(t, ok)
}

func TestDetectCapabilities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		links      []Link
		conformsTo []string
		want       []string
	}{
		{
			name:  "features via short rel",
			links: []Link{{Rel: "data"}},
			want:  []string{"features"},
		},
		{
			name:  "processes via OGC URI rel",
			links: []Link{{Rel: "http://www.opengis.net/def/rel/ogc/1.0/processes"}},
			want:  []string{"processes"},
		},
		{
			name:       "records and edr from conformance",
			links:      []Link{{Rel: "collections"}},
			conformsTo: []string{"http://www.opengis.net/spec/ogcapi-records-1/1.0/conf/core", "http://www.opengis.net/spec/ogcapi-edr-1/1.0/conf/core"},
			want:       []string{"features", "records", "edr"},
		},
		{
			name: "nothing detected",
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, DetectCapabilities(tc.links, tc.conformsTo))
		})
	}
}

func TestCollectionHelpers(t *testing.T) {
	t.Parallel()

	snap := &ServerCapability{
		Collections: []Collection{
			{ID: "lakes", ItemType: ItemTypeFeature},
			{ID: "catalog", ItemType: ItemTypeRecord},
		},
		Processes: []Process{{ID: "buffer"}},
	}

	features := snap.FeatureCollections()
	assert.Len(t, features, 1)
	assert.Equal(t, "lakes", features[0].ID)

	_, ok := snap.Collection("catalog")
	assert.True(t, ok)
	_, ok = snap.Collection("missing")
	assert.False(t, ok)

	_, ok = snap.Process("buffer")
	assert.True(t, ok)
	_, ok = snap.Process("missing")
	assert.False(t, ok)
}
