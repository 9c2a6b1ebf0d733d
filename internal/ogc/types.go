// Package ogc contains the data model for OGC API documents and the capability
// discoverer that builds an in-memory snapshot of a server's surface.
package ogc

import (
	"encoding/json"
	"slices"
)

// Item types reported by collections. Anything else is treated as a feature
// collection for querying purposes.
const (
	ItemTypeFeature = "feature"
	ItemTypeRecord  = "record"
)

// Job control options declared by processes.
const (
	ExecuteSync  = "sync-execute"
	ExecuteAsync = "async-execute"
)

// Facet names recorded on ServerCapability.Partial when a discovery facet
// fails softly.
const (
	FacetConformance = "conformance"
	FacetCollections = "collections"
	FacetProcesses   = "processes"
)

// Link is a typed hyperlink as used throughout OGC API documents.
type Link struct {
	Href  string `json:"href"`
	Rel   string `json:"rel"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// Collection describes a single dataset exposed by a server.
type Collection struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ItemType    string          `json:"itemType"`
	Extent      json.RawMessage `json:"extent,omitempty"`
	CRS         []string        `json:"crs,omitempty"`
	Links       []Link          `json:"links,omitempty"`

	// Queryables holds the collection's queryable property schema when the
	// detail document embeds one. Optional on most servers.
	Queryables json.RawMessage `json:"queryables,omitempty"`
}

// IsRecordCatalog reports whether the collection is a record catalog
// (OGC API - Records) rather than a feature collection.
func (c Collection) IsRecordCatalog() bool {
	return c.ItemType == ItemTypeRecord
}

// Process describes a server-side computation with its full input and output
// schemas. Inputs and outputs are kept as raw OGC schema fragments; the schema
// package translates them into parameter schemas.
type Process struct {
	ID                string                     `json:"id"`
	Title             string                     `json:"title"`
	Description       string                     `json:"description"`
	Version           string                     `json:"version"`
	Inputs            map[string]json.RawMessage `json:"inputs,omitempty"`
	Outputs           map[string]json.RawMessage `json:"outputs,omitempty"`
	JobControlOptions []string                   `json:"jobControlOptions,omitempty"`
	Keywords          []string                   `json:"keywords,omitempty"`
}

// SupportsAsync reports whether the process declares async-execute support.
func (p Process) SupportsAsync() bool {
	return slices.Contains(p.JobControlOptions, ExecuteAsync)
}

// SupportsSync reports whether the process declares sync-execute support.
// A process declaring no job control options is treated as sync per the
// OGC API - Processes default.
func (p Process) SupportsSync() bool {
	return len(p.JobControlOptions) == 0 || slices.Contains(p.JobControlOptions, ExecuteSync)
}

// ServerCapability is the immutable snapshot produced by one discovery cycle.
// It is superseded wholesale on re-discovery; nothing mutates it in place.
type ServerCapability struct {
	BaseURL      string       `json:"baseUrl"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Capabilities []string     `json:"capabilities"`
	ConformsTo   []string     `json:"conformsTo,omitempty"`
	Collections  []Collection `json:"collections,omitempty"`
	Processes    []Process    `json:"processes,omitempty"`

	// Partial lists facets that could not be fetched during discovery.
	// A non-empty Partial does not invalidate the snapshot.
	Partial []string `json:"partial,omitempty"`
}

// Catalogs returns the subset of collections that are record catalogs.
func (s *ServerCapability) Catalogs() []Collection {
	var out []Collection
	for _, c := range s.Collections {
		if c.IsRecordCatalog() {
			out = append(out, c)
		}
	}
	return out
}

// FeatureCollections returns the subset of collections that are not record
// catalogs.
func (s *ServerCapability) FeatureCollections() []Collection {
	var out []Collection
	for _, c := range s.Collections {
		if !c.IsRecordCatalog() {
			out = append(out, c)
		}
	}
	return out
}

// Collection returns the collection with the given ID, if present.
func (s *ServerCapability) Collection(id string) (Collection, bool) {
	for _, c := range s.Collections {
		if c.ID == id {
			return c, true
		}
	}
	return Collection{}, false
}

// Process returns the process with the given ID, if present.
func (s *ServerCapability) Process(id string) (Process, bool) {
	for _, p := range s.Processes {
		if p.ID == id {
			return p, true
		}
	}
	return Process{}, false
}
