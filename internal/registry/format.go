package registry

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/geoapi-labs/ogcd/internal/jobs"
	"github.com/geoapi-labs/ogcd/internal/ogc"
)

// Formatters render OGC documents as compact text for LLM consumption.
// Structured payloads travel separately on Result.Data.

func formatServerInfo(snap *ogc.ServerCapability) string {
	lines := []string{
		fmt.Sprintf("OGC Server: %s", snap.Title),
		fmt.Sprintf("URL: %s", snap.BaseURL),
	}
	if snap.Description != "" {
		lines = append(lines, fmt.Sprintf("Description: %s", snap.Description))
	}
	if len(snap.Capabilities) > 0 {
		lines = append(lines, fmt.Sprintf("Capabilities: %s", strings.Join(snap.Capabilities, ", ")))
	}
	lines = append(lines, fmt.Sprintf("Collections: %d, Processes: %d", len(snap.Collections), len(snap.Processes)))
	if len(snap.Partial) > 0 {
		lines = append(lines, fmt.Sprintf("Unavailable facets: %s", strings.Join(snap.Partial, ", ")))
	}
	return strings.Join(lines, "\n")
}

func formatCollections(collections []ogc.Collection) string {
	if len(collections) == 0 {
		return "No collections found on this server."
	}
	lines := []string{fmt.Sprintf("Found %d collections:", len(collections))}
	for _, col := range collections {
		lines = append(lines, fmt.Sprintf("\n  [%s] %s", col.ID, col.Title))
		if col.Description != "" {
			lines = append(lines, fmt.Sprintf("    %s", truncate(col.Description, 120)))
		}
	}
	return strings.Join(lines, "\n")
}

func formatCollectionDetail(col ogc.Collection) string {
	lines := []string{
		fmt.Sprintf("Collection: %s (ID: %s)", col.Title, col.ID),
		fmt.Sprintf("Item type: %s", col.ItemType),
	}
	if col.Description != "" {
		lines = append(lines, fmt.Sprintf("Description: %s", col.Description))
	}
	if bbox, ok := spatialExtent(col.Extent); ok {
		lines = append(lines, fmt.Sprintf("Spatial extent: %v", bbox))
	}
	if len(col.CRS) > 0 {
		lines = append(lines, fmt.Sprintf("CRS: %s", strings.Join(col.CRS, ", ")))
	}
	return strings.Join(lines, "\n")
}

// spatialExtent pulls the first bbox out of a raw extent document.
func spatialExtent(extent json.RawMessage) ([]float64, bool) {
	if len(extent) == 0 {
		return nil, false
	}
	var doc struct {
		Spatial struct {
			BBox [][]float64 `json:"bbox"`
		} `json:"spatial"`
	}
	if err := json.Unmarshal(extent, &doc); err != nil {
		return nil, false
	}
	if len(doc.Spatial.BBox) == 0 || len(doc.Spatial.BBox[0]) < 4 {
		return nil, false
	}
	return doc.Spatial.BBox[0], true
}

func formatProcesses(processes []ogc.Process) string {
	if len(processes) == 0 {
		return "No processes found on this server."
	}
	lines := []string{fmt.Sprintf("Found %d available processes:", len(processes))}
	for _, proc := range processes {
		lines = append(lines, fmt.Sprintf("\n  [%s] %s", proc.ID, proc.Title))
		if proc.Description != "" {
			lines = append(lines, fmt.Sprintf("    %s", truncate(proc.Description, 120)))
		}
		if len(proc.Inputs) > 0 {
			lines = append(lines, fmt.Sprintf("    Inputs: %s", strings.Join(sortedKeys(proc.Inputs), ", ")))
		}
	}
	return strings.Join(lines, "\n")
}

func formatProcessDetail(p ogc.Process) string {
	lines := []string{
		fmt.Sprintf("Process: %s (ID: %s)", p.Title, p.ID),
		fmt.Sprintf("Version: %s", p.Version),
	}
	if p.Description != "" {
		lines = append(lines, fmt.Sprintf("Description: %s", p.Description))
	}

	lines = append(lines, "", "Inputs:")
	for _, name := range sortedKeys(p.Inputs) {
		var def struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			MinOccurs   *int   `json:"minOccurs"`
			Schema      struct {
				Type string `json:"type"`
			} `json:"schema"`
		}
		_ = json.Unmarshal(p.Inputs[name], &def)

		typ := def.Schema.Type
		if typ == "" {
			typ = "any"
		}
		requiredStr := "required"
		if def.MinOccurs != nil && *def.MinOccurs == 0 {
			requiredStr = "optional"
		}
		desc := def.Description
		if desc == "" {
			desc = def.Title
		}
		lines = append(lines, fmt.Sprintf("  - %s (%s, %s): %s", name, typ, requiredStr, desc))
	}

	if len(p.Outputs) > 0 {
		lines = append(lines, "", "Outputs:")
		for _, name := range sortedKeys(p.Outputs) {
			lines = append(lines, fmt.Sprintf("  - %s", name))
		}
	}

	lines = append(lines, "", fmt.Sprintf("Execution modes: %s", strings.Join(p.JobControlOptions, ", ")))
	return strings.Join(lines, "\n")
}

// formatFeatures renders a GeoJSON FeatureCollection: feature names, geometry
// types, and a few leading properties.
func formatFeatures(raw json.RawMessage) string {
	var fc struct {
		Features []struct {
			ID         any            `json:"id"`
			Geometry   map[string]any `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
		NumberMatched  *int `json:"numberMatched"`
		NumberReturned *int `json:"numberReturned"`
	}
	if err := json.Unmarshal(raw, &fc); err != nil {
		return string(raw)
	}

	returned := len(fc.Features)
	if fc.NumberReturned != nil {
		returned = *fc.NumberReturned
	}
	total := returned
	if fc.NumberMatched != nil {
		total = *fc.NumberMatched
	}

	lines := []string{fmt.Sprintf("Retrieved %d features (total matching: %d):", returned, total)}
	for i, feature := range fc.Features {
		geomType := "No geometry"
		if t, ok := feature.Geometry["type"].(string); ok {
			geomType = t
		}

		name := featureName(feature.Properties, feature.ID, i+1)
		lines = append(lines, fmt.Sprintf("\n  %d. %s (%s)", i+1, name, geomType))

		keys := sortedKeys(feature.Properties)
		shown := 0
		for _, key := range keys {
			if key == "name" || key == "title" || feature.Properties[key] == nil {
				continue
			}
			lines = append(lines, fmt.Sprintf("     %s: %v", key, feature.Properties[key]))
			shown++
			if shown == 4 {
				break
			}
		}
	}

	return strings.Join(lines, "\n")
}

func featureName(props map[string]any, id any, ordinal int) string {
	for _, key := range []string{"name", "title", "id"} {
		if v, ok := props[key]; ok && v != nil {
			return fmt.Sprintf("%v", v)
		}
	}
	if id != nil {
		return fmt.Sprintf("%v", id)
	}
	return fmt.Sprintf("Feature %d", ordinal)
}

func formatJob(info jobs.Info) string {
	lines := []string{
		fmt.Sprintf("Job ID: %s", info.ID),
		fmt.Sprintf("Status: %s", info.State),
	}
	if info.ProcessID != "" {
		lines = append(lines, fmt.Sprintf("Process: %s", info.ProcessID))
	}
	if info.Progress != nil {
		lines = append(lines, fmt.Sprintf("Progress: %d%%", *info.Progress))
	}
	if info.Message != "" {
		lines = append(lines, fmt.Sprintf("Message: %s", info.Message))
	}
	if info.State == jobs.StateSuccessful {
		lines = append(lines, fmt.Sprintf("Job complete. Call get_job_results with job_id='%s' to retrieve the output.", info.ID))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
