package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/geoapi-labs/ogcd/internal/errors"
	"github.com/geoapi-labs/ogcd/internal/ogc"
)

// ServerURLParam is added to every synthesized operation so a caller can
// target any OGC server, not just the discovery server.
const ServerURLParam = "server_url"

// jsonTypes are the JSON Schema primitive types carried over one-to-one.
var jsonTypes = map[string]struct{}{
	"string":  {},
	"number":  {},
	"integer": {},
	"boolean": {},
	"object":  {},
	"array":   {},
	"null":    {},
}

// carriedConstraints are copied verbatim from the OGC schema fragment into the
// translated parameter when present.
var carriedConstraints = []string{"enum", "minimum", "maximum", "default", "format", "pattern", "minLength", "maxLength"}

// inputDefinition mirrors the nested OGC process input structure:
//
//	{"title": ..., "description": ..., "schema": {...}, "minOccurs": 1}
type inputDefinition struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
	MinOccurs   *int            `json:"minOccurs"`
}

// TranslateParameter converts one OGC/JSON-Schema fragment into a parameter
// definition. It is total: any fragment it cannot interpret degrades to an
// untyped (opaque JSON) parameter rather than failing. A malformed schema
// document is a backend defect the engine must not propagate as a crash.
func TranslateParameter(fragment json.RawMessage) map[string]any {
	prop := map[string]any{}

	var m map[string]any
	if len(fragment) == 0 || json.Unmarshal(fragment, &m) != nil {
		return prop
	}

	typ, _ := m["type"].(string)
	if _, ok := jsonTypes[typ]; ok {
		prop["type"] = typ
	}
	// Geometry inputs stay opaque objects: downstream backends accept
	// arbitrary GeoJSON, so no per-geometry-kind specialization.
	if typ == "" && isGeometrySchema(m) {
		prop["type"] = "object"
	}

	for _, key := range carriedConstraints {
		if v, ok := m[key]; ok {
			prop[key] = v
		}
	}

	if typ == "array" {
		if items, ok := m["items"]; ok {
			prop["items"] = items
		}
	}

	return prop
}

func isGeometrySchema(m map[string]any) bool {
	if format, ok := m["format"].(string); ok && strings.Contains(strings.ToLower(format), "geojson") {
		return true
	}
	if ref, ok := m["$ref"].(string); ok && strings.Contains(strings.ToLower(ref), "geometry") {
		return true
	}
	return false
}

// TranslateInputs converts a process's input definitions into a tool input
// schema. Every operation additionally accepts server_url so invocations can
// target any server. Returns ErrSchema only when an input definition is not a
// JSON object; unknown constructs inside a well-formed definition degrade to
// opaque parameters.
func TranslateInputs(inputs map[string]json.RawMessage, defaultServerURL string) (mcp.ToolInputSchema, error) {
	properties := map[string]any{
		ServerURLParam: map[string]any{
			"type":        "string",
			"description": fmt.Sprintf("Base URL of the OGC API server to execute this process on. Default: %s", defaultServerURL),
			"default":     defaultServerURL,
		},
	}
	required := []string{ServerURLParam}

	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var def inputDefinition
		if err := json.Unmarshal(inputs[name], &def); err != nil {
			return mcp.ToolInputSchema{}, fmt.Errorf("%w: input %q is not a JSON object: %w", errors.ErrSchema, name, err)
		}

		prop := TranslateParameter(def.Schema)

		description := def.Description
		if description == "" {
			description = def.Title
		}
		if description == "" {
			description = fmt.Sprintf("Input: %s", name)
		}
		prop["description"] = description

		properties[name] = prop

		// minOccurs defaults to 1 in OGC API - Processes.
		if def.MinOccurs == nil || *def.MinOccurs > 0 {
			required = append(required, name)
		}
	}

	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}, nil
}

// ProcessTool synthesizes the callable tool for a discovered process.
// The operation name must come from a Namer so collisions resolve
// deterministically across the whole process set.
func ProcessTool(p ogc.Process, name string, defaultServerURL string) (mcp.Tool, error) {
	inputSchema, err := TranslateInputs(p.Inputs, defaultServerURL)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("process %q: %w", p.ID, err)
	}

	return mcp.Tool{
		Name:        name,
		Description: processDescription(p),
		InputSchema: inputSchema,
	}, nil
}

func processDescription(p ogc.Process) string {
	parts := []string{fmt.Sprintf("Execute the '%s' geospatial process.", p.Title)}
	if p.Description != "" {
		parts = append(parts, p.Description)
	}

	if len(p.Inputs) > 0 {
		names := make([]string, 0, len(p.Inputs))
		for name := range p.Inputs {
			names = append(names, name)
		}
		sort.Strings(names)
		parts = append(parts, fmt.Sprintf("Inputs: %s.", strings.Join(names, ", ")))
	}

	if len(p.Outputs) > 0 {
		names := make([]string, 0, len(p.Outputs))
		for name := range p.Outputs {
			names = append(names, name)
		}
		sort.Strings(names)
		parts = append(parts, fmt.Sprintf("Produces outputs: %s.", strings.Join(names, ", ")))
	}

	var modes []string
	if p.SupportsSync() {
		modes = append(modes, "synchronous (immediate result)")
	}
	if p.SupportsAsync() {
		modes = append(modes, "asynchronous (returns job ID)")
	}
	if len(modes) > 0 {
		parts = append(parts, fmt.Sprintf("Execution modes: %s.", strings.Join(modes, ", ")))
	}

	if len(p.Keywords) > 0 {
		parts = append(parts, fmt.Sprintf("Keywords: %s.", strings.Join(p.Keywords, ", ")))
	}

	return strings.Join(parts, " ")
}
