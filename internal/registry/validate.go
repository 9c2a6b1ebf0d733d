package registry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/xeipuuv/gojsonschema"

	"github.com/geoapi-labs/ogcd/internal/errors"
)

// applyDefaults fills missing arguments whose parameter schema declares a
// default. The input map is not mutated.
func applyDefaults(schema mcp.ToolInputSchema, args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}

	for name, prop := range schema.Properties {
		if _, present := out[name]; present {
			continue
		}
		propMap, ok := prop.(map[string]any)
		if !ok {
			continue
		}
		if def, ok := propMap["default"]; ok {
			out[name] = def
		}
	}

	return out
}

// validateArguments checks args against the operation's parameter schema and
// returns ErrValidation listing every violation. No network call is made for
// invalid arguments.
func validateArguments(schema mcp.ToolInputSchema, args map[string]any) error {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("%w: parameter schema not serializable: %w", errors.ErrValidation, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrValidation, err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		details = append(details, e.String())
	}

	return fmt.Errorf("%w: %s", errors.ErrValidation, strings.Join(details, "; "))
}
