package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/geoapi-labs/ogcd/internal/errors"
	"github.com/geoapi-labs/ogcd/internal/ogc"
	"github.com/geoapi-labs/ogcd/internal/schema"
	"github.com/geoapi-labs/ogcd/internal/transport"
)

// builtinOperations returns the fixed operations available regardless of
// discovery state. They all take server_url explicitly; only
// discover_ogc_server feeds the registry.
func (r *Registry) builtinOperations() []*Operation {
	return []*Operation{
		r.opDiscoverServer(),
		r.opGetCollections(),
		r.opGetCollectionDetail(),
		r.opGetFeatures(),
		r.opGetFeature(),
		r.opSearchRecords(),
		r.opDiscoverProcesses(),
		r.opGetProcessDetail(),
		r.opExecuteProcess(),
		r.opGetJobStatus(),
		r.opGetJobResults(),
		r.opDismissJob(),
		r.opEDR("get_edr_position", "position",
			"Query environmental data at a point. Requires WKT POINT coords, e.g. POINT(-71.06 42.36)."),
		r.opEDR("get_edr_area", "area",
			"Query environmental data within a polygon. Requires WKT POLYGON coords."),
		r.opEDR("get_edr_trajectory", "trajectory",
			"Query environmental data along a path. Requires WKT LINESTRING coords."),
		r.opEDR("get_edr_radius", "radius",
			"Query environmental data within a radius of a point. Requires WKT POINT coords plus within and within_units."),
		r.opEDR("get_edr_cube", "cube",
			"Query environmental data within a bounding box, optionally bounded vertically with z."),
		r.opEDR("get_edr_locations", "locations",
			"List predefined query locations of an EDR collection, or query one by location_id."),
	}
}

// builtinTool assembles a fixed tool definition. Properties and required are
// spelled out per tool; server_url is not implied.
func builtinTool(name, description string, properties map[string]any, required []string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}

func serverURLProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Base URL of the OGC API server, e.g. https://demo.pygeoapi.io/master",
	}
}

func stringProperty(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func limitProperty() map[string]any {
	return map[string]any{
		"type":        "integer",
		"description": "Maximum number of items to return",
		"default":     10,
		"minimum":     1,
	}
}

func bboxProperty(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       map[string]any{"type": "number"},
		"minItems":    4,
		"maxItems":    4,
	}
}

// serverClient resolves the server_url argument into a transport client.
func (r *Registry) serverClient(args map[string]any) (*transport.Client, string, error) {
	serverURL, _ := args[schema.ServerURLParam].(string)
	if serverURL == "" {
		return nil, "", fmt.Errorf("%w: %s is required", errors.ErrBadRequest, schema.ServerURLParam)
	}
	client, err := r.clientFor(serverURL)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", errors.ErrTransport, err)
	}
	return client, serverURL, nil
}

func stringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

func (r *Registry) opDiscoverServer() *Operation {
	tool := builtinTool("discover_ogc_server",
		"Connect to an OGC API server, discover its capabilities (collections, processes, conformance) and register one execute tool per discovered process. Run this first when working with a new server.",
		map[string]any{
			schema.ServerURLParam: serverURLProperty(),
		},
		[]string{schema.ServerURLParam},
	)
	return &Operation{Tool: tool, Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
		snap, err := r.DiscoverAndRefresh(ctx, stringArg(args, schema.ServerURLParam))
		if err != nil {
			return nil, err
		}

		text := formatServerInfo(snap)
		if len(snap.Processes) > 0 {
			text += fmt.Sprintf("\n\nRegistered %d process execution tools. List tools again to see them.", len(snap.Processes))
		}
		return &Result{Text: text, Data: snap}, nil
	}}
}

func (r *Registry) opGetCollections() *Operation {
	tool := builtinTool("get_collections",
		"List the data collections (datasets) available on an OGC API server.",
		map[string]any{
			schema.ServerURLParam: serverURLProperty(),
		},
		[]string{schema.ServerURLParam},
	)
	return &Operation{Tool: tool, Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
		client, _, err := r.serverClient(args)
		if err != nil {
			return nil, err
		}

		raw, err := client.Get(ctx, "/collections", nil)
		if err != nil {
			return nil, err
		}

		var doc struct {
			Collections []ogc.Collection `json:"collections"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: collections document malformed: %w", errors.ErrDecode, err)
		}

		return &Result{Text: formatCollections(doc.Collections), Data: doc.Collections}, nil
	}}
}

func (r *Registry) opGetCollectionDetail() *Operation {
	tool := builtinTool("get_collection_detail",
		"Get detailed metadata for one collection: description, spatial extent, CRS and item type.",
		map[string]any{
			schema.ServerURLParam: serverURLProperty(),
			"collection_id":       stringProperty("Identifier of the collection"),
		},
		[]string{schema.ServerURLParam, "collection_id"},
	)
	return &Operation{Tool: tool, Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
		client, _, err := r.serverClient(args)
		if err != nil {
			return nil, err
		}

		raw, err := client.Get(ctx, "/collections/"+stringArg(args, "collection_id"), nil)
		if err != nil {
			return nil, err
		}

		var col ogc.Collection
		if err := json.Unmarshal(raw, &col); err != nil {
			return nil, fmt.Errorf("%w: collection document malformed: %w", errors.ErrDecode, err)
		}
		if col.ItemType == "" {
			col.ItemType = ogc.ItemTypeFeature
		}

		return &Result{Text: formatCollectionDetail(col), Data: col}, nil
	}}
}

func (r *Registry) opGetFeatures() *Operation {
	tool := builtinTool("get_features",
		"Query features from a collection with optional spatial (bbox), temporal (datetime) and attribute (CQL2 filter) constraints.",
		map[string]any{
			schema.ServerURLParam: serverURLProperty(),
			"collection_id":       stringProperty("Identifier of the feature collection"),
			"limit":               limitProperty(),
			"offset": map[string]any{
				"type":        "integer",
				"description": "Number of features to skip, for paging",
				"minimum":     0,
			},
			"bbox":       bboxProperty("Bounding box [minLon, minLat, maxLon, maxLat] in WGS 84"),
			"datetime":   stringProperty("RFC 3339 instant or interval, e.g. 2024-01-01T00:00:00Z/2024-12-31T23:59:59Z"),
			"filter_cql": stringProperty("CQL2 text filter expression, e.g. name LIKE 'Boston%'"),
			"properties": map[string]any{
				"type":        "array",
				"description": "Property names to include in returned features; omit for all",
				"items":       map[string]any{"type": "string"},
			},
		},
		[]string{schema.ServerURLParam, "collection_id"},
	)
	return &Operation{Tool: tool, Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
		client, _, err := r.serverClient(args)
		if err != nil {
			return nil, err
		}

		query := map[string]any{"limit": 10}
		if v, ok := args["limit"].(float64); ok {
			query["limit"] = int(v)
		}
		if v, ok := args["offset"].(float64); ok {
			query["offset"] = int(v)
		}
		if v, ok := args["bbox"]; ok {
			bbox, err := bboxQuery(v)
			if err != nil {
				return nil, err
			}
			query["bbox"] = bbox
		}
		if v := stringArg(args, "datetime"); v != "" {
			query["datetime"] = v
		}
		if v := stringArg(args, "filter_cql"); v != "" {
			query["filter"] = v
			query["filter-lang"] = "cql2-text"
		}
		if names, ok := args["properties"].([]any); ok && len(names) > 0 {
			parts := make([]string, 0, len(names))
			for _, n := range names {
				if s, ok := n.(string); ok {
					parts = append(parts, s)
				}
			}
			query["properties"] = strings.Join(parts, ",")
		}

		raw, err := client.Get(ctx, "/collections/"+stringArg(args, "collection_id")+"/items", query)
		if err != nil {
			return nil, err
		}

		return &Result{Text: formatFeatures(raw), Data: raw}, nil
	}}
}

func (r *Registry) opGetFeature() *Operation {
	tool := builtinTool("get_feature",
		"Get a single feature by its identifier, including full geometry and properties.",
		map[string]any{
			schema.ServerURLParam: serverURLProperty(),
			"collection_id":       stringProperty("Identifier of the feature collection"),
			"feature_id":          stringProperty("Identifier of the feature"),
		},
		[]string{schema.ServerURLParam, "collection_id", "feature_id"},
	)
	return &Operation{Tool: tool, Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
		client, _, err := r.serverClient(args)
		if err != nil {
			return nil, err
		}

		featureID := stringArg(args, "feature_id")
		raw, err := client.Get(ctx, "/collections/"+stringArg(args, "collection_id")+"/items/"+featureID, nil)
		if err != nil {
			return nil, err
		}

		return &Result{
			Text: fmt.Sprintf("Feature '%s':\n%s", featureID, indentJSON(raw)),
			Data: raw,
		}, nil
	}}
}

func (r *Registry) opSearchRecords() *Operation {
	tool := builtinTool("search_records",
		"Full-text search over a metadata catalog (OGC API - Records collection).",
		map[string]any{
			schema.ServerURLParam: serverURLProperty(),
			"catalog_id":          stringProperty("Identifier of the record catalog collection"),
			"q":                   stringProperty("Search terms"),
			"limit":               limitProperty(),
		},
		[]string{schema.ServerURLParam, "catalog_id", "q"},
	)
	return &Operation{Tool: tool, Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
		client, _, err := r.serverClient(args)
		if err != nil {
			return nil, err
		}

		query := map[string]any{"q": stringArg(args, "q"), "limit": 10}
		if v, ok := args["limit"].(float64); ok {
			query["limit"] = int(v)
		}

		raw, err := client.Get(ctx, "/collections/"+stringArg(args, "catalog_id")+"/items", query)
		if err != nil {
			return nil, err
		}

		return &Result{Text: formatFeatures(raw), Data: raw}, nil
	}}
}

func (r *Registry) opDiscoverProcesses() *Operation {
	tool := builtinTool("discover_processes",
		"List the geospatial processes available on an OGC API - Processes server.",
		map[string]any{
			schema.ServerURLParam: serverURLProperty(),
		},
		[]string{schema.ServerURLParam},
	)
	return &Operation{Tool: tool, Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
		client, _, err := r.serverClient(args)
		if err != nil {
			return nil, err
		}

		raw, err := client.Get(ctx, "/processes", nil)
		if err != nil {
			return nil, err
		}

		var doc struct {
			Processes []ogc.Process `json:"processes"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: process list malformed: %w", errors.ErrDecode, err)
		}

		return &Result{Text: formatProcesses(doc.Processes), Data: doc.Processes}, nil
	}}
}

func (r *Registry) opGetProcessDetail() *Operation {
	tool := builtinTool("get_process_detail",
		"Get a process's full description: inputs with types and requiredness, outputs, and execution modes.",
		map[string]any{
			schema.ServerURLParam: serverURLProperty(),
			"process_id":          stringProperty("Identifier of the process"),
		},
		[]string{schema.ServerURLParam, "process_id"},
	)
	return &Operation{Tool: tool, Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
		client, _, err := r.serverClient(args)
		if err != nil {
			return nil, err
		}

		raw, err := client.Get(ctx, "/processes/"+stringArg(args, "process_id"), nil)
		if err != nil {
			return nil, err
		}

		var proc ogc.Process
		if err := json.Unmarshal(raw, &proc); err != nil {
			return nil, fmt.Errorf("%w: process document malformed: %w", errors.ErrDecode, err)
		}
		if len(proc.JobControlOptions) == 0 {
			proc.JobControlOptions = []string{ogc.ExecuteSync}
		}

		return &Result{Text: formatProcessDetail(proc), Data: proc}, nil
	}}
}

func (r *Registry) opExecuteProcess() *Operation {
	tool := builtinTool("execute_process",
		"Execute a process by ID with raw inputs. Prefer the per-process execute_* tools registered by discover_ogc_server; this generic form skips input schema validation.",
		map[string]any{
			schema.ServerURLParam: serverURLProperty(),
			"process_id":          stringProperty("Identifier of the process to execute"),
			"inputs": map[string]any{
				"type":        "object",
				"description": "Process inputs keyed by input name",
			},
			"async": map[string]any{
				"type":        "boolean",
				"description": "Submit asynchronously and track the job instead of waiting for the result",
				"default":     false,
			},
			"wait": map[string]any{
				"type":        "boolean",
				"description": "With async, block until the job completes and return its results",
				"default":     false,
			},
		},
		[]string{schema.ServerURLParam, "process_id", "inputs"},
	)
	return &Operation{Tool: tool, Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
		serverURL := stringArg(args, schema.ServerURLParam)
		processID := stringArg(args, "process_id")
		inputs, _ := args["inputs"].(map[string]any)
		async, _ := args["async"].(bool)
		wait, _ := args["wait"].(bool)

		if async && wait {
			return r.executeAndWait(ctx, serverURL, processID, inputs)
		}
		return r.executeProcess(ctx, serverURL, processID, inputs, async)
	}}
}

func (r *Registry) opGetJobStatus() *Operation {
	tool := builtinTool("get_job_status",
		"Poll the status of an asynchronous process job.",
		map[string]any{
			"job_id": stringProperty("Identifier of the tracked job"),
		},
		[]string{"job_id"},
	)
	return &Operation{Tool: tool, Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
		jobID := stringArg(args, "job_id")
		job, ok := r.jobs.Get(jobID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", errors.ErrJobNotFound, jobID)
		}

		if _, err := r.jobs.Poll(ctx, job); err != nil {
			return nil, err
		}

		info := job.Snapshot()
		return &Result{Text: formatJob(info), Data: info}, nil
	}}
}

func (r *Registry) opGetJobResults() *Operation {
	tool := builtinTool("get_job_results",
		"Retrieve the results of a successfully completed job.",
		map[string]any{
			"job_id": stringProperty("Identifier of the tracked job"),
		},
		[]string{"job_id"},
	)
	return &Operation{Tool: tool, Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
		jobID := stringArg(args, "job_id")
		job, ok := r.jobs.Get(jobID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", errors.ErrJobNotFound, jobID)
		}

		payload, err := r.jobs.Results(ctx, job)
		if err != nil {
			return nil, err
		}

		return &Result{
			Text: fmt.Sprintf("Results for job '%s':\n%s", jobID, indentJSON(payload)),
			Data: payload,
		}, nil
	}}
}

func (r *Registry) opDismissJob() *Operation {
	tool := builtinTool("dismiss_job",
		"Cancel a running job. Cancellation is cooperative; dismissing a finished job is a no-op.",
		map[string]any{
			"job_id": stringProperty("Identifier of the tracked job"),
		},
		[]string{"job_id"},
	)
	return &Operation{Tool: tool, Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
		jobID := stringArg(args, "job_id")
		job, ok := r.jobs.Get(jobID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", errors.ErrJobNotFound, jobID)
		}

		state, err := r.jobs.Dismiss(ctx, job)
		if err != nil {
			return nil, err
		}

		return &Result{
			Text: fmt.Sprintf("Job '%s' is now %s.", jobID, state),
			Data: job.Snapshot(),
		}, nil
	}}
}

// opEDR builds one Environmental Data Retrieval query tool. The parameter
// surface varies per query type; which geometries a backend accepts for a
// query is the backend's call.
func (r *Registry) opEDR(name, query, description string) *Operation {
	properties := map[string]any{
		schema.ServerURLParam: serverURLProperty(),
		"collection_id":       stringProperty("Identifier of the EDR collection"),
		"parameter_name":      stringProperty("Comma-separated parameter names to retrieve, e.g. temperature,humidity"),
		"datetime":            stringProperty("RFC 3339 instant or interval"),
	}
	required := []string{schema.ServerURLParam, "collection_id"}

	switch query {
	case "position", "area", "trajectory":
		properties["coords"] = stringProperty("Query geometry in WKT")
		required = append(required, "coords")
	case "radius":
		properties["coords"] = stringProperty("Center point in WKT")
		properties["within"] = map[string]any{"type": "number", "description": "Radius magnitude"}
		properties["within_units"] = stringProperty("Radius units, e.g. km")
		required = append(required, "coords", "within", "within_units")
	case "cube":
		properties["bbox"] = bboxProperty("Bounding box [minLon, minLat, maxLon, maxLat]")
		properties["z"] = stringProperty("Vertical level or interval, e.g. 850 or 500/850")
		required = append(required, "bbox")
	case "locations":
		properties["location_id"] = stringProperty("Query a specific predefined location instead of listing them")
	}

	tool := builtinTool(name, description, properties, required)

	return &Operation{Tool: tool, Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
		client, _, err := r.serverClient(args)
		if err != nil {
			return nil, err
		}

		q := map[string]any{}
		if v := stringArg(args, "coords"); v != "" {
			q["coords"] = v
		}
		if v := stringArg(args, "parameter_name"); v != "" {
			q["parameter-name"] = v
		}
		if v := stringArg(args, "datetime"); v != "" {
			q["datetime"] = v
		}
		if v := stringArg(args, "z"); v != "" {
			q["z"] = v
		}
		if v, ok := args["within"].(float64); ok {
			q["within"] = v
			q["within-units"] = stringArg(args, "within_units")
		}
		if v, ok := args["bbox"]; ok {
			bbox, err := bboxQuery(v)
			if err != nil {
				return nil, err
			}
			q["bbox"] = bbox
		}

		collection := stringArg(args, "collection_id")
		path := "/collections/" + collection + "/" + query
		if query == "locations" {
			if loc := stringArg(args, "location_id"); loc != "" {
				path += "/" + loc
			}
		}

		raw, err := client.Get(ctx, path, q)
		if err != nil {
			return nil, err
		}

		return &Result{
			Text: fmt.Sprintf("EDR %s query on collection '%s' returned:\n%s", query, collection, indentJSON(raw)),
			Data: raw,
		}, nil
	}}
}

// bboxQuery renders a bounding box argument as the comma-separated form OGC
// query parameters expect.
func bboxQuery(v any) (string, error) {
	coords, ok := v.([]any)
	if !ok || len(coords) != 4 {
		return "", fmt.Errorf("%w: bbox must be [minLon, minLat, maxLon, maxLat]", errors.ErrValidation)
	}
	parts := make([]string, 0, len(coords))
	for _, c := range coords {
		f, ok := c.(float64)
		if !ok {
			return "", fmt.Errorf("%w: bbox coordinates must be numbers", errors.ErrValidation)
		}
		parts = append(parts, strconv.FormatFloat(f, 'f', -1, 64))
	}
	return strings.Join(parts, ","), nil
}
