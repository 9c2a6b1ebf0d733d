package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/geoapi-labs/ogcd/internal/contracts"
	"github.com/geoapi-labs/ogcd/internal/errors"
)

// OperationSummary describes one callable operation.
type OperationSummary struct {
	Tool      mcp.Tool `json:"tool"                doc:"Tool definition including parameter schema"`
	Dynamic   bool     `json:"dynamic"             doc:"True when synthesized from a discovered process"`
	ServerURL string   `json:"serverUrl,omitempty" doc:"Origin server for dynamic operations"`
	ProcessID string   `json:"processId,omitempty" doc:"Origin process for dynamic operations"`
}

// OperationsResponse represents the wrapped API response for a list of operations.
type OperationsResponse struct {
	Body []OperationSummary
}

// ServerOperationsRequest asks for the operations originating from one server.
type ServerOperationsRequest struct {
	Name string `doc:"URL-derived identity of the server" example:"https_demo_pygeoapi_io_master" path:"name"`
}

// InvokeRequest represents the incoming API request to invoke an operation.
type InvokeRequest struct {
	Name string         `doc:"Name of the operation to invoke" example:"execute_geospatial_buffer" path:"name"`
	Body map[string]any `doc:"Operation arguments"`
}

// InvokeResponse wraps an invocation outcome.
type InvokeResponse struct {
	Body InvokeResult
}

// InvokeResult carries both the readable and structured invocation outputs.
type InvokeResult struct {
	Text string `json:"text" doc:"Human-readable rendering of the result"`
	Data any    `json:"data" doc:"Structured result payload"`
}

// RegisterOperationRoutes sets up operation listing and invocation endpoints.
func RegisterOperationRoutes(
	routerAPI huma.API,
	invoker contracts.OperationInvoker,
	store contracts.CapabilityStore,
	apiPathPrefix string,
	serversPathPrefix string,
) {
	tags := []string{"Operations"}

	opsAPI := huma.NewGroup(routerAPI, apiPathPrefix)

	huma.Register(
		opsAPI,
		huma.Operation{
			OperationID: "listOperations",
			Method:      http.MethodGet,
			Summary:     "List all published operations",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*OperationsResponse, error) {
			return handleOperations(invoker, "")
		},
	)

	huma.Register(
		opsAPI,
		huma.Operation{
			OperationID: "invokeOperation",
			Method:      http.MethodPost,
			Path:        "/{name}",
			Summary:     "Invoke an operation",
			Tags:        tags,
		},
		func(ctx context.Context, input *InvokeRequest) (*InvokeResponse, error) {
			return handleInvoke(ctx, invoker, input.Name, input.Body)
		},
	)

	serversAPI := huma.NewGroup(routerAPI, serversPathPrefix)

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "listServerOperations",
			Method:      http.MethodGet,
			Path:        "/{name}/operations",
			Summary:     "List operations synthesized from one server",
			Tags:        tags,
		},
		func(ctx context.Context, input *ServerOperationsRequest) (*OperationsResponse, error) {
			snap, ok := snapshotByIdentity(store, input.Name)
			if !ok {
				return nil, fmt.Errorf("%w: %s", errors.ErrServerNotFound, input.Name)
			}
			return handleOperations(invoker, snap.BaseURL)
		},
	)
}

// handleOperations lists published operations, optionally filtered to one
// origin server.
func handleOperations(invoker contracts.OperationInvoker, serverURL string) (*OperationsResponse, error) {
	set := invoker.Published()

	summaries := make([]OperationSummary, 0, set.Len())
	for _, name := range set.Names() {
		op, ok := set.Get(name)
		if !ok {
			continue
		}
		if serverURL != "" && op.ServerURL != serverURL {
			continue
		}
		summaries = append(summaries, OperationSummary{
			Tool:      op.Tool,
			Dynamic:   op.Dynamic,
			ServerURL: op.ServerURL,
			ProcessID: op.ProcessID,
		})
	}

	resp := &OperationsResponse{}
	resp.Body = summaries

	return resp, nil
}

// handleInvoke dispatches one operation invocation.
func handleInvoke(ctx context.Context, invoker contracts.OperationInvoker, name string, args map[string]any) (*InvokeResponse, error) {
	result, err := invoker.Invoke(ctx, name, args)
	if err != nil {
		return nil, err
	}

	resp := &InvokeResponse{}
	resp.Body = InvokeResult{Text: result.Text, Data: result.Data}

	return resp, nil
}
