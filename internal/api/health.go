package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/geoapi-labs/ogcd/internal/contracts"
)

// HealthResponse represents the wrapped API response for daemon health.
type HealthResponse struct {
	Body HealthStatus
}

// HealthStatus summarizes what the daemon is currently bridging.
type HealthStatus struct {
	Status     string `json:"status"     doc:"Always 'ok' while the daemon serves requests"`
	Servers    int    `json:"servers"    doc:"Number of discovered servers"`
	Operations int    `json:"operations" doc:"Number of published operations"`
	Jobs       int    `json:"jobs"       doc:"Number of tracked jobs"`
}

// RegisterHealthRoutes sets up the health endpoint.
func RegisterHealthRoutes(
	routerAPI huma.API,
	store contracts.CapabilityStore,
	invoker contracts.OperationInvoker,
	accessor contracts.JobAccessor,
	apiPathPrefix string,
) {
	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "health",
			Method:      http.MethodGet,
			Path:        apiPathPrefix,
			Summary:     "Daemon health",
			Tags:        []string{"Health"},
		},
		func(ctx context.Context, _ *struct{}) (*HealthResponse, error) {
			return handleHealth(store, invoker, accessor)
		},
	)
}

func handleHealth(
	store contracts.CapabilityStore,
	invoker contracts.OperationInvoker,
	accessor contracts.JobAccessor,
) (*HealthResponse, error) {
	resp := &HealthResponse{}
	resp.Body = HealthStatus{
		Status:     "ok",
		Servers:    len(store.Servers()),
		Operations: invoker.Published().Len(),
		Jobs:       len(accessor.List()),
	}

	return resp, nil
}
