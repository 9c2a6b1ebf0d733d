// Package contracts declares the interfaces the daemon and API layers consume,
// keeping them decoupled from the registry and job manager implementations.
package contracts

import (
	"context"
	"encoding/json"

	"github.com/geoapi-labs/ogcd/internal/jobs"
	"github.com/geoapi-labs/ogcd/internal/ogc"
	"github.com/geoapi-labs/ogcd/internal/registry"
)

// OperationInvoker exposes the published operation set and dispatches
// invocations against it.
type OperationInvoker interface {
	// Published returns the current immutable operation set.
	Published() *registry.OperationSet

	// Invoke validates args and executes the named operation.
	Invoke(ctx context.Context, name string, args map[string]any) (*registry.Result, error)
}

// CapabilityStore provides read access to discovered server snapshots.
type CapabilityStore interface {
	// Servers returns the base URLs of all discovered servers, sorted.
	Servers() []string

	// Snapshot returns the capability snapshot for a server base URL.
	Snapshot(serverURL string) (*ogc.ServerCapability, bool)
}

// JobAccessor exposes tracked jobs to non-MCP callers.
type JobAccessor interface {
	// Get returns a tracked job by identifier.
	Get(id string) (*jobs.Job, bool)

	// List returns snapshots of all tracked jobs, ordered by creation time.
	List() []jobs.Info

	// Results fetches a successful job's result payload.
	Results(ctx context.Context, job *jobs.Job) (json.RawMessage, error)

	// Dismiss cancels a non-terminal job.
	Dismiss(ctx context.Context, job *jobs.Job) (jobs.State, error)
}
