// Package api registers the REST facade routes. Handlers translate between
// HTTP and the registry/job-manager contracts; domain errors are mapped to
// statuses at the daemon boundary.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/geoapi-labs/ogcd/internal/contracts"
	"github.com/geoapi-labs/ogcd/internal/errors"
	"github.com/geoapi-labs/ogcd/internal/ogc"
	"github.com/geoapi-labs/ogcd/internal/resources"
)

// ServerSummary is the list-level view of a discovered server.
type ServerSummary struct {
	Name         string   `json:"name"         doc:"URL-derived server identity"`
	URL          string   `json:"url"          doc:"Server base URL"`
	Title        string   `json:"title"        doc:"Server title from its landing page"`
	Capabilities []string `json:"capabilities" doc:"Detected OGC API families"`
	Collections  int      `json:"collections"  doc:"Number of discovered collections"`
	Processes    int      `json:"processes"    doc:"Number of discovered processes"`
}

// ServersResponse represents the wrapped API response for a list of servers.
type ServersResponse struct {
	Body []ServerSummary
}

// ServerRequest represents the incoming API request for a single server.
type ServerRequest struct {
	Name string `doc:"URL-derived identity of the server" example:"https_demo_pygeoapi_io_master" path:"name"`
}

// ServerResponse wraps a full capability snapshot.
type ServerResponse struct {
	Body *ogc.ServerCapability
}

// RegisterServerRoutes sets up server discovery API endpoints.
func RegisterServerRoutes(routerAPI huma.API, store contracts.CapabilityStore, apiPathPrefix string) {
	serversAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Servers"}

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "listServers",
			Method:      http.MethodGet,
			Summary:     "List discovered OGC servers",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*ServersResponse, error) {
			return handleServers(store)
		},
	)

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "getServer",
			Method:      http.MethodGet,
			Path:        "/{name}",
			Summary:     "Get a server's capability snapshot",
			Tags:        tags,
		},
		func(ctx context.Context, input *ServerRequest) (*ServerResponse, error) {
			return handleServer(store, input.Name)
		},
	)
}

// handleServers returns summaries for every discovered server.
func handleServers(store contracts.CapabilityStore) (*ServersResponse, error) {
	urls := store.Servers()

	summaries := make([]ServerSummary, 0, len(urls))
	for _, u := range urls {
		snap, ok := store.Snapshot(u)
		if !ok {
			continue
		}
		summaries = append(summaries, ServerSummary{
			Name:         resources.ServerIdentity(u),
			URL:          snap.BaseURL,
			Title:        snap.Title,
			Capabilities: snap.Capabilities,
			Collections:  len(snap.Collections),
			Processes:    len(snap.Processes),
		})
	}

	resp := &ServersResponse{}
	resp.Body = summaries

	return resp, nil
}

// handleServer returns the full snapshot for one server identity.
func handleServer(store contracts.CapabilityStore, name string) (*ServerResponse, error) {
	snap, ok := snapshotByIdentity(store, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrServerNotFound, name)
	}

	resp := &ServerResponse{}
	resp.Body = snap

	return resp, nil
}

func snapshotByIdentity(store contracts.CapabilityStore, name string) (*ogc.ServerCapability, bool) {
	for _, u := range store.Servers() {
		if resources.ServerIdentity(u) != name {
			continue
		}
		if snap, ok := store.Snapshot(u); ok {
			return snap, true
		}
	}
	return nil, false
}
