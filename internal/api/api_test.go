package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoapi-labs/ogcd/internal/errors"
	"github.com/geoapi-labs/ogcd/internal/jobs"
	"github.com/geoapi-labs/ogcd/internal/ogc"
	"github.com/geoapi-labs/ogcd/internal/registry"
)

func seededRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	manager, err := jobs.NewManager(nil, nil)
	require.NoError(t, err)
	r := registry.New(nil, ogc.NewDiscoverer(nil), manager, nil)

	_, err = r.Refresh(&ogc.ServerCapability{
		BaseURL:      "https://demo.pygeoapi.io/master",
		Title:        "pygeoapi demo",
		Capabilities: []string{ogc.CapabilityFeatures, ogc.CapabilityProcesses},
		Collections: []ogc.Collection{
			{ID: "lakes", Title: "Large Lakes", ItemType: ogc.ItemTypeFeature},
		},
		Processes: []ogc.Process{
			{ID: "hello-world", Title: "Hello World"},
		},
	})
	require.NoError(t, err)

	return r
}

func TestHandleServers(t *testing.T) {
	t.Parallel()

	r := seededRegistry(t)

	resp, err := handleServers(r)
	require.NoError(t, err)
	require.Len(t, resp.Body, 1)

	summary := resp.Body[0]
	assert.Equal(t, "https_demo_pygeoapi_io_master", summary.Name)
	assert.Equal(t, "https://demo.pygeoapi.io/master", summary.URL)
	assert.Equal(t, "pygeoapi demo", summary.Title)
	assert.Equal(t, 1, summary.Collections)
	assert.Equal(t, 1, summary.Processes)
}

func TestHandleServer(t *testing.T) {
	t.Parallel()

	r := seededRegistry(t)

	resp, err := handleServer(r, "https_demo_pygeoapi_io_master")
	require.NoError(t, err)
	assert.Equal(t, "pygeoapi demo", resp.Body.Title)

	_, err = handleServer(r, "unknown_server")
	require.ErrorIs(t, err, errors.ErrServerNotFound)
}

func TestHandleOperations(t *testing.T) {
	t.Parallel()

	r := seededRegistry(t)

	all, err := handleOperations(r, "")
	require.NoError(t, err)

	var dynamic []string
	for _, op := range all.Body {
		if op.Dynamic {
			dynamic = append(dynamic, op.Tool.Name)
		}
	}
	assert.Equal(t, []string{"execute_hello_world"}, dynamic)

	scoped, err := handleOperations(r, "https://demo.pygeoapi.io/master")
	require.NoError(t, err)
	require.Len(t, scoped.Body, 1)
	assert.Equal(t, "execute_hello_world", scoped.Body[0].Tool.Name)
	assert.Equal(t, "hello-world", scoped.Body[0].ProcessID)
}

func TestHandleInvokePropagatesErrors(t *testing.T) {
	t.Parallel()

	r := seededRegistry(t)

	_, err := handleInvoke(context.Background(), r, "no_such_operation", nil)
	require.ErrorIs(t, err, errors.ErrOperationNotFound)
}

func TestHandleInvokeReturnsResult(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"collections":[{"id":"lakes","title":"Large Lakes"}]}`))
	}))
	t.Cleanup(srv.Close)

	r := seededRegistry(t)

	resp, err := handleInvoke(context.Background(), r, "get_collections", map[string]any{
		"server_url": srv.URL,
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Body.Text, "Large Lakes")
	assert.NotNil(t, resp.Body.Data)
}

func TestJobHandlers(t *testing.T) {
	t.Parallel()

	var deletes int
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /jobs/job-7", func(w http.ResponseWriter, _ *http.Request) {
		deletes++
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	manager, err := jobs.NewManager(nil, nil)
	require.NoError(t, err)
	_, err = manager.Track(srv.URL, json.RawMessage(`{"jobID":"job-7","status":"accepted","processID":"hello-world"}`))
	require.NoError(t, err)

	list, err := handleJobs(manager)
	require.NoError(t, err)
	require.Len(t, list.Body, 1)
	assert.Equal(t, "job-7", list.Body[0].ID)

	one, err := handleJob(manager, "job-7")
	require.NoError(t, err)
	assert.Equal(t, jobs.StateAccepted, one.Body.State)

	_, err = handleJob(manager, "missing")
	require.ErrorIs(t, err, errors.ErrJobNotFound)

	// Results before completion are refused.
	_, err = handleJobResults(context.Background(), manager, "job-7")
	require.ErrorIs(t, err, errors.ErrBadRequest)

	dismissed, err := handleDismissJob(context.Background(), manager, "job-7")
	require.NoError(t, err)
	assert.Equal(t, jobs.StateDismissed, dismissed.Body.State)
	assert.Equal(t, 1, deletes)
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	r := seededRegistry(t)
	manager, err := jobs.NewManager(nil, nil)
	require.NoError(t, err)

	resp, err := handleHealth(r, r, manager)
	require.NoError(t, err)

	assert.Equal(t, "ok", resp.Body.Status)
	assert.Equal(t, 1, resp.Body.Servers)
	assert.Equal(t, r.Published().Len(), resp.Body.Operations)
	assert.Zero(t, resp.Body.Jobs)
}
