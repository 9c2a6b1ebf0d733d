package registry

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/geoapi-labs/ogcd/internal/errors"
	"github.com/geoapi-labs/ogcd/internal/jobs"
	"github.com/geoapi-labs/ogcd/internal/ogc"
	"github.com/geoapi-labs/ogcd/internal/schema"
	"github.com/geoapi-labs/ogcd/internal/transport"
)

// ClientFactory builds a transport client for a server base URL.
type ClientFactory func(serverURL string) (*transport.Client, error)

// Registry owns the published operation set. Built-in operations are
// registered once at construction and never replaced; dynamic operations are
// rebuilt per origin server on refresh and swapped in wholesale. Registry is
// safe for concurrent use.
type Registry struct {
	logger     hclog.Logger
	discoverer *ogc.Discoverer
	jobs       *jobs.Manager
	clientFor  ClientFactory

	mu        sync.RWMutex
	snapshots map[string]*ogc.ServerCapability
	published *OperationSet
	onRefresh []func(*OperationSet)
}

// New creates a Registry with the built-in operations published. A nil
// clientFor uses plain transport clients with default options.
func New(logger hclog.Logger, discoverer *ogc.Discoverer, jobManager *jobs.Manager, clientFor ClientFactory) *Registry {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if clientFor == nil {
		clientFor = func(serverURL string) (*transport.Client, error) {
			return transport.New(serverURL)
		}
	}

	r := &Registry{
		logger:     logger.Named("registry"),
		discoverer: discoverer,
		jobs:       jobManager,
		clientFor:  clientFor,
		snapshots:  make(map[string]*ogc.ServerCapability),
	}
	r.published = newOperationSet(r.builtinOperations())

	return r
}

// Published returns the current operation set. The returned set is immutable:
// invocations started against it complete against it even if a refresh swaps
// in a successor meanwhile.
func (r *Registry) Published() *OperationSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.published
}

// Snapshot returns the capability snapshot for a server base URL.
func (r *Registry) Snapshot(serverURL string) (*ogc.ServerCapability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.snapshots[serverURL]
	return snap, ok
}

// Servers returns the base URLs of all servers with a live snapshot, sorted.
func (r *Registry) Servers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	urls := make([]string, 0, len(r.snapshots))
	for u := range r.snapshots {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// OnRefresh registers a callback invoked with the new operation set after
// every successful refresh. Used to propagate tool-list changes to the MCP
// layer.
func (r *Registry) OnRefresh(fn func(*OperationSet)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRefresh = append(r.onRefresh, fn)
}

// Refresh replaces the dynamic operations originating from the snapshot's
// server. The previously published set stays valid and callable until the new
// set is fully built; the swap is atomic from a consumer's point of view.
func (r *Registry) Refresh(snap *ogc.ServerCapability) (*OperationSet, error) {
	if snap == nil {
		return nil, fmt.Errorf("capability snapshot cannot be nil")
	}

	r.mu.Lock()
	r.snapshots[snap.BaseURL] = snap

	set, err := r.rebuildLocked()
	if err != nil {
		// Roll back: the failed snapshot must not poison the registry.
		delete(r.snapshots, snap.BaseURL)
		r.mu.Unlock()
		return nil, err
	}

	r.published = set
	listeners := make([]func(*OperationSet), len(r.onRefresh))
	copy(listeners, r.onRefresh)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(set)
	}

	r.logger.Info("operation set refreshed",
		"server", snap.BaseURL,
		"operations", set.Len(),
		"dynamic", len(set.Dynamic()),
	)

	return set, nil
}

// DiscoverAndRefresh runs a discovery cycle against serverURL and refreshes
// the registry with the result. On discovery failure the previously published
// set for that server remains untouched.
func (r *Registry) DiscoverAndRefresh(ctx context.Context, serverURL string) (*ogc.ServerCapability, error) {
	snap, err := r.discoverer.Discover(ctx, serverURL)
	if err != nil {
		return nil, err
	}
	if _, err := r.Refresh(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// rebuildLocked constructs the full operation set from built-ins plus every
// live snapshot. Callers hold r.mu. Servers are visited in sorted base-URL
// order and processes arrive pre-sorted from discovery, so collision suffixes
// are deterministic and idempotent for an unchanged process set.
func (r *Registry) rebuildLocked() (*OperationSet, error) {
	builtins := r.builtinOperations()
	ops := make([]*Operation, 0, len(builtins))
	namer := schema.NewNamer()
	for _, op := range builtins {
		namer.Reserve(op.Tool.Name)
		ops = append(ops, op)
	}

	urls := make([]string, 0, len(r.snapshots))
	for u := range r.snapshots {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	for _, u := range urls {
		snap := r.snapshots[u]
		for _, p := range snap.Processes {
			name := namer.OperationName(p.ID)
			tool, err := schema.ProcessTool(p, name, snap.BaseURL)
			if err != nil {
				return nil, err
			}
			ops = append(ops, &Operation{
				Tool:      tool,
				ServerURL: snap.BaseURL,
				ProcessID: p.ID,
				Dynamic:   true,
				Handler:   r.processHandler(snap.BaseURL, p),
			})
		}
	}

	return newOperationSet(ops), nil
}

// Invoke validates args against the named operation's parameter schema and
// dispatches it. Validation failures are rejected before any network call.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (*Result, error) {
	set := r.Published()

	op, ok := set.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrOperationNotFound, name)
	}

	if args == nil {
		args = map[string]any{}
	}
	args = applyDefaults(op.Tool.InputSchema, args)

	if err := validateArguments(op.Tool.InputSchema, args); err != nil {
		return nil, fmt.Errorf("operation %s: %w", name, err)
	}

	r.logger.Debug("invoking operation", "operation", name)

	return op.Handler(ctx, args)
}

// processHandler executes a synthesized process operation. The declared job
// control options decide the execution mode: sync when supported, otherwise
// async with the job handed to the lifecycle manager.
func (r *Registry) processHandler(origin string, p ogc.Process) Handler {
	return func(ctx context.Context, args map[string]any) (*Result, error) {
		serverURL := origin
		if v, ok := args[schema.ServerURLParam].(string); ok && v != "" {
			serverURL = v
		}

		inputs := make(map[string]any, len(args))
		for k, v := range args {
			if k != schema.ServerURLParam {
				inputs[k] = v
			}
		}

		return r.executeProcess(ctx, serverURL, p.ID, inputs, !p.SupportsSync() && p.SupportsAsync())
	}
}

// executeProcess submits inputs to a process execution endpoint. In async
// mode the accepted job is tracked and returned; in sync mode the backend's
// payload is passed through unmapped.
func (r *Registry) executeProcess(ctx context.Context, serverURL, processID string, inputs map[string]any, async bool) (*Result, error) {
	client, err := r.clientFor(serverURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrTransport, err)
	}

	var headers map[string]string
	if async {
		headers = map[string]string{"Prefer": "respond-async"}
	}

	raw, err := client.Post(ctx, "/processes/"+processID+"/execution", map[string]any{"inputs": inputs}, headers)
	if err != nil {
		return nil, invocationError(processID, err)
	}

	if async {
		job, err := r.jobs.Track(serverURL, raw)
		if err != nil {
			return nil, err
		}
		info := job.Snapshot()
		return &Result{
			Text: fmt.Sprintf(
				"Process '%s' submitted asynchronously.\nJob ID: %s\nStatus: %s\nUse get_job_status with job_id='%s' to monitor progress.",
				processID, info.ID, info.State, info.ID,
			),
			Data: info,
		}, nil
	}

	return &Result{
		Text: fmt.Sprintf("Process '%s' completed successfully.\nResult:\n%s", processID, indentJSON(raw)),
		Data: raw,
	}, nil
}

// executeAndWait submits a process asynchronously, blocks until the job
// reaches a terminal state and returns its results. The job manager's
// configured poll interval and wait budget apply.
func (r *Registry) executeAndWait(ctx context.Context, serverURL, processID string, inputs map[string]any) (*Result, error) {
	res, err := r.executeProcess(ctx, serverURL, processID, inputs, true)
	if err != nil {
		return nil, err
	}

	info, ok := res.Data.(jobs.Info)
	if !ok {
		return res, nil
	}
	job, ok := r.jobs.Get(info.ID)
	if !ok {
		return res, nil
	}

	if _, err := r.jobs.PollUntilTerminal(ctx, job, 0, 0); err != nil {
		return nil, err
	}

	payload, err := r.jobs.Results(ctx, job)
	if err != nil {
		return nil, err
	}

	return &Result{
		Text: fmt.Sprintf("Process '%s' completed (job %s).\nResult:\n%s", processID, job.ID, indentJSON(payload)),
		Data: payload,
	}, nil
}

// invocationError classifies a failed execution submission. Backend
// rejections (non-2xx with detail) become ErrInvocation carrying the backend's
// message; transport-level failures pass through unchanged.
func invocationError(processID string, err error) error {
	var httpErr *transport.HTTPError
	if stdErrors.As(err, &httpErr) {
		return fmt.Errorf("%w: process %q rejected by backend (status %d): %s", errors.ErrInvocation, processID, httpErr.Status, httpErr.Body)
	}
	return err
}

func indentJSON(raw json.RawMessage) string {
	var buf json.RawMessage = raw
	var out map[string]any
	if err := json.Unmarshal(buf, &out); err != nil {
		return string(raw)
	}
	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(pretty)
}
