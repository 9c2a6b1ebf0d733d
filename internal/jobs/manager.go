package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/geoapi-labs/ogcd/internal/errors"
	"github.com/geoapi-labs/ogcd/internal/transport"
)

const (
	// DefaultPollInterval is the backoff ceiling between status polls.
	DefaultPollInterval = 2 * time.Second

	// DefaultMaxWait is the overall poll budget per PollUntilTerminal call.
	DefaultMaxWait = 5 * time.Minute

	// initialBackoffDivisor sets the first backoff step relative to the
	// configured poll interval.
	initialBackoffDivisor = 4
)

// statusDocument is the OGC API - Processes job status response.
type statusDocument struct {
	JobID     string `json:"jobID"`
	Status    string `json:"status"`
	ProcessID string `json:"processID"`
	Message   string `json:"message"`
	Progress  *int   `json:"progress"`
}

// ClientFactory builds a transport client for a server base URL. Injected so
// tests can point the manager at fixtures.
type ClientFactory func(serverURL string) (*transport.Client, error)

// Manager owns every tracked Job and is the only writer of job state.
// It is safe for concurrent use; independent jobs may be polled concurrently.
type Manager struct {
	logger    hclog.Logger
	clientFor ClientFactory
	opts      Options

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewManager creates a Manager. A nil clientFor uses plain transport clients
// with default options.
func NewManager(logger hclog.Logger, clientFor ClientFactory, opt ...Option) (*Manager, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if clientFor == nil {
		clientFor = func(serverURL string) (*transport.Client, error) {
			return transport.New(serverURL)
		}
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid job manager options: %w", err)
	}

	return &Manager{
		logger:    logger.Named("jobs"),
		clientFor: clientFor,
		opts:      opts,
		jobs:      make(map[string]*Job),
	}, nil
}

// Track registers an accepted execution response as a Job. The raw message is
// the body returned by POST /processes/{id}/execution with Prefer:
// respond-async.
func (m *Manager) Track(serverURL string, raw json.RawMessage) (*Job, error) {
	var doc statusDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: execution response is not a job status document: %w", errors.ErrInvocation, err)
	}
	if doc.JobID == "" {
		return nil, fmt.Errorf("%w: execution response carries no job identifier", errors.ErrInvocation)
	}

	job := &Job{
		ID:        doc.JobID,
		ServerURL: serverURL,
		ProcessID: doc.ProcessID,
		Created:   time.Now(),
		state:     StateAccepted,
		message:   doc.Message,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.logger.Info("tracking job", "job", job.ID, "server", serverURL, "process", doc.ProcessID)

	return job, nil
}

// Get returns a tracked job by identifier.
func (m *Manager) Get(id string) (*Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	return j, ok
}

// List returns snapshots of all tracked jobs, ordered by creation time.
func (m *Manager) List() []Info {
	m.mu.RLock()
	out := make([]Info, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j.Snapshot())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, k int) bool { return out[i].Created.Before(out[k].Created) })

	return out
}

// Poll fetches the job's status once and advances its state. Returns the
// state observed after the poll.
func (m *Manager) Poll(ctx context.Context, job *Job) (State, error) {
	client, err := m.clientFor(job.ServerURL)
	if err != nil {
		return job.State(), fmt.Errorf("%w: %w", errors.ErrTransport, err)
	}

	raw, err := client.Get(ctx, "/jobs/"+job.ID, nil)
	if err != nil {
		return job.State(), err
	}

	var doc statusDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return job.State(), fmt.Errorf("%w: job status document malformed: %w", errors.ErrDecode, err)
	}

	next := State(doc.Status)
	if next.rank() < 0 {
		m.logger.Warn("backend reported unknown job status", "job", job.ID, "status", doc.Status)
		return job.State(), nil
	}

	if job.advance(next, doc.Message, doc.Progress) {
		m.logger.Debug("job state advanced", "job", job.ID, "state", next)
	}

	return job.State(), nil
}

// PollUntilTerminal polls the job until it reaches a terminal state, using
// exponential backoff bounded by pollInterval. It blocks only at poll
// boundaries and honors ctx cancellation.
//
// If maxWait elapses first it returns ErrTimeout and leaves the job in its
// last observed non-terminal state; the caller may poll again later. A
// terminal failure returns ErrJobFailed with the backend's detail. A single
// failed poll call is retried on the next boundary rather than aborting the
// loop; the per-call transport timeout keeps one slow poll from consuming the
// whole budget.
func (m *Manager) PollUntilTerminal(ctx context.Context, job *Job, maxWait, pollInterval time.Duration) (State, error) {
	if maxWait <= 0 {
		maxWait = m.opts.MaxWait
	}
	if pollInterval <= 0 {
		pollInterval = m.opts.PollInterval
	}

	deadline := time.Now().Add(maxWait)
	backoff := pollInterval / initialBackoffDivisor
	if backoff <= 0 {
		backoff = pollInterval
	}

	for {
		state, err := m.Poll(ctx, job)
		if err != nil {
			m.logger.Warn("job status poll failed", "job", job.ID, "error", err)
		}

		switch state {
		case StateSuccessful, StateDismissed:
			return state, nil
		case StateFailed:
			detail := job.Message()
			if detail == "" {
				detail = "no details provided"
			}
			return state, fmt.Errorf("%w: job %q: %s", errors.ErrJobFailed, job.ID, detail)
		}

		if time.Now().After(deadline) {
			return state, fmt.Errorf(
				"%w: job %q did not complete within %s, last status %q",
				errors.ErrTimeout, job.ID, maxWait, state,
			)
		}

		select {
		case <-ctx.Done():
			return state, fmt.Errorf("%w: %w", errors.ErrTimeout, ctx.Err())
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > pollInterval {
			backoff = pollInterval
		}
	}
}

// Results fetches a successful job's result payload. The payload is fetched
// from the backend exactly once and cached on the job; repeated calls return
// the cache.
func (m *Manager) Results(ctx context.Context, job *Job) (json.RawMessage, error) {
	job.fetchMu.Lock()
	defer job.fetchMu.Unlock()

	if payload, ok := job.cachedResult(); ok {
		return payload, nil
	}

	switch state := job.State(); state {
	case StateSuccessful:
	case StateFailed:
		detail := job.Message()
		if detail == "" {
			detail = "no details provided"
		}
		return nil, fmt.Errorf("%w: job %q: %s", errors.ErrJobFailed, job.ID, detail)
	default:
		return nil, fmt.Errorf("%w: job %q is %s; results are available once it is successful", errors.ErrBadRequest, job.ID, state)
	}

	client, err := m.clientFor(job.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrTransport, err)
	}

	payload, err := client.Get(ctx, "/jobs/"+job.ID+"/results", nil)
	if err != nil {
		return nil, err
	}

	job.storeResult(payload)

	return payload, nil
}

// Dismiss cancels a job. Dismissing an already-terminal job is a no-op, not
// an error. Cancellation is cooperative: the backend is asked to stop via
// DELETE /jobs/{id}, but no guarantee is made that computation halts.
func (m *Manager) Dismiss(ctx context.Context, job *Job) (State, error) {
	if state := job.State(); state.Terminal() {
		return state, nil
	}

	client, err := m.clientFor(job.ServerURL)
	if err != nil {
		return job.State(), fmt.Errorf("%w: %w", errors.ErrTransport, err)
	}

	if _, err := client.Delete(ctx, "/jobs/"+job.ID); err != nil {
		return job.State(), err
	}

	job.advance(StateDismissed, "dismissed on request", nil)
	m.logger.Info("job dismissed", "job", job.ID)

	return job.State(), nil
}
