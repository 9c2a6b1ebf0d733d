// Package jobs drives asynchronous OGC process executions through status
// polling to a terminal state, with bounded retry/backoff and cancellation.
package jobs

import (
	"encoding/json"
	"sync"
	"time"
)

// State is an OGC API - Processes job status.
type State string

const (
	StateAccepted   State = "accepted"
	StateRunning    State = "running"
	StateSuccessful State = "successful"
	StateFailed     State = "failed"
	StateDismissed  State = "dismissed"
)

// Terminal reports whether the state is final. Terminal states permit no
// further transitions.
func (s State) Terminal() bool {
	switch s {
	case StateSuccessful, StateFailed, StateDismissed:
		return true
	default:
		return false
	}
}

// rank orders states along the lifecycle so transitions stay monotonic.
func (s State) rank() int {
	switch s {
	case StateAccepted:
		return 0
	case StateRunning:
		return 1
	case StateSuccessful, StateFailed, StateDismissed:
		return 2
	default:
		return -1
	}
}

// Job is a handle to an asynchronous process execution. All mutation goes
// through the Manager; state transitions are monotonic and terminal states are
// final. Job is safe for concurrent use.
type Job struct {
	ID        string
	ServerURL string
	ProcessID string
	Created   time.Time

	mu            sync.Mutex
	state         State
	message       string
	progress      *int
	lastPolled    time.Time
	result        json.RawMessage
	resultFetched bool

	// fetchMu serializes result retrieval so concurrent callers cannot both
	// miss the cache and fetch from the backend. Held across the network
	// call, so it must stay separate from mu.
	fetchMu sync.Mutex
}

// Info is an immutable snapshot of a job for reporting.
type Info struct {
	ID         string    `json:"jobID"`
	ServerURL  string    `json:"serverUrl"`
	ProcessID  string    `json:"processID,omitempty"`
	State      State     `json:"status"`
	Message    string    `json:"message,omitempty"`
	Progress   *int      `json:"progress,omitempty"`
	Created    time.Time `json:"created"`
	LastPolled time.Time `json:"lastPolled,omitzero"`
}

// State returns the job's current state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Snapshot returns a point-in-time copy of the job's observable fields.
func (j *Job) Snapshot() Info {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Info{
		ID:         j.ID,
		ServerURL:  j.ServerURL,
		ProcessID:  j.ProcessID,
		State:      j.state,
		Message:    j.message,
		Progress:   j.progress,
		Created:    j.Created,
		LastPolled: j.lastPolled,
	}
}

// advance applies an observed status, enforcing monotonicity: a state earlier
// in the lifecycle than the current one is ignored (unreliable backends can
// briefly report stale statuses), and terminal states never change. Reports
// whether the state changed.
func (j *Job) advance(next State, message string, progress *int) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.lastPolled = time.Now()

	if j.state.Terminal() {
		return false
	}
	if next.rank() < j.state.rank() {
		return false
	}

	changed := next != j.state
	j.state = next
	if message != "" {
		j.message = message
	}
	if progress != nil {
		j.progress = progress
	}

	return changed
}

// cachedResult returns the stored result payload, if one was fetched.
func (j *Job) cachedResult() (json.RawMessage, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.resultFetched
}

// storeResult caches a fetched result payload on the job.
func (j *Job) storeResult(payload json.RawMessage) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = payload
	j.resultFetched = true
}

// Message returns the last backend-provided status message.
func (j *Job) Message() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.message
}
