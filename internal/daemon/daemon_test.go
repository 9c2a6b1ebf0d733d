package daemon

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoapi-labs/ogcd/internal/errors"
	"github.com/geoapi-labs/ogcd/internal/jobs"
	"github.com/geoapi-labs/ogcd/internal/ogc"
	"github.com/geoapi-labs/ogcd/internal/registry"
)

func TestNewOptionsDefaults(t *testing.T) {
	t.Parallel()

	opts, err := NewOptions()
	require.NoError(t, err)

	assert.True(t, opts.APIEnabled)
	assert.Empty(t, opts.APIAddr)
	assert.False(t, opts.CORS.Enabled)
	assert.Equal(t, 5*time.Second, opts.ShutdownTimeout)
}

func TestNewOptionsOverrides(t *testing.T) {
	t.Parallel()

	opts, err := NewOptions(
		WithAPIAddr("localhost:9999"),
		WithAPIDisabled(),
		WithCORS("https://app.example"),
		WithShutdownTimeout(time.Second),
	)
	require.NoError(t, err)

	assert.Equal(t, "localhost:9999", opts.APIAddr)
	assert.False(t, opts.APIEnabled)
	assert.True(t, opts.CORS.Enabled)
	assert.Equal(t, []string{"https://app.example"}, opts.CORS.AllowOrigins)
	assert.Equal(t, time.Second, opts.ShutdownTimeout)
}

func TestNewOptionsRejectsBadValues(t *testing.T) {
	t.Parallel()

	_, err := NewOptions(WithAPIAddr("  "))
	require.Error(t, err)

	_, err = NewOptions(WithCORS())
	require.Error(t, err)

	_, err = NewOptions(WithShutdownTimeout(0))
	require.Error(t, err)
}

func TestNewDaemonValidatesInputs(t *testing.T) {
	t.Parallel()

	_, err := NewDaemon(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger cannot be nil")

	_, err = NewDaemon(hclog.NewNullLogger(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config loader cannot be nil")
}

func TestAPIDependenciesValidate(t *testing.T) {
	t.Parallel()

	manager, err := jobs.NewManager(nil, nil)
	require.NoError(t, err)
	reg := registry.New(nil, ogc.NewDiscoverer(nil), manager, nil)

	valid := APIDependencies{
		Logger:  hclog.NewNullLogger(),
		Invoker: reg,
		Store:   reg,
		Jobs:    manager,
		Addr:    "localhost:8090",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*APIDependencies)
	}{
		{"nil logger", func(d *APIDependencies) { d.Logger = nil }},
		{"nil invoker", func(d *APIDependencies) { d.Invoker = nil }},
		{"nil store", func(d *APIDependencies) { d.Store = nil }},
		{"nil jobs", func(d *APIDependencies) { d.Jobs = nil }},
		{"empty addr", func(d *APIDependencies) { d.Addr = " " }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			deps := valid
			tc.mutate(&deps)
			assert.Error(t, deps.Validate())
		})
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	logger := hclog.NewNullLogger()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", fmt.Errorf("%w: bad args", errors.ErrValidation), http.StatusBadRequest},
		{"bad request", fmt.Errorf("%w: nope", errors.ErrBadRequest), http.StatusBadRequest},
		{"operation not found", fmt.Errorf("%w: x", errors.ErrOperationNotFound), http.StatusNotFound},
		{"job not found", fmt.Errorf("%w: x", errors.ErrJobNotFound), http.StatusNotFound},
		{"server not found", fmt.Errorf("%w: x", errors.ErrServerNotFound), http.StatusNotFound},
		{"timeout", fmt.Errorf("%w: slow", errors.ErrTimeout), http.StatusGatewayTimeout},
		{"job failed", fmt.Errorf("%w: boom", errors.ErrJobFailed), http.StatusBadGateway},
		{"invocation", fmt.Errorf("%w: rejected", errors.ErrInvocation), http.StatusBadGateway},
		{"discovery", fmt.Errorf("%w: down", errors.ErrDiscovery), http.StatusBadGateway},
		{"schema", fmt.Errorf("%w: mangled", errors.ErrSchema), http.StatusBadGateway},
		{"http", fmt.Errorf("%w: 503", errors.ErrHTTP), http.StatusBadGateway},
		{"decode", fmt.Errorf("%w: not json", errors.ErrDecode), http.StatusBadGateway},
		{"transport", fmt.Errorf("%w: refused", errors.ErrTransport), http.StatusBadGateway},
		{"unknown", fmt.Errorf("mystery"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			statusErr := mapError(logger, tc.err)
			assert.Equal(t, tc.wantStatus, statusErr.GetStatus())
		})
	}
}
