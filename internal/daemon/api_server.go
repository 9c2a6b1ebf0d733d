package daemon

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hashicorp/go-hclog"

	"github.com/geoapi-labs/ogcd/internal/api"
	"github.com/geoapi-labs/ogcd/internal/cmd"
	"github.com/geoapi-labs/ogcd/internal/contracts"
	"github.com/geoapi-labs/ogcd/internal/errors"
)

// APIDependencies carries everything the REST facade needs.
type APIDependencies struct {
	Logger  hclog.Logger
	Invoker contracts.OperationInvoker
	Store   contracts.CapabilityStore
	Jobs    contracts.JobAccessor
	Addr    string
}

// Validate checks that all required dependencies are present.
func (d APIDependencies) Validate() error {
	if d.Logger == nil {
		return fmt.Errorf("logger cannot be nil")
	}
	if d.Invoker == nil {
		return fmt.Errorf("operation invoker cannot be nil")
	}
	if d.Store == nil {
		return fmt.Errorf("capability store cannot be nil")
	}
	if d.Jobs == nil {
		return fmt.Errorf("job accessor cannot be nil")
	}
	if strings.TrimSpace(d.Addr) == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	return nil
}

// APIServer manages the HTTP REST facade for the daemon.
// NewAPIServer should be used to create instances of APIServer.
type APIServer struct {
	logger          hclog.Logger
	invoker         contracts.OperationInvoker
	store           contracts.CapabilityStore
	jobs            contracts.JobAccessor
	addr            string
	cors            CORSConfig
	shutdownTimeout time.Duration
}

// NewAPIServer creates a new API server with the provided dependencies and options.
func NewAPIServer(deps APIDependencies, opt ...Option) (*APIServer, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for API server: %w", err)
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid API options: %w", err)
	}

	return &APIServer{
		logger:          deps.Logger.Named("api"),
		invoker:         deps.Invoker,
		store:           deps.Store,
		jobs:            deps.Jobs,
		addr:            deps.Addr,
		cors:            opts.CORS,
		shutdownTimeout: opts.ShutdownTimeout,
	}, nil
}

// Start starts the API server and blocks until the context is canceled or an
// error occurs.
func (a *APIServer) Start(ctx context.Context) error {
	mux := chi.NewMux()
	mux.Use(middleware.StripSlashes)

	if a.cors.Enabled {
		a.applyCORS(mux)
	}

	config := huma.DefaultConfig("ogcd docs", cmd.Version())
	router := humachi.New(mux, config)

	huma.NewErrorWithContext = errorHandler(a.logger)

	apiPathPrefix, err := url.JoinPath("/api", "v1")
	if err != nil {
		return err
	}

	v1 := huma.NewGroup(router, apiPathPrefix)
	api.RegisterHealthRoutes(v1, a.store, a.invoker, a.jobs, "/health")
	api.RegisterServerRoutes(v1, a.store, "/servers")
	api.RegisterOperationRoutes(v1, a.invoker, a.store, "/operations", "/servers")
	api.RegisterJobRoutes(v1, a.jobs, "/jobs")

	srv := &http.Server{
		Addr:    a.addr,
		Handler: mux,
	}
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("Starting API server", "address", a.addr, "prefix", apiPathPrefix)
		if err := srv.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()
		a.logger.Info("Shutting down API server...")
		_ = srv.Shutdown(shutdownCtx)
		a.logger.Info("Shutdown complete")
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// applyCORS applies CORS middleware to the router based on the configured options.
func (a *APIServer) applyCORS(mux *chi.Mux) {
	a.logger.Info("Enabling CORS", "origins", a.cors.AllowOrigins)

	corsOptions := cors.Options{
		AllowedOrigins:   a.cors.AllowOrigins,
		AllowedMethods:   a.cors.AllowMethods,
		AllowedHeaders:   a.cors.AllowedHeaders,
		ExposedHeaders:   a.cors.ExposedHeaders,
		AllowCredentials: a.cors.AllowCredentials,
		MaxAge:           int(a.cors.MaxAge.Seconds()),
	}

	for i, origin := range corsOptions.AllowedOrigins {
		if origin == "*" {
			corsOptions.AllowedOrigins = []string{"*"}
			corsOptions.AllowCredentials = false
			break
		}
		corsOptions.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	mux.Use(cors.Handler(corsOptions))
}

// mapError maps domain errors to HTTP status codes.
//
// Every sentinel in internal/errors needs an explicit case here; anything
// unmatched falls through to 500.
//
// Mapping guidelines:
//   - 400: client errors (bad arguments, invalid requests)
//   - 404: lookups that found nothing
//   - 502: the bridged OGC backend failed or rejected the request
//   - 504: a backend job did not finish within the wait budget
//   - 500: unexpected internal errors (default case)
func mapError(logger hclog.Logger, err error) huma.StatusError {
	switch {
	case stdErrors.Is(err, errors.ErrValidation):
		return huma.Error400BadRequest(err.Error())
	case stdErrors.Is(err, errors.ErrBadRequest):
		return huma.Error400BadRequest(err.Error())
	case stdErrors.Is(err, errors.ErrOperationNotFound):
		return huma.Error404NotFound(err.Error())
	case stdErrors.Is(err, errors.ErrJobNotFound):
		return huma.Error404NotFound(err.Error())
	case stdErrors.Is(err, errors.ErrServerNotFound):
		return huma.Error404NotFound(err.Error())
	case stdErrors.Is(err, errors.ErrTimeout):
		return huma.Error504GatewayTimeout(err.Error())
	case stdErrors.Is(err, errors.ErrJobFailed):
		logger.Error("Job failed", "error", err)
		return huma.Error502BadGateway("OGC backend job failed", err)
	case stdErrors.Is(err, errors.ErrInvocation):
		logger.Error("Invocation rejected", "error", err)
		return huma.Error502BadGateway("OGC backend rejected the request", err)
	case stdErrors.Is(err, errors.ErrDiscovery):
		logger.Error("Discovery failed", "error", err)
		return huma.Error502BadGateway("OGC server discovery failed", err)
	case stdErrors.Is(err, errors.ErrSchema):
		logger.Error("Schema translation failed", "error", err)
		return huma.Error502BadGateway("OGC process schema unusable", err)
	case stdErrors.Is(err, errors.ErrHTTP), stdErrors.Is(err, errors.ErrDecode), stdErrors.Is(err, errors.ErrTransport):
		logger.Error("Backend request failed", "error", err)
		return huma.Error502BadGateway("OGC server error", err)
	default:
		logger.Error("Unexpected error", "error", err)
		return huma.Error500InternalServerError("Internal server error", err)
	}
}

// errorHandler wraps error handling for the application when converting to API
// friendly errors.
func errorHandler(logger hclog.Logger) func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
	return func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		switch len(errs) {
		case 0:
			return huma.NewError(status, msg)
		case 1:
			return mapError(logger, errs[0])
		default:
			return mapError(logger, stdErrors.Join(errs...))
		}
	}
}
