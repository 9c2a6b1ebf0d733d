// Package daemon wires configuration, discovery, the operation registry and
// the job manager into the two serving surfaces: the MCP stdio server and the
// optional REST facade.
package daemon

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/geoapi-labs/ogcd/internal/config"
	"github.com/geoapi-labs/ogcd/internal/flags"
	"github.com/geoapi-labs/ogcd/internal/jobs"
	"github.com/geoapi-labs/ogcd/internal/ogc"
	"github.com/geoapi-labs/ogcd/internal/registry"
	"github.com/geoapi-labs/ogcd/internal/resources"
	"github.com/geoapi-labs/ogcd/internal/transport"
)

type Daemon struct {
	logger    hclog.Logger
	registry  *registry.Registry
	jobs      *jobs.Manager
	resources *resources.Provider
	apiServer *APIServer
	servers   []config.ServerEntry
	opts      Options

	mu           sync.Mutex
	dynamicTools map[string]struct{}
	resourceURIs map[string]struct{}
}

// NewDaemon loads configuration and assembles all daemon components. The
// configuration path comes from the global --config-file flag and its
// environment fallback.
func NewDaemon(logger hclog.Logger, cfgLoader config.Loader, opt ...Option) (*Daemon, error) {
	if logger == nil || reflect.ValueOf(logger).IsNil() {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfgLoader == nil || reflect.ValueOf(cfgLoader).IsNil() {
		return nil, fmt.Errorf("config loader cannot be nil")
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid daemon options: %w", err)
	}

	cfg, err := cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Discovery().Timeout.Duration
	clientFor := func(serverURL string) (*transport.Client, error) {
		return transport.New(serverURL, transport.WithTimeout(timeout), transport.WithLogger(logger))
	}

	jobSettings := cfg.Jobs()
	jobManager, err := jobs.NewManager(logger, clientFor,
		jobs.WithPollInterval(jobSettings.PollInterval.Duration),
		jobs.WithMaxWait(jobSettings.MaxWait.Duration),
	)
	if err != nil {
		return nil, err
	}

	discoverer := ogc.NewDiscoverer(logger, transport.WithTimeout(timeout))
	reg := registry.New(logger, discoverer, jobManager, clientFor)

	d := &Daemon{
		logger:       logger.Named("daemon"),
		registry:     reg,
		jobs:         jobManager,
		resources:    resources.NewProvider(reg),
		servers:      cfg.ListServers(),
		opts:         opts,
		dynamicTools: map[string]struct{}{},
		resourceURIs: map[string]struct{}{},
	}

	if opts.APIEnabled {
		addr := opts.APIAddr
		if addr == "" {
			addr = cfg.API().Addr
		}
		apiServer, err := NewAPIServer(APIDependencies{
			Logger:  logger,
			Invoker: reg,
			Store:   reg,
			Jobs:    jobManager,
			Addr:    addr,
		}, opt...)
		if err != nil {
			return nil, fmt.Errorf("failed to create daemon API server: %w", err)
		}
		d.apiServer = apiServer
	}

	return d, nil
}

// StartAndManage discovers every configured server, then serves MCP over
// stdio and the REST facade until the context is canceled. Per-server refresh
// tickers re-run discovery at the configured interval.
func (d *Daemon) StartAndManage(ctx context.Context) error {
	d.discoverConfigured(ctx)

	mcpServer := d.buildMCPServer()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		d.logger.Info("Serving MCP over stdio")
		return server.NewStdioServer(mcpServer).Listen(ctx, os.Stdin, os.Stdout)
	})

	if d.apiServer != nil {
		group.Go(func() error {
			return d.apiServer.Start(ctx)
		})
	}

	for _, entry := range d.servers {
		if entry.Refresh.Duration <= 0 {
			continue
		}
		group.Go(func() error {
			d.refreshLoop(ctx, entry)
			return nil
		})
	}

	err := group.Wait()
	if err != nil && ctx.Err() != nil {
		// A canceled context is an orderly shutdown, not a failure.
		return nil
	}
	return err
}

// discoverConfigured runs the initial discovery cycle for every configured
// server. A server that cannot be discovered is logged and skipped; it will
// be retried by its refresh ticker if one is configured.
func (d *Daemon) discoverConfigured(ctx context.Context) {
	for _, entry := range d.servers {
		snap, err := d.registry.DiscoverAndRefresh(ctx, entry.URL)
		if err != nil {
			d.logger.Error("initial discovery failed", "server", entry.Name, "url", entry.URL, "error", err)
			continue
		}
		d.logger.Info("discovered server",
			"server", entry.Name,
			"url", entry.URL,
			"capabilities", snap.Capabilities,
			"collections", len(snap.Collections),
			"processes", len(snap.Processes),
		)
	}
}

// refreshLoop re-discovers one server on its configured interval.
func (d *Daemon) refreshLoop(ctx context.Context, entry config.ServerEntry) {
	ticker := time.NewTicker(entry.Refresh.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.registry.DiscoverAndRefresh(ctx, entry.URL); err != nil {
				// The previously published set stays live on failure.
				d.logger.Warn("periodic re-discovery failed", "server", entry.Name, "error", err)
			}
		}
	}
}

// Registry exposes the operation registry, for commands that embed a daemon.
func (d *Daemon) Registry() *registry.Registry {
	return d.registry
}
