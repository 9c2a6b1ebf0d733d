package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	internalcmd "github.com/geoapi-labs/ogcd/internal/cmd"
	cmdopts "github.com/geoapi-labs/ogcd/internal/cmd/options"
	"github.com/geoapi-labs/ogcd/internal/config"
	"github.com/geoapi-labs/ogcd/internal/daemon"
)

// DaemonCmd should be used to represent the 'daemon' command.
type DaemonCmd struct {
	*internalcmd.BaseCmd
	Addr        string
	NoAPI       bool
	CORSOrigins []string
	cfgLoader   config.Loader
}

// NewDaemonCmd creates a newly configured (Cobra) command.
func NewDaemonCmd(baseCmd *internalcmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &DaemonCmd{
		BaseCmd:   baseCmd,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "daemon [--addr] [--no-api]",
		Short: "Launches an `ogcd` daemon instance",
		Long: "Launches an `ogcd` daemon instance, which discovers the configured OGC API servers,\n" +
			"serves their operations as MCP tools over stdio and exposes an HTTP API for inspection",
		RunE: c.run,
	}

	cobraCommand.Flags().StringVar(
		&c.Addr,
		"addr",
		"",
		"Address for the HTTP API to bind; defaults to the configured [api] addr",
	)

	cobraCommand.Flags().BoolVar(
		&c.NoAPI,
		"no-api",
		false,
		"Disable the HTTP API, serving MCP over stdio only",
	)

	cobraCommand.Flags().StringArrayVar(
		&c.CORSOrigins,
		"cors-origin",
		nil,
		"Enable CORS on the HTTP API for the given origin (can be repeated)",
	)

	cobraCommand.MarkFlagsMutuallyExclusive("no-api", "addr")

	return cobraCommand, nil
}

// run is configured (via NewDaemonCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *DaemonCmd) run(_ *cobra.Command, _ []string) error {
	logger := c.Logger()

	var daemonOpts []daemon.Option
	if addr := strings.TrimSpace(c.Addr); addr != "" {
		daemonOpts = append(daemonOpts, daemon.WithAPIAddr(addr))
	}
	if c.NoAPI {
		daemonOpts = append(daemonOpts, daemon.WithAPIDisabled())
	}
	if len(c.CORSOrigins) > 0 {
		daemonOpts = append(daemonOpts, daemon.WithCORS(c.CORSOrigins...))
	}

	d, err := daemon.NewDaemon(logger, c.cfgLoader, daemonOpts...)
	if err != nil {
		return fmt.Errorf("failed to create ogcd daemon instance: %w", err)
	}

	// Create the signal handling context for the application.
	daemonCtx, daemonCtxCancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer daemonCtxCancel()

	runErr := make(chan error, 1)
	go func() {
		if err := d.StartAndManage(daemonCtx); err != nil && !errors.Is(err, context.Canceled) {
			runErr <- err
		}
		close(runErr)
	}()

	select {
	case <-daemonCtx.Done():
		logger.Info("Shutting down daemon")
		return <-runErr // Wait for cleanup and deferred logging.
	case err := <-runErr:
		if err != nil {
			logger.Error("daemon exited with error", "error", err)
		}
		return err
	}
}
