package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	internalcmd "github.com/geoapi-labs/ogcd/internal/cmd"
	cmdopts "github.com/geoapi-labs/ogcd/internal/cmd/options"
	"github.com/geoapi-labs/ogcd/internal/config"
	"github.com/geoapi-labs/ogcd/internal/flags"
)

// AddCmd should be used to represent the 'add' command.
type AddCmd struct {
	*internalcmd.BaseCmd
	Refresh   time.Duration
	cfgLoader config.Loader
}

// NewAddCmd creates a newly configured (Cobra) command.
func NewAddCmd(baseCmd *internalcmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &AddCmd{
		BaseCmd:   baseCmd,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "add <server-name> <server-url>",
		Short: "Adds an OGC API server to the project.",
		Long:  c.longDescription(),
		Args:  cobra.ExactArgs(2),
		RunE:  c.run,
	}

	cobraCommand.Flags().DurationVar(
		&c.Refresh,
		"refresh",
		0,
		"Optional, re-discovery interval for this server (e.g. 15m); zero disables periodic re-discovery",
	)

	return cobraCommand, nil
}

// longDescription returns the long version of the command description.
func (c *AddCmd) longDescription() string {
	return `Adds an OGC API server to the project config file.
The URL must point at the server's landing page, e.g. https://demo.pygeoapi.io/master.
The daemon discovers the server's collections and processes on startup.`
}

// run is configured (via NewAddCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *AddCmd) run(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if name == "" {
		return fmt.Errorf("server name is required and cannot be empty")
	}
	serverURL := strings.TrimSpace(args[1])
	if serverURL == "" {
		return fmt.Errorf("server URL is required and cannot be empty")
	}

	logger := c.Logger()

	cfg, err := c.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	entry := config.ServerEntry{
		Name:    name,
		URL:     serverURL,
		Refresh: config.Duration{Duration: c.Refresh},
	}
	if err := cfg.AddServer(entry); err != nil {
		return err
	}

	logger.Debug("Server added", "name", name, "url", serverURL, "refresh", c.Refresh)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ Added server '%s' (%s)\n", name, serverURL)

	return err
}
