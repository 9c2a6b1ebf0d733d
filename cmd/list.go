package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	internalcmd "github.com/geoapi-labs/ogcd/internal/cmd"
	cmdopts "github.com/geoapi-labs/ogcd/internal/cmd/options"
	"github.com/geoapi-labs/ogcd/internal/config"
	"github.com/geoapi-labs/ogcd/internal/flags"
)

// ListCmd should be used to represent the 'list' command.
type ListCmd struct {
	*internalcmd.BaseCmd
	cfgLoader config.Loader
}

// NewListCmd creates a newly configured (Cobra) command.
func NewListCmd(baseCmd *internalcmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &ListCmd{
		BaseCmd:   baseCmd,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "list",
		Short: "Lists the OGC API servers configured in the project.",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}

	return cobraCommand, nil
}

// run is configured (via NewListCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *ListCmd) run(cmd *cobra.Command, _ []string) error {
	cfg, err := c.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	servers := cfg.ListServers()
	if len(servers) == 0 {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "No servers configured, use 'ogcd add' to add one.")
		return err
	}

	for _, entry := range servers {
		line := fmt.Sprintf("%s\t%s", entry.Name, entry.URL)
		if entry.Refresh.Duration > 0 {
			line += fmt.Sprintf("\t(refresh: %s)", entry.Refresh.Duration)
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return err
		}
	}

	return nil
}
