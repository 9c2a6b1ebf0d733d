// Package cmd implements the ogcd command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	internalcmd "github.com/geoapi-labs/ogcd/internal/cmd"
	cmdopts "github.com/geoapi-labs/ogcd/internal/cmd/options"
	"github.com/geoapi-labs/ogcd/internal/flags"
)

type RootCmd struct {
	*internalcmd.BaseCmd
}

// Execute builds the root command and runs it.
func Execute() error {
	rootCmd, err := NewRootCmd(&internalcmd.BaseCmd{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error building root command: %s\n", err)
		return err
	}

	return rootCmd.Execute()
}

// NewRootCmd creates the root Cobra command with all subcommands attached.
func NewRootCmd(baseCmd *internalcmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	c := &RootCmd{
		BaseCmd: baseCmd,
	}

	rootCmd := &cobra.Command{
		Use:          "ogcd <command> [args]",
		Short:        "'ogcd' bridges OGC API servers into the Model Context Protocol.",
		Long:         c.longDescription(),
		SilenceUsage: true,
		Version:      internalcmd.Version(),
	}

	// Global flags
	flags.InitFlags(rootCmd.PersistentFlags())

	commands := []func(*internalcmd.BaseCmd, ...cmdopts.CmdOption) (*cobra.Command, error){
		NewInitCmd,
		NewAddCmd,
		NewRemoveCmd,
		NewListCmd,
		NewDiscoverCmd,
		NewDaemonCmd,
	}
	for _, newCmd := range commands {
		subCmd, err := newCmd(baseCmd, opt...)
		if err != nil {
			return nil, err
		}
		rootCmd.AddCommand(subCmd)
	}

	return rootCmd, nil
}

func (c *RootCmd) longDescription() string {
	return `The 'ogcd' CLI manages a project of OGC API servers (Features, Processes,
Records, EDR) and exposes their capabilities as Model Context Protocol tools,
resources and prompts over stdio, with an optional HTTP API for inspection.`
}
