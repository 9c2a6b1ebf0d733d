package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	internalcmd "github.com/geoapi-labs/ogcd/internal/cmd"
	cmdopts "github.com/geoapi-labs/ogcd/internal/cmd/options"
	"github.com/geoapi-labs/ogcd/internal/ogc"
	"github.com/geoapi-labs/ogcd/internal/transport"
)

// DiscoverCmd should be used to represent the 'discover' command.
type DiscoverCmd struct {
	*internalcmd.BaseCmd
	Timeout time.Duration
}

// NewDiscoverCmd creates a newly configured (Cobra) command.
func NewDiscoverCmd(baseCmd *internalcmd.BaseCmd, _ ...cmdopts.CmdOption) (*cobra.Command, error) {
	c := &DiscoverCmd{
		BaseCmd: baseCmd,
	}

	cobraCommand := &cobra.Command{
		Use:   "discover <server-url>",
		Short: "Probes an OGC API server and prints its capabilities.",
		Long:  c.longDescription(),
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}

	cobraCommand.Flags().DurationVar(
		&c.Timeout,
		"timeout",
		30*time.Second,
		"Timeout for each request to the server",
	)

	return cobraCommand, nil
}

// longDescription returns the long version of the command description.
func (c *DiscoverCmd) longDescription() string {
	return `Probes an OGC API server's landing page, conformance declaration, collections
and processes, then prints a capability summary. Useful to check a server
before adding it to the project.`
}

// run is configured (via NewDiscoverCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *DiscoverCmd) run(cmd *cobra.Command, args []string) error {
	serverURL := strings.TrimSpace(args[0])
	if serverURL == "" {
		return fmt.Errorf("server URL is required and cannot be empty")
	}

	logger := c.Logger()

	discoverer := ogc.NewDiscoverer(logger, transport.WithTimeout(c.Timeout))

	ctx, cancel := context.WithTimeout(cmd.Context(), c.Timeout)
	defer cancel()

	snap, err := discoverer.Discover(ctx, serverURL)
	if err != nil {
		return fmt.Errorf("discovery failed for %s: %w", serverURL, err)
	}

	out := cmd.OutOrStdout()
	title := snap.Title
	if title == "" {
		title = snap.BaseURL
	}
	fmt.Fprintf(out, "Server: %s\n", title)
	fmt.Fprintf(out, "URL: %s\n", snap.BaseURL)
	fmt.Fprintf(out, "Capabilities: %s\n", strings.Join(snap.Capabilities, ", "))

	if len(snap.Collections) > 0 {
		fmt.Fprintf(out, "\nCollections (%d):\n", len(snap.Collections))
		for _, col := range snap.Collections {
			fmt.Fprintf(out, "  - %s: %s\n", col.ID, col.Title)
		}
	}

	if len(snap.Processes) > 0 {
		fmt.Fprintf(out, "\nProcesses (%d):\n", len(snap.Processes))
		for _, proc := range snap.Processes {
			fmt.Fprintf(out, "  - %s: %s\n", proc.ID, proc.Title)
		}
	}

	if len(snap.Partial) > 0 {
		fmt.Fprintf(out, "\nUnavailable facets: %s\n", strings.Join(snap.Partial, ", "))
	}

	return nil
}
