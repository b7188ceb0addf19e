// bridged runs the EVM settlement bridge: it applies native submissions, produces EVM blocks
// and exposes metrics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spacemeshos/go-evmbridge/cmd"
	"github.com/spacemeshos/go-evmbridge/config"
)

var (
	version string
	commit  string
	branch  string
)

func main() {
	cmd.Version = version
	cmd.Commit = commit
	cmd.Branch = branch
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bridged",
		Short:         "EVM settlement bridge node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	defaults := config.DefaultConfig()
	cmd.AddFlags(root, &defaults)
	root.AddCommand(newRunCmd(), newAddressCmd(), newCheckpointCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, _ []string) {
			fmt.Fprintf(c.OutOrStdout(), "%s+%s+%s\n", cmd.Version, cmd.Branch, cmd.Commit)
		},
	}
}
