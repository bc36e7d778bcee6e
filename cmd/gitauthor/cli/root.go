// Package cli implements the gitauthor command surface: blame and stats
// reporting over the authorship log, checkpoint management, and the git
// hook entry points that drive the reconciler.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// NewRootCmd assembles the gitauthor command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gitauthor",
		Short:         "Per-line authorship attribution for AI and human code",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newBlameCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newCheckpointCmd())
	cmd.AddCommand(newHookCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("gitauthor " + Version)
		},
	}
}
