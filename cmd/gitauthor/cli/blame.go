package cli

import (
	"fmt"

	"github.com/entireio/gitauthor/internal/statsoverlay"
	"github.com/spf13/cobra"
)

func newBlameCmd() *cobra.Command {
	var ref string

	cmd := &cobra.Command{
		Use:   "blame <path>...",
		Short: "Show per-line human/AI attribution for files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, _, err := openRepo()
			if err != nil {
				return err
			}

			overlays, err := statsoverlay.Overlay(cmd.Context(), repo, ref, args)
			if err != nil {
				return err
			}

			for _, fo := range overlays {
				if fo.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", fo.Path, fo.Err)
					continue
				}
				cmd.Printf("%s\n", fo.Path)
				for _, lc := range fo.Lines {
					who := "human"
					if !lc.Human {
						who = lc.AgentHash
					}
					cmd.Printf("  %5d  %s\n", lc.Line, who)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "HEAD", "commit or ref to blame against")
	return cmd
}
