package cli

import (
	"encoding/json"
	"fmt"

	"github.com/entireio/gitauthor/internal/statsoverlay"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var ref string
	var since string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats [path...]",
		Short: "Report AI/human line counts, or their delta between two refs",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, _, err := openRepo()
			if err != nil {
				return err
			}

			pathspecs := args
			if len(pathspecs) == 0 {
				pathspecs, err = allTrackedPaths(repo, ref)
				if err != nil {
					return err
				}
			}
			args = pathspecs

			if since != "" {
				delta, err := statsoverlay.Since(cmd.Context(), repo, since, ref, args)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd, delta)
				}
				cmd.Printf("human: %+d\n", delta.HumanDelta)
				cmd.Printf("ai:    %+d\n", delta.AgentDelta)
				for _, author := range delta.SortedAuthors() {
					if author == "" {
						continue
					}
					cmd.Printf("  %s: %+d\n", author, delta.ByAuthorDelta[author])
				}
				return nil
			}

			stats, err := statsoverlay.Compute(cmd.Context(), repo, ref, args)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, stats)
			}

			cmd.Printf("%s: %d human, %d ai\n", stats.Ref, stats.HumanLines, stats.AgentLines)
			for _, a := range stats.ByAuthor {
				label := "human"
				if a.AuthorHash != "" {
					label = a.AuthorHash
				}
				cmd.Printf("  %-10s %d\n", label, a.Lines)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "HEAD", "commit or ref to compute stats for")
	cmd.Flags().StringVar(&since, "since", "", "compare stats against this ref instead of reporting a single snapshot")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of plain text")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
