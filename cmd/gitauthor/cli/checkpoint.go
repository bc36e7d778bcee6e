package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/entireio/gitauthor/internal/attribution"
	"github.com/entireio/gitauthor/internal/authorshiplog"
	"github.com/entireio/gitauthor/internal/prompt"
	"github.com/entireio/gitauthor/internal/workinglog"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newCheckpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Record or restore working-log checkpoints",
	}
	cmd.AddCommand(newCheckpointAppendCmd())
	cmd.AddCommand(newCheckpointRestoreCmd())
	return cmd
}

// checkpointAppendInput is the JSON body read from stdin: one file's line
// attributions as of this moment, plus the agent identity that produced
// them. Mirrors the hook JSON the teacher's agent adapters parse from
// stdin, scoped down to what a checkpoint needs (spec §3, Checkpoint).
type checkpointAppendInput struct {
	Tool    string                                    `json:"tool"`
	Session string                                    `json:"session_id"`
	Model   string                                    `json:"model"`
	Kind    string                                    `json:"kind"`
	Entries map[string][]attribution.LineAttribution `json:"entries"`
}

func newCheckpointAppendCmd() *cobra.Command {
	var baseCommit string

	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append a checkpoint to the working log for base-commit, reading JSON from stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if baseCommit == "" {
				return fmt.Errorf("checkpoint append: --base is required")
			}

			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("checkpoint append: reading stdin: %w", err)
			}

			var input checkpointAppendInput
			if err := json.Unmarshal(data, &input); err != nil {
				return fmt.Errorf("checkpoint append: parsing stdin: %w", err)
			}

			kind := workinglog.KindHuman
			if input.Kind == string(workinglog.KindAiAgent) {
				kind = workinglog.KindAiAgent
			}

			var agentID *prompt.AgentID
			if kind == workinglog.KindAiAgent {
				session := input.Session
				if session == "" {
					session = uuid.NewString()
				}
				agentID = &prompt.AgentID{Tool: input.Tool, SessionID: session, Model: input.Model}
			}

			_, repoRoot, err := openRepo()
			if err != nil {
				return err
			}
			store, err := workinglog.Open(repoRoot, baseCommit)
			if err != nil {
				return err
			}

			author := localGitUser()
			if kind == workinglog.KindAiAgent {
				author = agentID.Hash()
			}

			cp := workinglog.Checkpoint{
				BaseCommit: baseCommit,
				Author:     author,
				Kind:       kind,
				Ts:         time.Now(),
				AgentID:    agentID,
				Entries:    input.Entries,
			}
			if err := store.AppendCheckpoint(cp); err != nil {
				return fmt.Errorf("checkpoint append: %w", err)
			}

			cmd.Printf("appended checkpoint for %s\n", baseCommit)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseCommit, "base", "", "base commit SHA this checkpoint is recorded against")
	return cmd
}

// newCheckpointRestoreCmd implements the `restore_authorship` supplement:
// re-read a commit's persisted authorship log and re-seed a fresh working
// log from it, for recovering local state after a force-push.
func newCheckpointRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <commit>",
		Short: "Re-seed the working log for a commit from its persisted authorship log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			commitSHA := args[0]

			repo, repoRoot, err := openRepo()
			if err != nil {
				return err
			}

			resolved, err := repo.ResolveCommit(commitSHA)
			if err != nil {
				return fmt.Errorf("checkpoint restore: %w", err)
			}

			log, ok, err := authorshiplog.Load(repo, resolved.Hash.String())
			if err != nil {
				return fmt.Errorf("checkpoint restore: %w", err)
			}
			if !ok {
				return fmt.Errorf("checkpoint restore: no authorship log attached to %s", commitSHA)
			}

			files := make(map[string][]attribution.LineAttribution, len(log.Attestations))
			for _, att := range log.Attestations {
				var lines []attribution.LineAttribution
				for _, entry := range att.Entries {
					for _, r := range entry.LineRanges {
						lines = append(lines, attribution.LineAttribution{
							StartLine: r.Start,
							EndLine:   r.End,
							AuthorID:  entry.Hash,
						})
					}
				}
				files[att.FilePath] = lines
			}

			store, err := workinglog.Open(repoRoot, resolved.Hash.String())
			if err != nil {
				return err
			}
			if err := store.WriteInitialAttributions(files, log.Metadata.Prompts); err != nil {
				return fmt.Errorf("checkpoint restore: %w", err)
			}

			cmd.Printf("restored working log for %s from its authorship log\n", resolved.Hash.String())
			return nil
		},
	}
}
