package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/entireio/gitauthor/internal/attribution"
	"github.com/entireio/gitauthor/internal/gitutil"
	"github.com/entireio/gitauthor/internal/reconcile"
	"github.com/spf13/cobra"
)

// newHookCmd groups the git hook entry points that drive the reconciler.
// Each subcommand is meant to be installed as the corresponding git hook
// script (spec §4.5: "the reconciler is invoked by the host's hook
// integration ... post-commit, amend, rebase, cherry-pick, squash, reset").
func newHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Git hook entry points that invoke the reconciler",
	}
	cmd.AddCommand(newHookPostCommitCmd())
	cmd.AddCommand(newHookPostRewriteCmd())
	cmd.AddCommand(newHookPostCheckoutCmd())
	cmd.AddCommand(newHookPreCommitCmd())
	return cmd
}

func newReconciler(repo *gitutil.Repo, repoRoot string) *reconcile.Reconciler {
	return reconcile.New(repo, repoRoot, attribution.DefaultConfig())
}

// newHookPostCommitCmd implements the post-commit hook: no arguments, HEAD
// is the new commit, HEAD^ (if any) is its parent.
func newHookPostCommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post-commit",
		Short: "Reconcile the working log into HEAD's authorship log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, repoRoot, err := openRepo()
			if err != nil {
				return err
			}
			head, err := repo.ResolveCommit("HEAD")
			if err != nil {
				return fmt.Errorf("hook post-commit: %w", err)
			}

			var parentSHA string
			if len(head.ParentHashes) > 0 {
				parentSHA = head.ParentHashes[0].String()
			}

			return newReconciler(repo, repoRoot).PostCommit(cmd.Context(), parentSHA, head.Hash.String(), time.Now())
		},
	}
}

// newHookPostRewriteCmd implements the post-rewrite hook: git invokes it
// with the rewrite kind ("amend" or "rebase") as its first argument and
// feeds "<old-sha> <new-sha>[ <extra-info>]" pairs on stdin, one per
// rewritten commit, in application order.
func newHookPostRewriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post-rewrite <amend|rebase>",
		Short: "Reconcile authorship logs across an amend or rebase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]

			repo, repoRoot, err := openRepo()
			if err != nil {
				return err
			}
			r := newReconciler(repo, repoRoot)
			ts := time.Now()

			var oldShas, newShas []string
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				fields := strings.Fields(scanner.Text())
				if len(fields) < 2 {
					continue
				}
				oldShas = append(oldShas, fields[0])
				newShas = append(newShas, fields[1])
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("hook post-rewrite: reading stdin: %w", err)
			}
			if len(newShas) == 0 {
				return nil
			}

			if kind == "amend" {
				for i := range oldShas {
					if err := r.Amend(cmd.Context(), oldShas[i], newShas[i], ts); err != nil {
						return fmt.Errorf("hook post-rewrite: %w", err)
					}
				}
				return nil
			}

			// rebase: oldShas[0] is the tip the new commits were rebased onto.
			originalHead := oldShas[0]
			return r.Rebase(cmd.Context(), originalHead, newShas, allPathspecsFromRewrite(repo, oldShas, newShas), ts)
		},
	}
}

// allPathspecsFromRewrite collects every path touched across the rewritten
// commit set, since post-rewrite gives us the commit list but not a single
// pathspec scope the way post-commit's parent/child pair does.
func allPathspecsFromRewrite(repo *gitutil.Repo, _, newShas []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, newSHA := range newShas {
		newCommit, err := repo.ResolveCommit(newSHA)
		if err != nil {
			continue
		}
		parent := newCommit
		if len(newCommit.ParentHashes) > 0 {
			if p, err := repo.ResolveCommit(newCommit.ParentHashes[0].String()); err == nil {
				parent = p
			}
		}
		paths, err := repo.ChangedPaths(parent, newCommit)
		if err != nil {
			continue
		}
		for _, p := range paths {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				out = append(out, p)
			}
		}
	}
	return out
}

// newHookPostCheckoutCmd implements the post-checkout hook: git passes
// "<prev-head> <new-head> <is-branch-checkout>". A file-level checkout
// (is-branch-checkout == 0) never touches HEAD and needs no reconciliation.
func newHookPostCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post-checkout <prev-head> <new-head> <is-branch-checkout>",
		Short: "Reseed the working log's authorship state after a branch checkout",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			prevHead, newHead, isBranch := args[0], args[1], args[2]
			if isBranch != "1" {
				return nil
			}
			if prevHead == newHead {
				return nil
			}

			repo, repoRoot, err := openRepo()
			if err != nil {
				return err
			}

			pathspecs, err := newReconciler(repo, repoRoot).ResetPathspecs(prevHead, newHead, nil)
			if err != nil {
				return fmt.Errorf("hook post-checkout: %w", err)
			}
			if len(pathspecs) == 0 {
				return nil
			}

			workingDir, err := readWorkingTree(repoRoot, pathspecs)
			if err != nil {
				return fmt.Errorf("hook post-checkout: %w", err)
			}

			return newReconciler(repo, repoRoot).Reset(cmd.Context(), prevHead, newHead, pathspecs, workingDir, time.Now())
		},
	}
}

// newHookPreCommitCmd implements the pre-commit hook. Its only job under
// this spec is the squash-merge pre-commit-staging path (spec §4.5): when a
// merge is in progress with --squash, merge the source and target branch
// attributions against the staged worktree before the squash commit lands.
// A plain commit has nothing to do here; post-commit handles it.
func newHookPreCommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pre-commit",
		Short: "Reconcile a pending squash merge's attributions before the commit lands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, repoRoot, err := openRepo()
			if err != nil {
				return err
			}

			squashHead, ok := readSquashMsgHead(repoRoot)
			if !ok {
				return nil
			}

			head, err := repo.ResolveCommit("HEAD")
			if err != nil {
				return fmt.Errorf("hook pre-commit: %w", err)
			}
			source, err := repo.ResolveCommit(squashHead)
			if err != nil {
				return fmt.Errorf("hook pre-commit: resolving squash source %s: %w", squashHead, err)
			}

			pathspecs, err := repo.ChangedPaths(head, source)
			if err != nil {
				return fmt.Errorf("hook pre-commit: %w", err)
			}
			if len(pathspecs) == 0 {
				return nil
			}

			staged, err := readWorkingTree(repoRoot, pathspecs)
			if err != nil {
				return fmt.Errorf("hook pre-commit: %w", err)
			}

			return newReconciler(repo, repoRoot).SquashPreCommit(cmd.Context(), squashHead, head.Hash.String(), pathspecs, staged, time.Now())
		},
	}
}

// readSquashMsgHead reads .git/SQUASH_MSG's presence as the signal that a
// `git merge --squash` is in progress, and .git/MERGE_HEAD for the source
// tip being merged in.
func readSquashMsgHead(repoRoot string) (string, bool) {
	if _, err := os.Stat(repoRoot + "/.git/SQUASH_MSG"); err != nil {
		return "", false
	}
	data, err := os.ReadFile(repoRoot + "/.git/MERGE_HEAD")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

func readWorkingTree(repoRoot string, pathspecs []string) (map[string]string, error) {
	out := make(map[string]string, len(pathspecs))
	for _, p := range pathspecs {
		data, err := os.ReadFile(repoRoot + "/" + p)
		if err != nil {
			if os.IsNotExist(err) {
				out[p] = ""
				continue
			}
			return nil, err
		}
		out[p] = string(data)
	}
	return out, nil
}
