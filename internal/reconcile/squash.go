package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/entireio/gitauthor/internal/authorshiplog"
	"github.com/entireio/gitauthor/internal/logging"
	"github.com/entireio/gitauthor/internal/virtualattr"
)

// SquashPreCommit implements spec §4.5's squash-merge pre-commit-staging
// pipeline: merge source and target branch attributions favoring the
// target, against the staged worktree, and seed the target's working log
// with the result. The actual squash commit is then handled by the normal
// PostCommit pipeline once it lands.
func (r *Reconciler) SquashPreCommit(ctx context.Context, sourceHead, targetHead string, pathspecs []string, stagedWorktree map[string]string, ts time.Time) error {
	ctx = logging.WithComponent(ctx, "reconcile")

	sourceVA, err := virtualattr.FromBlame(ctx, r.Repo, sourceHead, pathspecs, ts)
	if err != nil {
		return fmt.Errorf("reconcile: squash pre-commit: blaming source %s: %w", sourceHead, err)
	}
	targetVA, err := virtualattr.FromBlame(ctx, r.Repo, targetHead, pathspecs, ts)
	if err != nil {
		return fmt.Errorf("reconcile: squash pre-commit: blaming target %s: %w", targetHead, err)
	}

	merged, err := virtualattr.MergeFavoringPrimary(r.Tracker, targetVA, sourceVA, stagedWorktree, ts)
	if err != nil {
		return fmt.Errorf("reconcile: squash pre-commit: merging: %w", err)
	}

	_, seed := merged.Split(nil)

	store, err := r.store(targetHead)
	if err != nil {
		return fmt.Errorf("reconcile: squash pre-commit: %w", err)
	}
	if err := store.WriteInitialAttributions(seed.Files, seed.Prompts); err != nil {
		return fmt.Errorf("reconcile: squash pre-commit: writing INITIAL for %s: %w", targetHead, err)
	}

	logging.Info(ctx, "squash pre-commit reconciled", "source", sourceHead, "target", targetHead)
	return nil
}

// SquashAfterTheFact implements spec §4.5's alternative, after-the-fact
// squash path: reconstruct a new squash commit's authorship by matching its
// content line-for-line against the feature branch tip it was squashed
// from, via the same first-unused-occurrence rule Split uses for ordinary
// commits.
//
// The spec's "hanging commit" scaffolding exists to give VCS backends whose
// blame refuses to traverse non-ancestor history a traversal context; since
// go-git's Blame accepts any commit directly regardless of ancestry, that
// scaffolding is unnecessary here and is skipped (spec §9: "Implementations
// that can run blame against an arbitrary tree directly may skip this
// scaffolding").
func (r *Reconciler) SquashAfterTheFact(ctx context.Context, oldBranchTip, newCommitSHA string, pathspecs []string, ts time.Time) error {
	ctx = logging.WithComponent(ctx, "reconcile")

	oldVA, err := virtualattr.FromBlame(ctx, r.Repo, oldBranchTip, pathspecs, ts)
	if err != nil {
		return fmt.Errorf("reconcile: squash after-the-fact: blaming %s: %w", oldBranchTip, err)
	}

	newCommit, err := r.Repo.ResolveCommit(newCommitSHA)
	if err != nil {
		return fmt.Errorf("reconcile: squash after-the-fact: resolving %s: %w", newCommitSHA, err)
	}
	newContents, err := readTreeContents(r.Repo, newCommit, pathspecs)
	if err != nil {
		return fmt.Errorf("reconcile: squash after-the-fact: %w", err)
	}

	log, _ := oldVA.Split(newContents)
	log.Metadata.BaseCommitSHA = newCommitSHA

	if err := authorshiplog.Save(r.Repo, newCommitSHA, log); err != nil {
		return fmt.Errorf("reconcile: squash after-the-fact: %w", err)
	}

	logging.Info(ctx, "squash after-the-fact reconciled", "old_branch_tip", oldBranchTip, "commit", newCommitSHA)
	return nil
}
