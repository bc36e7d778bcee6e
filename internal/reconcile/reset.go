package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/entireio/gitauthor/internal/logging"
	"github.com/entireio/gitauthor/internal/virtualattr"
)

// Reset implements spec §4.5's reset pipeline: merge the old head's
// working-log-derived attributions with the target's blame-derived
// attributions (favoring the old head, since its working log holds the
// most recent uncommitted state), against the current working directory,
// and reseed the target's working log with whatever remains uncommitted.
func (r *Reconciler) Reset(ctx context.Context, oldHead, target string, pathspecs []string, workingDirContents map[string]string, ts time.Time) error {
	ctx = logging.WithComponent(ctx, "reconcile")

	oldStore, err := r.store(oldHead)
	if err != nil {
		return fmt.Errorf("reconcile: reset: %w", err)
	}
	oldVA, err := virtualattr.FromWorkingLog(ctx, r.Repo, oldStore, oldHead, pathspecs, workingDirContents, ts)
	if err != nil {
		return fmt.Errorf("reconcile: reset: building working VA for %s: %w", oldHead, err)
	}

	targetVA, err := virtualattr.FromBlame(ctx, r.Repo, target, pathspecs, ts)
	if err != nil {
		return fmt.Errorf("reconcile: reset: blaming target %s: %w", target, err)
	}

	merged, err := virtualattr.MergeFavoringPrimary(r.Tracker, oldVA, targetVA, workingDirContents, ts)
	if err != nil {
		return fmt.Errorf("reconcile: reset: merging: %w", err)
	}

	_, seed := merged.Split(nil)

	targetStore, err := r.store(target)
	if err != nil {
		return fmt.Errorf("reconcile: reset: %w", err)
	}
	if err := targetStore.WriteInitialAttributions(seed.Files, seed.Prompts); err != nil {
		return fmt.Errorf("reconcile: reset: writing INITIAL for %s: %w", target, err)
	}

	if err := oldStore.Delete(); err != nil {
		return fmt.Errorf("reconcile: reset: deleting working log for %s: %w", oldHead, err)
	}

	logging.Info(ctx, "reset reconciled", "old_head", oldHead, "target", target)
	return nil
}

// ResetPathspecs resolves the file set a reset touches: userPathspecs if the
// caller (CLI) supplied one, otherwise every path that differs between
// target and oldHead.
func (r *Reconciler) ResetPathspecs(oldHead, target string, userPathspecs []string) ([]string, error) {
	if len(userPathspecs) > 0 {
		return userPathspecs, nil
	}
	oldCommit, err := r.Repo.ResolveCommit(oldHead)
	if err != nil {
		return nil, fmt.Errorf("reconcile: reset: resolving old head %s: %w", oldHead, err)
	}
	targetCommit, err := r.Repo.ResolveCommit(target)
	if err != nil {
		return nil, fmt.Errorf("reconcile: reset: resolving target %s: %w", target, err)
	}
	return r.Repo.ChangedPaths(targetCommit, oldCommit)
}
