package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/entireio/gitauthor/internal/authorshiplog"
	"github.com/entireio/gitauthor/internal/logging"
	"github.com/entireio/gitauthor/internal/virtualattr"
)

// Rebase implements spec §4.5's rebase pipeline: seed a virtual attribution
// from blame at originalHead, then walk newCommits in apply order,
// transforming the VA to each commit's tree and emitting a fresh authorship
// log per commit. An immutable snapshot of the seed VA is kept as a
// rescue-from-fallback source for the whole walk (spec §4.5, "Keep an
// immutable original_fallback for rescue").
func (r *Reconciler) Rebase(ctx context.Context, originalHead string, newCommits []string, pathspecs []string, ts time.Time) error {
	return r.rebaseLikePipeline(ctx, "rebase", originalHead, newCommits, pathspecs, ts)
}

// CherryPick implements spec §4.5's cherry-pick pipeline: identical to
// Rebase except the seed virtual attribution is built from blame at the
// last source commit, since cherry-picked patches are applied sequentially
// from that source rather than from a rebase's original branch tip.
func (r *Reconciler) CherryPick(ctx context.Context, lastSourceCommit string, newCommits []string, pathspecs []string, ts time.Time) error {
	return r.rebaseLikePipeline(ctx, "cherry-pick", lastSourceCommit, newCommits, pathspecs, ts)
}

func (r *Reconciler) rebaseLikePipeline(ctx context.Context, op, seedCommit string, newCommits []string, pathspecs []string, ts time.Time) error {
	ctx = logging.WithComponent(ctx, "reconcile")

	currentVA, err := virtualattr.FromBlame(ctx, r.Repo, seedCommit, pathspecs, ts)
	if err != nil {
		return fmt.Errorf("reconcile: %s: seeding from %s: %w", op, seedCommit, err)
	}
	// Kept for the lifetime of the walk: transformToFinalState never mutates
	// an existing VA, it only ever builds a new one, so this snapshot stays
	// valid as every subsequent commit is processed (spec §4.5).
	originalFallback := currentVA

	for _, commitSHA := range newCommits {
		commit, err := r.Repo.ResolveCommit(commitSHA)
		if err != nil {
			return fmt.Errorf("reconcile: %s: resolving %s: %w", op, commitSHA, err)
		}

		newTreeContents, err := readTreeContents(r.Repo, commit, pathspecs)
		if err != nil {
			return fmt.Errorf("reconcile: %s: %w", op, err)
		}

		currentVA, err = virtualattr.TransformToFinalState(r.Tracker, currentVA, newTreeContents, originalFallback, ts)
		if err != nil {
			return fmt.Errorf("reconcile: %s: transforming to %s: %w", op, commitSHA, err)
		}

		log := currentVA.ToAuthorshipLog()
		log.Metadata.BaseCommitSHA = commitSHA

		if err := authorshiplog.Save(r.Repo, commitSHA, log); err != nil {
			return fmt.Errorf("reconcile: %s: saving log for %s: %w", op, commitSHA, err)
		}
	}

	logging.Info(ctx, op+" reconciled", "seed", seedCommit, "commits", len(newCommits))
	return nil
}
