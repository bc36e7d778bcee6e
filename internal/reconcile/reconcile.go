// Package reconcile implements the history-rewrite reconciler: the
// orchestrator that builds virtual attributions, transforms them across a
// history event, and emits new authorship logs for post-commit, amend,
// rebase, cherry-pick, squash, and reset (spec §4.5).
//
// Every operation here reduces to the same pipeline: load the relevant
// virtual attributions, transform or merge them, split the result into
// "now committed" and "still uncommitted", and emit the authorship log plus
// the next working log's INITIAL seed. Operations are all-or-nothing per
// commit (spec §7): a cancelled or failed reconciler leaves the prior
// working log intact and writes no partial authorship log.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/entireio/gitauthor/internal/attribution"
	"github.com/entireio/gitauthor/internal/authorshiplog"
	"github.com/entireio/gitauthor/internal/gitutil"
	"github.com/entireio/gitauthor/internal/logging"
	"github.com/entireio/gitauthor/internal/virtualattr"
	"github.com/entireio/gitauthor/internal/workinglog"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ZeroCommit is the working-log key used for a commit with no parent (a
// repository's root commit), mirroring git's own convention for "no
// commit here" in hook argument lists.
const ZeroCommit = "0000000000000000000000000000000000000000"

// Reconciler drives every history-rewrite pipeline against one repository.
// It holds no per-operation state; a single Reconciler is reused across
// every hook invocation in the process lifetime.
type Reconciler struct {
	Repo     *gitutil.Repo
	RepoRoot string
	Tracker  *attribution.Tracker
}

// New returns a Reconciler for repo, rooted at repoRoot, using cfg for the
// attribution tracker's move-detection and rescue thresholds.
func New(repo *gitutil.Repo, repoRoot string, cfg attribution.Config) *Reconciler {
	return &Reconciler{Repo: repo, RepoRoot: repoRoot, Tracker: attribution.New(cfg)}
}

func (r *Reconciler) store(baseCommit string) (*workinglog.Store, error) {
	return workinglog.Open(r.RepoRoot, baseCommit)
}

// readTreeContents reads every path in pathspecs from commit's tree,
// mapping a missing path to the empty string (transform_to_final_state and
// Split both treat "" as "not present at this stage", spec §4.4/§4.5).
func readTreeContents(repo *gitutil.Repo, commit *object.Commit, pathspecs []string) (map[string]string, error) {
	out := make(map[string]string, len(pathspecs))
	for _, p := range pathspecs {
		content, err := repo.ReadFile(commit, p)
		if err != nil {
			if err == gitutil.ErrNotFound {
				out[p] = ""
				continue
			}
			return nil, fmt.Errorf("reconcile: reading %s at %s: %w", p, commit.Hash, err)
		}
		out[p] = content
	}
	return out, nil
}

// PostCommit implements spec §4.5's post-commit pipeline: the working log
// accumulated against parent is consumed, split against the new commit's
// tree, and replaced by a fresh INITIAL seed for the new commit plus a
// persisted authorship log note.
func (r *Reconciler) PostCommit(ctx context.Context, parentSHA, newSHA string, ts time.Time) error {
	ctx = logging.WithComponent(ctx, "reconcile")
	newCommit, err := r.Repo.ResolveCommit(newSHA)
	if err != nil {
		return fmt.Errorf("reconcile: post-commit: %w", err)
	}

	var parentCommit *object.Commit
	baseKey := ZeroCommit
	if parentSHA != "" {
		parentCommit, err = r.Repo.ResolveCommit(parentSHA)
		if err != nil {
			return fmt.Errorf("reconcile: post-commit: resolving parent %s: %w", parentSHA, err)
		}
		baseKey = parentSHA
	}

	pathspecs, err := r.Repo.ChangedPaths(parentCommit, newCommit)
	if err != nil {
		return fmt.Errorf("reconcile: post-commit: %w", err)
	}
	if len(pathspecs) == 0 {
		logging.Info(ctx, "post-commit: no changed paths, nothing to reconcile", "commit", newSHA)
		return nil
	}

	committedContents, err := readTreeContents(r.Repo, newCommit, pathspecs)
	if err != nil {
		return fmt.Errorf("reconcile: post-commit: %w", err)
	}

	store, err := r.store(baseKey)
	if err != nil {
		return fmt.Errorf("reconcile: post-commit: %w", err)
	}

	workingVA, err := virtualattr.FromWorkingLog(ctx, r.Repo, store, baseKey, pathspecs, committedContents, ts)
	if err != nil {
		return fmt.Errorf("reconcile: post-commit: building working VA: %w", err)
	}

	log, seed := workingVA.Split(committedContents)
	log.Metadata.BaseCommitSHA = newSHA

	if err := authorshiplog.Save(r.Repo, newSHA, log); err != nil {
		return fmt.Errorf("reconcile: post-commit: %w", err)
	}

	newStore, err := r.store(newSHA)
	if err != nil {
		return fmt.Errorf("reconcile: post-commit: %w", err)
	}
	if err := newStore.WriteInitialAttributions(seed.Files, seed.Prompts); err != nil {
		return fmt.Errorf("reconcile: post-commit: writing INITIAL for %s: %w", newSHA, err)
	}

	if err := store.Delete(); err != nil {
		return fmt.Errorf("reconcile: post-commit: deleting working log for %s: %w", baseKey, err)
	}

	logging.Info(ctx, "post-commit reconciled", "parent", parentSHA, "commit", newSHA, "files", len(pathspecs))
	return nil
}

// Amend implements spec §4.5's amend pipeline: when the amend changed no
// tracked file content, the original commit's log is simply re-keyed to the
// amended SHA; otherwise amend behaves exactly like post-commit with O as
// the working log's base.
func (r *Reconciler) Amend(ctx context.Context, originalSHA, amendedSHA string, ts time.Time) error {
	ctx = logging.WithComponent(ctx, "reconcile")

	originalCommit, err := r.Repo.ResolveCommit(originalSHA)
	if err != nil {
		return fmt.Errorf("reconcile: amend: resolving original %s: %w", originalSHA, err)
	}
	amendedCommit, err := r.Repo.ResolveCommit(amendedSHA)
	if err != nil {
		return fmt.Errorf("reconcile: amend: resolving amended %s: %w", amendedSHA, err)
	}

	pathspecs, err := r.Repo.ChangedPaths(originalCommit, amendedCommit)
	if err != nil {
		return fmt.Errorf("reconcile: amend: %w", err)
	}

	if len(pathspecs) == 0 {
		log, ok, err := authorshiplog.Load(r.Repo, originalSHA)
		if err != nil {
			return fmt.Errorf("reconcile: amend: %w", err)
		}
		if !ok {
			log = authorshiplog.Log{Metadata: authorshiplog.Metadata{SchemaVersion: authorshiplog.SchemaVersion}}
		}
		log.Metadata.BaseCommitSHA = amendedSHA
		if err := authorshiplog.Save(r.Repo, amendedSHA, log); err != nil {
			return fmt.Errorf("reconcile: amend: %w", err)
		}
		if err := authorshiplog.Delete(r.Repo, originalSHA); err != nil {
			return fmt.Errorf("reconcile: amend: %w", err)
		}
		store, err := r.store(originalSHA)
		if err != nil {
			return fmt.Errorf("reconcile: amend: %w", err)
		}
		if err := store.Delete(); err != nil {
			return fmt.Errorf("reconcile: amend: %w", err)
		}
		logging.Info(ctx, "amend reconciled (message-only)", "original", originalSHA, "amended", amendedSHA)
		return nil
	}

	committedContents, err := readTreeContents(r.Repo, amendedCommit, pathspecs)
	if err != nil {
		return fmt.Errorf("reconcile: amend: %w", err)
	}

	store, err := r.store(originalSHA)
	if err != nil {
		return fmt.Errorf("reconcile: amend: %w", err)
	}
	workingVA, err := virtualattr.FromWorkingLog(ctx, r.Repo, store, originalSHA, pathspecs, committedContents, ts)
	if err != nil {
		return fmt.Errorf("reconcile: amend: building working VA: %w", err)
	}

	log, seed := workingVA.Split(committedContents)
	log.Metadata.BaseCommitSHA = amendedSHA

	if err := authorshiplog.Save(r.Repo, amendedSHA, log); err != nil {
		return fmt.Errorf("reconcile: amend: %w", err)
	}
	if err := authorshiplog.Delete(r.Repo, originalSHA); err != nil {
		return fmt.Errorf("reconcile: amend: %w", err)
	}

	newStore, err := r.store(amendedSHA)
	if err != nil {
		return fmt.Errorf("reconcile: amend: %w", err)
	}
	if err := newStore.WriteInitialAttributions(seed.Files, seed.Prompts); err != nil {
		return fmt.Errorf("reconcile: amend: writing INITIAL for %s: %w", amendedSHA, err)
	}
	if err := store.Delete(); err != nil {
		return fmt.Errorf("reconcile: amend: deleting working log for %s: %w", originalSHA, err)
	}

	logging.Info(ctx, "amend reconciled", "original", originalSHA, "amended", amendedSHA, "files", len(pathspecs))
	return nil
}
