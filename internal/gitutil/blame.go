package gitutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"golang.org/x/sync/semaphore"
)

// blameConcurrency bounds the number of simultaneous per-file blame
// operations spawned by BlameFiles (spec §5: "semaphore-bounded concurrency
// of 30").
const blameConcurrency = 30

// FileBlame is the per-line blame result for one path at a commit.
type FileBlame struct {
	Path  string
	Lines []string // index i holds the commit SHA that last touched line i+1
	Err   error    // per-file blame failure; logged and skipped by callers (spec §7)
}

// BlameFiles runs git blame for every path in paths as of commit, with at
// most blameConcurrency running concurrently. A failed blame for one file
// is recorded in that file's Err rather than aborting the others (spec §7:
// "per-file blame failures ... are logged and skipped").
func BlameFiles(ctx context.Context, repo *Repo, commit *object.Commit, paths []string) []FileBlame {
	sem := semaphore.NewWeighted(blameConcurrency)
	results := make([]FileBlame, len(paths))

	var wg sync.WaitGroup
	for i, p := range paths {
		i, p := i, p
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = FileBlame{Path: p, Err: err}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = blameOne(repo.repo, commit, p)
		}()
	}
	wg.Wait()
	return results
}

func blameOne(repo *git.Repository, commit *object.Commit, path string) FileBlame {
	result, err := git.Blame(commit, path)
	if err != nil {
		return FileBlame{Path: path, Err: fmt.Errorf("blaming %s at %s: %w", path, commit.Hash, err)}
	}

	lines := make([]string, len(result.Lines))
	for i, l := range result.Lines {
		if l.Hash.IsZero() {
			lines[i] = ""
			continue
		}
		lines[i] = l.Hash.String()
	}
	return FileBlame{Path: path, Lines: lines}
}
