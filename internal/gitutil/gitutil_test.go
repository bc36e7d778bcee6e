package gitutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func initFixture(t *testing.T) (*Repo, string) {
	t.Helper()
	dir := t.TempDir()
	gitRepo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("one\ntwo\n"), 0o644))
	wt, err := gitRepo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("f.txt")
	require.NoError(t, err)
	sha, err := wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	repo, err := Open(dir)
	require.NoError(t, err)
	return repo, sha.String()
}

func TestNote_WriteReadDeleteRoundTrip(t *testing.T) {
	repo, sha := initFixture(t)

	_, ok, err := repo.ReadNote(sha)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.WriteNote(sha, "attestation payload"))

	content, ok, err := repo.ReadNote(sha)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "attestation payload", content)

	require.NoError(t, repo.DeleteNote(sha))
	_, ok, err = repo.ReadNote(sha)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBlameFiles_AssignsEveryLineACommit(t *testing.T) {
	repo, sha := initFixture(t)

	commit, err := repo.ResolveCommit(sha)
	require.NoError(t, err)

	results := BlameFiles(context.Background(), repo, commit, []string{"f.txt"})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	require.Len(t, results[0].Lines, 2)
	require.Equal(t, sha, results[0].Lines[0])
	require.Equal(t, sha, results[0].Lines[1])
}

func TestChangedPaths_NilBaseComparesAgainstEmptyTree(t *testing.T) {
	repo, sha := initFixture(t)
	commit, err := repo.ResolveCommit(sha)
	require.NoError(t, err)

	paths, err := repo.ChangedPaths(nil, commit)
	require.NoError(t, err)
	require.Contains(t, paths, "f.txt")
}
