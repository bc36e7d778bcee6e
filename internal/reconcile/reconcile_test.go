package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/entireio/gitauthor/internal/attribution"
	"github.com/entireio/gitauthor/internal/authorshiplog"
	"github.com/entireio/gitauthor/internal/gitutil"
	"github.com/entireio/gitauthor/internal/prompt"
	"github.com/entireio/gitauthor/internal/rangeset"
	"github.com/entireio/gitauthor/internal/workinglog"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

var testTs = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func initTestRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return dir, repo
}

func writeFile(t *testing.T, dir, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, path)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, path), []byte(content), 0o644))
}

func commitFile(t *testing.T, dir string, repo *git.Repository, path, content string) string {
	t.Helper()
	writeFile(t, dir, path, content)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(path)
	require.NoError(t, err)
	hash, err := wt.Commit("commit "+path, &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: testTs},
	})
	require.NoError(t, err)
	return hash.String()
}

// TestPostCommit_PromotesCheckpointIntoAuthorshipLog exercises the full
// post-commit pipeline: a human commit, an AI-agent checkpoint recorded
// against it in the working log, a second commit that captures the
// checkpoint's content, then reconciliation.
func TestPostCommit_PromotesCheckpointIntoAuthorshipLog(t *testing.T) {
	dir, gitRepo := initTestRepo(t)
	parentSHA := commitFile(t, dir, gitRepo, "main.go", "package main\n\nfunc main() {}\n")

	repo, err := gitutil.Open(dir)
	require.NoError(t, err)

	agentID := prompt.AgentID{Tool: "claude-code", SessionID: "sess-1", Model: "test-model"}
	store, err := workinglog.Open(dir, parentSHA)
	require.NoError(t, err)

	newContent := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"
	require.NoError(t, store.AppendCheckpoint(workinglog.Checkpoint{
		BaseCommit: parentSHA,
		Author:     "agent",
		Kind:       workinglog.KindAiAgent,
		Ts:         testTs,
		AgentID:    &agentID,
		Entries: map[string][]attribution.LineAttribution{
			"main.go": {{StartLine: 1, EndLine: 5, AuthorID: agentID.Hash()}},
		},
	}))

	childSHA := commitFile(t, dir, gitRepo, "main.go", newContent)

	r := New(repo, dir, attribution.DefaultConfig())
	require.NoError(t, r.PostCommit(context.Background(), parentSHA, childSHA, testTs.Add(time.Minute)))

	log, ok, err := authorshiplog.Load(repo, childSHA)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, childSHA, log.Metadata.BaseCommitSHA)
	require.Len(t, log.Attestations, 1)
	require.Equal(t, "main.go", log.Attestations[0].FilePath)
	require.Len(t, log.Attestations[0].Entries, 1)
	require.Equal(t, agentID.Hash(), log.Attestations[0].Entries[0].Hash)

	rec, ok := log.Metadata.Prompts[agentID.Hash()]
	require.True(t, ok)
	require.Equal(t, "claude-code", rec.AgentID.Tool)
	require.Greater(t, rec.AcceptedLines, 0)
}

// TestAmend_MessageOnly_ReKeysLogWithoutRebuilding covers the amend
// fast-path: no tracked file content changed, so the original commit's log
// is simply re-keyed to the amended SHA.
func TestAmend_MessageOnly_ReKeysLogWithoutRebuilding(t *testing.T) {
	dir, gitRepo := initTestRepo(t)
	sha := commitFile(t, dir, gitRepo, "a.txt", "hello\n")

	repo, err := gitutil.Open(dir)
	require.NoError(t, err)

	original := authorshiplog.Log{
		Attestations: []authorshiplog.FileAttestation{{
			FilePath: "a.txt",
			Entries:  []authorshiplog.Entry{{Hash: "abc1234", LineRanges: rangeset.Merge([]rangeset.Range{rangeset.Single(1)})}},
		}},
		Metadata: authorshiplog.Metadata{
			SchemaVersion: authorshiplog.SchemaVersion,
			BaseCommitSHA: sha,
			Prompts: prompt.Table{
				"abc1234": {AgentID: prompt.AgentID{Tool: "claude-code", SessionID: "s1"}},
			},
		},
	}
	require.NoError(t, authorshiplog.Save(repo, sha, original))

	wt, err := gitRepo.Worktree()
	require.NoError(t, err)
	amendedSHA, err := wt.Commit("amended message", &git.CommitOptions{
		Author:  &object.Signature{Name: "Test User", Email: "test@example.com", When: testTs.Add(time.Second)},
		Parents: []plumbing.Hash{plumbing.NewHash(sha)},
		All:     true,
	})
	require.NoError(t, err)

	r := New(repo, dir, attribution.DefaultConfig())
	require.NoError(t, r.Amend(context.Background(), sha, amendedSHA.String(), testTs.Add(time.Minute)))

	log, ok, err := authorshiplog.Load(repo, amendedSHA.String())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, amendedSHA.String(), log.Metadata.BaseCommitSHA)
	require.Len(t, log.Attestations, 1)

	_, ok, err = authorshiplog.Load(repo, sha)
	require.NoError(t, err)
	require.False(t, ok, "original commit's note should be removed after re-keying")
}

// TestReset_MergesWorkingLogFavoringOldHead covers a soft-reset: the old
// head's working log (with a pending AI checkpoint) is merged over the
// target's blame, and the merged attribution survives as the target's new
// INITIAL seed.
func TestReset_MergesWorkingLogFavoringOldHead(t *testing.T) {
	dir, gitRepo := initTestRepo(t)
	base := commitFile(t, dir, gitRepo, "f.txt", "one\ntwo\nthree\n")
	oldHead := commitFile(t, dir, gitRepo, "f.txt", "one\ntwo\nthree\nfour\n")

	repo, err := gitutil.Open(dir)
	require.NoError(t, err)

	agentID := prompt.AgentID{Tool: "claude-code", SessionID: "sess-2"}
	store, err := workinglog.Open(dir, oldHead)
	require.NoError(t, err)
	require.NoError(t, store.AppendCheckpoint(workinglog.Checkpoint{
		BaseCommit: oldHead,
		Author:     "agent",
		Kind:       workinglog.KindAiAgent,
		Ts:         testTs,
		AgentID:    &agentID,
		Entries: map[string][]attribution.LineAttribution{
			"f.txt": {{StartLine: 5, EndLine: 5, AuthorID: agentID.Hash()}},
		},
	}))

	workingDir := map[string]string{"f.txt": "one\ntwo\nthree\nfour\nfive\n"}

	r := New(repo, dir, attribution.DefaultConfig())
	require.NoError(t, r.Reset(context.Background(), oldHead, base, []string{"f.txt"}, workingDir, testTs.Add(time.Minute)))

	targetStore, err := workinglog.Open(dir, base)
	require.NoError(t, err)
	files, _, err := targetStore.ReadInitialAttributions()
	require.NoError(t, err)
	require.Contains(t, files, "f.txt")
}
