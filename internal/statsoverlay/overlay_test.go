package statsoverlay

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/entireio/gitauthor/internal/authorshiplog"
	"github.com/entireio/gitauthor/internal/gitutil"
	"github.com/entireio/gitauthor/internal/prompt"
	"github.com/entireio/gitauthor/internal/rangeset"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

var fixedTs = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newOverlayFixture(t *testing.T) (*gitutil.Repo, string) {
	t.Helper()
	dir := t.TempDir()
	gitRepo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("human one\nhuman two\nai three\nai four\n"), 0o644))

	wt, err := gitRepo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("f.txt")
	require.NoError(t, err)
	sha, err := wt.Commit("add file", &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: fixedTs},
	})
	require.NoError(t, err)

	repo, err := gitutil.Open(dir)
	require.NoError(t, err)

	agentHash := prompt.AgentID{Tool: "claude-code", SessionID: "s1"}.Hash()
	require.NoError(t, authorshiplog.Save(repo, sha.String(), authorshiplog.Log{
		Attestations: []authorshiplog.FileAttestation{{
			FilePath: "f.txt",
			Entries: []authorshiplog.Entry{{
				Hash:       agentHash,
				LineRanges: rangeset.Merge([]rangeset.Range{rangeset.Span(3, 4)}),
			}},
		}},
		Metadata: authorshiplog.Metadata{
			SchemaVersion: authorshiplog.SchemaVersion,
			BaseCommitSHA: sha.String(),
			Prompts: prompt.Table{
				agentHash: {AgentID: prompt.AgentID{Tool: "claude-code", SessionID: "s1"}},
			},
		},
	}))

	return repo, sha.String()
}

func TestOverlay_ClassifiesLinesFromAuthorshipLog(t *testing.T) {
	repo, sha := newOverlayFixture(t)

	overlays, err := Overlay(context.Background(), repo, sha, []string{"f.txt"})
	require.NoError(t, err)
	require.Len(t, overlays, 1)
	require.Len(t, overlays[0].Lines, 4)

	require.True(t, overlays[0].Lines[0].Human)
	require.True(t, overlays[0].Lines[1].Human)
	require.False(t, overlays[0].Lines[2].Human)
	require.False(t, overlays[0].Lines[3].Human)
}

func TestCompute_AggregatesHumanAndAgentLines(t *testing.T) {
	repo, sha := newOverlayFixture(t)

	stats, err := Compute(context.Background(), repo, sha, []string{"f.txt"})
	require.NoError(t, err)
	require.Equal(t, 2, stats.HumanLines)
	require.Equal(t, 2, stats.AgentLines)
	require.Len(t, stats.ByAuthor, 2)
}
