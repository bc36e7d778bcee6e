package virtualattr

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
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

var fixedTs = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFromRaw_SplitSeparatesCommittedFromUncommitted(t *testing.T) {
	agentHash := prompt.AgentID{Tool: "claude-code", SessionID: "s1"}.Hash()
	content := "one\ntwo\nthree\nfour\n"

	va := FromRaw("base", map[string][]attribution.Attribution{
		"f.txt": {{Start: 8, End: 13, AuthorID: agentHash, Ts: fixedTs}}, // "three"
	}, map[string]string{"f.txt": content}, prompt.Table{
		agentHash: {AgentID: prompt.AgentID{Tool: "claude-code", SessionID: "s1"}},
	}, fixedTs)

	committed := map[string]string{"f.txt": "one\ntwo\nthree\n"}
	log, seed := va.Split(committed)

	require.Len(t, log.Attestations, 1)
	require.Equal(t, "f.txt", log.Attestations[0].FilePath)
	require.True(t, log.Attestations[0].Entries[0].LineRanges.Contains(3))

	require.NotEmpty(t, seed.Files["f.txt"])
}

func TestFromBlame_ReadsAttributionsFromAuthorshipLog(t *testing.T) {
	dir := t.TempDir()
	gitRepo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("human\nai\n"), 0o644))
	wt, err := gitRepo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("f.txt")
	require.NoError(t, err)
	sha, err := wt.Commit("init", &git.CommitOptions{
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
				LineRanges: rangeset.Merge([]rangeset.Range{rangeset.Single(2)}),
			}},
		}},
		Metadata: authorshiplog.Metadata{
			SchemaVersion: authorshiplog.SchemaVersion,
			BaseCommitSHA: sha.String(),
			Prompts:       prompt.Table{agentHash: {AgentID: prompt.AgentID{Tool: "claude-code", SessionID: "s1"}}},
		},
	}))

	va, err := FromBlame(context.Background(), repo, sha.String(), []string{"f.txt"}, fixedTs)
	require.NoError(t, err)

	lines := va.LineAttributions("f.txt")
	require.Len(t, lines, 1)
	require.Equal(t, agentHash, lines[0].AuthorID)
	require.Equal(t, 2, lines[0].StartLine)
}
