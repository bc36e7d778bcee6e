package workinglog

import (
	"testing"
	"time"

	"github.com/entireio/gitauthor/internal/attribution"
	"github.com/entireio/gitauthor/internal/prompt"
)

const baseSHA = "abc1234abc1234abc1234abc1234abc1234abc1"

func TestAppendAndReadAllCheckpoints(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, baseSHA)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	cp := Checkpoint{
		BaseCommit:   baseSHA,
		SnapshotHash: "deadbeef",
		Author:       "alice",
		Kind:         KindHuman,
		Ts:           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Entries: map[string][]attribution.LineAttribution{
			"main.go": {{StartLine: 1, EndLine: 3, AuthorID: "alice"}},
		},
	}
	if err := store.AppendCheckpoint(cp); err != nil {
		t.Fatalf("AppendCheckpoint: %v", err)
	}

	all, err := store.ReadAllCheckpoints()
	if err != nil {
		t.Fatalf("ReadAllCheckpoints: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 checkpoint, got %d", len(all))
	}
	if all[0].Author != "alice" {
		t.Errorf("expected author alice, got %s", all[0].Author)
	}
	if len(all[0].Entries["main.go"]) != 1 {
		t.Errorf("expected 1 entry for main.go, got %d", len(all[0].Entries["main.go"]))
	}
}

func TestReadAllCheckpoints_WriteOrderPreserved(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, baseSHA)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, author := range []string{"alice", "bob", "claude"} {
		cp := Checkpoint{
			BaseCommit: baseSHA,
			Author:     author,
			Kind:       KindHuman,
			Ts:         base.Add(time.Duration(i) * time.Second),
		}
		if err := store.AppendCheckpoint(cp); err != nil {
			t.Fatalf("AppendCheckpoint %d: %v", i, err)
		}
	}

	all, err := store.ReadAllCheckpoints()
	if err != nil {
		t.Fatalf("ReadAllCheckpoints: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 checkpoints, got %d", len(all))
	}
	wantOrder := []string{"alice", "bob", "claude"}
	for i, want := range wantOrder {
		if all[i].Author != want {
			t.Errorf("checkpoint %d: expected author %s, got %s", i, want, all[i].Author)
		}
	}
}

func TestReadAllCheckpoints_EmptyWhenNeverWritten(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, baseSHA)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	all, err := store.ReadAllCheckpoints()
	if err != nil {
		t.Fatalf("ReadAllCheckpoints on empty store: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected 0 checkpoints, got %d", len(all))
	}
}

func TestInitialAttributions_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, baseSHA)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	files := map[string][]attribution.LineAttribution{
		"main.go": {{StartLine: 1, EndLine: 2, AuthorID: prompt.Human}},
	}
	prompts := prompt.Table{
		"a1b2c3d": prompt.Record{AgentID: prompt.AgentID{Tool: "claude", SessionID: "s1"}},
	}

	if err := store.WriteInitialAttributions(files, prompts); err != nil {
		t.Fatalf("WriteInitialAttributions: %v", err)
	}

	gotFiles, gotPrompts, err := store.ReadInitialAttributions()
	if err != nil {
		t.Fatalf("ReadInitialAttributions: %v", err)
	}
	if len(gotFiles["main.go"]) != 1 {
		t.Fatalf("expected 1 line attribution for main.go, got %d", len(gotFiles["main.go"]))
	}
	if gotFiles["main.go"][0].AuthorID != prompt.Human {
		t.Errorf("expected human author, got %s", gotFiles["main.go"][0].AuthorID)
	}
	if _, ok := gotPrompts["a1b2c3d"]; !ok {
		t.Error("expected prompt record a1b2c3d to survive round trip")
	}
}

func TestInitialAttributions_EmptyWhenNeverWritten(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, baseSHA)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	files, prompts, err := store.ReadInitialAttributions()
	if err != nil {
		t.Fatalf("ReadInitialAttributions on empty store: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected empty files map, got %d entries", len(files))
	}
	if len(prompts) != 0 {
		t.Errorf("expected empty prompts table, got %d entries", len(prompts))
	}
}

func TestWriteInitialAttributions_OverwritesPriorSeed(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, baseSHA)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	first := map[string][]attribution.LineAttribution{
		"a.go": {{StartLine: 1, EndLine: 1, AuthorID: "alice"}},
	}
	second := map[string][]attribution.LineAttribution{
		"b.go": {{StartLine: 1, EndLine: 1, AuthorID: "bob"}},
	}

	if err := store.WriteInitialAttributions(first, prompt.Table{}); err != nil {
		t.Fatalf("first WriteInitialAttributions: %v", err)
	}
	if err := store.WriteInitialAttributions(second, prompt.Table{}); err != nil {
		t.Fatalf("second WriteInitialAttributions: %v", err)
	}

	gotFiles, _, err := store.ReadInitialAttributions()
	if err != nil {
		t.Fatalf("ReadInitialAttributions: %v", err)
	}
	if _, ok := gotFiles["a.go"]; ok {
		t.Error("expected a.go seed to have been overwritten, not merged")
	}
	if _, ok := gotFiles["b.go"]; !ok {
		t.Error("expected b.go seed to be present")
	}
}

func TestReset_ClearsCheckpointsAndSeedButKeepsDirectory(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, baseSHA)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := store.AppendCheckpoint(Checkpoint{BaseCommit: baseSHA, Author: "alice", Ts: time.Now()}); err != nil {
		t.Fatalf("AppendCheckpoint: %v", err)
	}
	if err := store.WriteInitialAttributions(map[string][]attribution.LineAttribution{}, prompt.Table{}); err != nil {
		t.Fatalf("WriteInitialAttributions: %v", err)
	}

	if err := store.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	all, err := store.ReadAllCheckpoints()
	if err != nil {
		t.Fatalf("ReadAllCheckpoints after reset: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected checkpoints cleared after reset, got %d", len(all))
	}

	files, _, err := store.ReadInitialAttributions()
	if err != nil {
		t.Fatalf("ReadInitialAttributions after reset: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected seed cleared after reset, got %d files", len(files))
	}
}

func TestDelete_RemovesEntireJournal(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, baseSHA)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := store.AppendCheckpoint(Checkpoint{BaseCommit: baseSHA, Author: "alice", Ts: time.Now()}); err != nil {
		t.Fatalf("AppendCheckpoint: %v", err)
	}
	if err := store.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	all, err := store.ReadAllCheckpoints()
	if err != nil {
		t.Fatalf("ReadAllCheckpoints after delete: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected no checkpoints after delete, got %d", len(all))
	}
}

func TestOpen_RejectsInvalidCommitSHA(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(dir, "not-a-sha!"); err == nil {
		t.Error("expected Open to reject an invalid commit SHA")
	}
}

func TestDifferentBaseCommitsAreIsolated(t *testing.T) {
	dir := t.TempDir()
	shaA := "1111111111111111111111111111111111111111"
	shaB := "2222222222222222222222222222222222222222"

	storeA, err := Open(dir, shaA)
	if err != nil {
		t.Fatalf("Open A: %v", err)
	}
	storeB, err := Open(dir, shaB)
	if err != nil {
		t.Fatalf("Open B: %v", err)
	}

	if err := storeA.AppendCheckpoint(Checkpoint{BaseCommit: shaA, Author: "alice", Ts: time.Now()}); err != nil {
		t.Fatalf("AppendCheckpoint A: %v", err)
	}

	allB, err := storeB.ReadAllCheckpoints()
	if err != nil {
		t.Fatalf("ReadAllCheckpoints B: %v", err)
	}
	if len(allB) != 0 {
		t.Errorf("expected store B to be unaffected by writes to store A, got %d checkpoints", len(allB))
	}
}
