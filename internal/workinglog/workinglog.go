// Package workinglog implements the append-only per-base-commit journal of
// checkpoints, plus the overwritable INITIAL seed, described in spec §4.3.
// It is a local, uncommitted-state store: unlike the authorship log, it is
// never attached to a commit and is deleted once its base commit is
// consumed by the reconciler.
package workinglog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/entireio/gitauthor/internal/attribution"
	"github.com/entireio/gitauthor/internal/jsonutil"
	"github.com/entireio/gitauthor/internal/paths"
	"github.com/entireio/gitauthor/internal/prompt"
	"github.com/entireio/gitauthor/internal/validation"
	"github.com/entireio/gitauthor/redact"
)

// CheckpointKind distinguishes a checkpoint produced by a human edit from
// one produced by an AI agent (spec §3, Checkpoint.kind).
type CheckpointKind string

const (
	KindHuman   CheckpointKind = "human"
	KindAiAgent CheckpointKind = "ai_agent"
)

// Checkpoint is one journal entry: the line attributions for every touched
// file as of that moment, not a diff (spec §3).
type Checkpoint struct {
	BaseCommit   string                              `json:"base_commit"`
	SnapshotHash string                              `json:"snapshot_hash"`
	Author       string                              `json:"author"`
	Kind         CheckpointKind                       `json:"kind"`
	Ts           time.Time                           `json:"ts"`
	AgentID      *prompt.AgentID                      `json:"agent_id,omitempty"`
	Transcript   []prompt.Message                     `json:"transcript,omitempty"`
	Entries      map[string][]attribution.LineAttribution `json:"entries"`
}

// Seed is the INITIAL entry: the uncommitted remainder written by the
// reconciler after a commit (spec §4.5's "initial" half of split).
type Seed struct {
	Files   map[string][]attribution.LineAttribution `json:"files"`
	Prompts prompt.Table                              `json:"prompts"`
}

// Store is a filesystem-backed working log rooted at
// .gitauthor/working/<base-commit>/, one directory per base commit so that
// concurrent reconcilers on different base commits never collide (spec §5).
type Store struct {
	root string // .gitauthor/working/<base-commit>
}

// Open returns the Store for baseCommit, rooted under the repository's
// .gitauthor directory.
func Open(repoRoot, baseCommit string) (*Store, error) {
	if err := validation.ValidateCommitSHA(baseCommit); err != nil {
		return nil, fmt.Errorf("opening working log: %w", err)
	}
	root := filepath.Join(repoRoot, paths.GitAuthorDir, "working", baseCommit)
	return &Store{root: root}, nil
}

func (s *Store) checkpointsDir() string { return filepath.Join(s.root, "checkpoints") }
func (s *Store) initialPath() string    { return filepath.Join(s.root, "INITIAL.json") }

// AppendCheckpoint atomically appends cp to the journal. Checkpoints are
// never edited once written; each gets a monotonically increasing sequence
// prefix so ReadAllCheckpoints can recover write order without relying on
// directory-listing order alone.
func (s *Store) AppendCheckpoint(cp Checkpoint) error {
	dir := s.checkpointsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating checkpoints dir: %w", err)
	}

	seq, err := s.nextSequence()
	if err != nil {
		return fmt.Errorf("allocating checkpoint sequence: %w", err)
	}

	cp.Transcript = redactTranscript(cp.Transcript)

	data, err := jsonutil.MarshalIndentWithNewline(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}

	name := fmt.Sprintf("%08d-%s.json", seq, cp.Ts.UTC().Format("20060102T150405.000000000"))
	tmp := filepath.Join(dir, "."+name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	return os.Rename(tmp, filepath.Join(dir, name))
}

func (s *Store) nextSequence() (int, error) {
	entries, err := os.ReadDir(s.checkpointsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	max := -1
	for _, e := range entries {
		var seq int
		if _, err := fmt.Sscanf(e.Name(), "%08d-", &seq); err == nil && seq > max {
			max = seq
		}
	}
	return max + 1, nil
}

// ReadAllCheckpoints returns every checkpoint in write order.
func (s *Store) ReadAllCheckpoints() ([]Checkpoint, error) {
	entries, err := os.ReadDir(s.checkpointsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names) // zero-padded sequence prefix sorts lexically = write order

	out := make([]Checkpoint, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.checkpointsDir(), name))
		if err != nil {
			return nil, fmt.Errorf("reading checkpoint %s: %w", name, err)
		}
		var cp Checkpoint
		if err := json.Unmarshal(data, &cp); err != nil {
			return nil, fmt.Errorf("parsing checkpoint %s: %w", name, err)
		}
		out = append(out, cp)
	}
	return out, nil
}

// WriteInitialAttributions replaces the INITIAL seed wholesale.
func (s *Store) WriteInitialAttributions(files map[string][]attribution.LineAttribution, prompts prompt.Table) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("creating working log dir: %w", err)
	}
	seed := Seed{Files: files, Prompts: prompts}
	data, err := jsonutil.MarshalIndentWithNewline(seed, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling INITIAL: %w", err)
	}
	tmp := s.initialPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing INITIAL: %w", err)
	}
	return os.Rename(tmp, s.initialPath())
}

// ReadInitialAttributions reads the INITIAL seed, returning empty maps if
// none was ever written.
func (s *Store) ReadInitialAttributions() (map[string][]attribution.LineAttribution, prompt.Table, error) {
	data, err := os.ReadFile(s.initialPath())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]attribution.LineAttribution{}, prompt.Table{}, nil
		}
		return nil, nil, fmt.Errorf("reading INITIAL: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, nil, fmt.Errorf("parsing INITIAL: %w", err)
	}
	if seed.Files == nil {
		seed.Files = map[string][]attribution.LineAttribution{}
	}
	if seed.Prompts == nil {
		seed.Prompts = prompt.Table{}
	}
	return seed.Files, seed.Prompts, nil
}

// Reset discards every checkpoint and the INITIAL seed, keeping the base
// commit's directory itself (and thus its identity) in place.
func (s *Store) Reset() error {
	if err := os.RemoveAll(s.checkpointsDir()); err != nil {
		return fmt.Errorf("clearing checkpoints: %w", err)
	}
	if err := os.Remove(s.initialPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing INITIAL: %w", err)
	}
	return nil
}

// Delete removes the entire journal for this base commit.
func (s *Store) Delete() error {
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("deleting working log: %w", err)
	}
	return nil
}

// redactTranscript scrubs secrets out of a checkpoint's transcript before
// it touches disk, since working logs sit under .gitauthor/ alongside
// whatever else a repo might sync or back up.
func redactTranscript(msgs []prompt.Message) []prompt.Message {
	if msgs == nil {
		return nil
	}
	out := make([]prompt.Message, len(msgs))
	for i, m := range msgs {
		m.Text = redact.String(m.Text)
		m.ToolInput = redact.String(m.ToolInput)
		out[i] = m
	}
	return out
}
