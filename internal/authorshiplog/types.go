// Package authorshiplog implements the per-commit authorship-log artifact:
// its data model, the text+JSON wire format, and the schema-version guard
// (spec §3/§6, "AuthorshipLog" / "Authorship log (wire format)").
package authorshiplog

import (
	"github.com/entireio/gitauthor/internal/prompt"
	"github.com/entireio/gitauthor/internal/rangeset"
)

// SchemaVersion is the only schema version this implementation emits or
// accepts. Unknown versions are refused outright, never silently upgraded
// (spec §6: "Unknown schema versions must be refused").
const SchemaVersion = "authorship/3.0.0"

// Entry is one prompt session's ownership within a file: its hash and the
// line ranges it owns, already sorted and non-overlapping.
type Entry struct {
	Hash       string
	LineRanges rangeset.Set
}

// FileAttestation is one file's authorship within a commit: the prompt-hash
// entries that own non-human line ranges in it. A file with zero entries is
// entirely human-authored and is omitted from the log (invariant 2: "lines
// absent from every range are human-authored by construction").
type FileAttestation struct {
	FilePath string
	Entries  []Entry
}

// Metadata is the authorship log's JSON-serialized section.
type Metadata struct {
	SchemaVersion  string              `json:"schema_version"`
	BaseCommitSHA  string              `json:"base_commit_sha"`
	Prompts        prompt.Table        `json:"prompts"`
}

// Log is the full per-commit artifact: sorted file attestations plus
// metadata (spec §3, AuthorshipLog).
type Log struct {
	Attestations []FileAttestation
	Metadata     Metadata
}
