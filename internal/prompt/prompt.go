// Package prompt defines the normalized prompt-session record that every
// non-human author_id resolves to: the agent identity, the conversational
// transcript, and the accumulated line-ownership counters described in the
// data model (spec §3, PromptRecord / Message / author_id).
package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Human is the sentinel author_id for human-authored content. It is never
// emitted into a published authorship log; its presence is implicit in the
// absence of an attribution entry.
const Human = "human"

// HashLen is the width of a prompt-session hash as stored in the current
// authorship-log schema version. Implementations may widen this if hash
// collisions are observed in practice, but the stored width must stay fixed
// per schema version (spec §9, "Hash as identity").
const HashLen = 7

// AgentID identifies the tool, session, and model that produced a prompt
// session.
type AgentID struct {
	Tool      string `json:"tool"`
	SessionID string `json:"id"`
	Model     string `json:"model,omitempty"`
}

// Hash computes the 7-hex-character author_id for this agent identity: the
// first HashLen hex characters of SHA-256("tool:session_id").
func (a AgentID) Hash() string {
	return Hash(a.Tool, a.SessionID)
}

// Hash computes the prompt-session hash for a given tool and session id,
// independent of any AgentID value. Exported so callers that only have the
// raw (tool, session_id) pair (e.g. blame attribution lookups) don't need to
// construct an AgentID first.
func Hash(tool, sessionID string) string {
	sum := sha256.Sum256([]byte(tool + ":" + sessionID))
	return hex.EncodeToString(sum[:])[:HashLen]
}

// MessageKind tags which arm of the Message union is populated.
type MessageKind int

const (
	// MessageUser is a message originating from the human operator.
	MessageUser MessageKind = iota
	// MessageAssistant is a message generated by the agent.
	MessageAssistant
	// MessageToolUse records an agent tool invocation.
	MessageToolUse
)

// Message is the normalized transcript entry: a tagged union over
// User/Assistant/ToolUse, matching spec §3's Message type. Only the fields
// relevant to Kind are meaningful; the others are zero.
type Message struct {
	Kind MessageKind `json:"kind"`

	// Text holds the message body for User and Assistant messages.
	Text string `json:"text,omitempty"`

	// ToolName and ToolInput hold the invocation detail for ToolUse messages.
	ToolName  string `json:"tool_name,omitempty"`
	ToolInput string `json:"tool_input,omitempty"`

	// Timestamp is optional; zero means "not recorded".
	Timestamp time.Time `json:"ts,omitempty"`
}

// Record is a prompt session's persistent record: identity, optional human
// author override, transcript, and the running accumulators described in
// spec §3 (PromptRecord).
type Record struct {
	AgentID      AgentID   `json:"agent_id"`
	HumanAuthor  string    `json:"human_author,omitempty"`
	Transcript   []Message `json:"transcript,omitempty"`
	TotalAdditions int     `json:"total_additions"`
	TotalDeletions int     `json:"total_deletions"`
	AcceptedLines  int     `json:"accepted_lines"`
}

// Hash returns the prompt-session hash this record resolves to.
func (r Record) Hash() string { return r.AgentID.Hash() }

// Table is a map from prompt-session hash to its Record, the "side table of
// prompt records" referenced throughout spec §3/§4.
type Table map[string]Record

// Clone returns a deep-enough copy of t suitable for independent mutation
// (transcripts are not deep-copied since they are treated as immutable once
// recorded).
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Merge returns a new table containing every entry of t, overlaid with every
// entry of other (other wins on key collision). Used whenever two virtual
// attributions' prompt tables are combined.
func (t Table) Merge(other Table) Table {
	out := t.Clone()
	if out == nil {
		out = make(Table, len(other))
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
