package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash_Deterministic(t *testing.T) {
	a := Hash("claude-code", "session-123")
	b := Hash("claude-code", "session-123")
	assert.Equal(t, a, b)
	assert.Len(t, a, HashLen)
}

func TestHash_DifferentInputsDiffer(t *testing.T) {
	a := Hash("claude-code", "session-123")
	b := Hash("claude-code", "session-456")
	assert.NotEqual(t, a, b)
}

func TestAgentID_HashMatchesPackageHash(t *testing.T) {
	id := AgentID{Tool: "gemini-cli", SessionID: "abc"}
	assert.Equal(t, Hash("gemini-cli", "abc"), id.Hash())
}

func TestRecord_Hash(t *testing.T) {
	r := Record{AgentID: AgentID{Tool: "claude-code", SessionID: "xyz"}}
	assert.Equal(t, r.AgentID.Hash(), r.Hash())
}

func TestTable_CloneIsIndependent(t *testing.T) {
	orig := Table{"abc1234": {AgentID: AgentID{Tool: "t", SessionID: "s"}}}
	clone := orig.Clone()
	clone["abc1234"] = Record{AgentID: AgentID{Tool: "other", SessionID: "s2"}}

	assert.Equal(t, "t", orig["abc1234"].AgentID.Tool)
	assert.Equal(t, "other", clone["abc1234"].AgentID.Tool)
}

func TestTable_CloneNil(t *testing.T) {
	var t0 Table
	assert.Nil(t, t0.Clone())
}

func TestTable_MergeOtherWins(t *testing.T) {
	a := Table{"k1": {HumanAuthor: "alice"}, "k2": {HumanAuthor: "bob"}}
	b := Table{"k2": {HumanAuthor: "charlie"}, "k3": {HumanAuthor: "dave"}}

	merged := a.Merge(b)

	assert.Equal(t, "alice", merged["k1"].HumanAuthor)
	assert.Equal(t, "charlie", merged["k2"].HumanAuthor)
	assert.Equal(t, "dave", merged["k3"].HumanAuthor)
	// Originals untouched.
	assert.Equal(t, "bob", a["k2"].HumanAuthor)
}

func TestTable_MergeIntoNil(t *testing.T) {
	var a Table
	b := Table{"k1": {HumanAuthor: "alice"}}
	merged := a.Merge(b)
	assert.Equal(t, "alice", merged["k1"].HumanAuthor)
}

func TestHumanSentinel(t *testing.T) {
	assert.Equal(t, "human", Human)
}
