package attribution

import (
	"testing"
	"time"

	"github.com/entireio/gitauthor/internal/prompt"
	"github.com/stretchr/testify/assert"
)

// S3. Dominant-author-per-line rule: a single line with several
// contributors resolves to whichever surviving candidate has the latest
// Ts (ties broken by encounter order).
func TestCharToLine_DominantAuthorPerLine(t *testing.T) {
	content := "let x = foo() + bar();\n"
	// "let x = " | "foo()" | " + " | "bar()" | ";\n"
	charAttrs := []Attribution{
		{Start: 0, End: 8, AuthorID: "alice", Ts: t0},
		{Start: 8, End: 13, AuthorID: "bob", Ts: t0},
		{Start: 13, End: 16, AuthorID: "alice", Ts: t0},
		{Start: 16, End: 21, AuthorID: "charlie", Ts: t0},
		{Start: 21, End: 23, AuthorID: "alice", Ts: t0},
	}

	got := CharToLine(charAttrs, content)

	require_len1(t, got)
	assert.Equal(t, "alice", got[0].AuthorID)
	assert.Equal(t, 1, got[0].StartLine)
	assert.Equal(t, 1, got[0].EndLine)
}

func require_len1(t *testing.T, got []LineAttribution) {
	t.Helper()
	if len(got) != 1 {
		t.Fatalf("expected exactly one line attribution, got %+v", got)
	}
}

// Testable property 5: a contribution covering only whitespace on a line
// must not make its author dominant over a candidate with real content.
func TestCharToLine_WhitespaceOnlyContributionIgnored(t *testing.T) {
	content := "foo();\n"
	charAttrs := []Attribution{
		{Start: 0, End: 6, AuthorID: "alice", Ts: t0},
		// Later Ts, but covers only the trailing newline: must not win.
		{Start: 6, End: 7, AuthorID: "bob", Ts: t0.Add(time.Hour)},
	}

	got := CharToLine(charAttrs, content)

	require_len1(t, got)
	assert.Equal(t, "alice", got[0].AuthorID)
}

// Testable property 6: the human sentinel never appears in the output of
// CharToLine.
func TestCharToLine_HumanSentinelNeverEscapes(t *testing.T) {
	content := "a\nb\nc\n"
	charAttrs := []Attribution{
		{Start: 0, End: 2, AuthorID: prompt.Human, Ts: t0},
		{Start: 2, End: 4, AuthorID: "agent1", Ts: t0},
		// Line 3 has no attribution at all; must default to human and be
		// omitted entirely rather than surface the sentinel.
	}

	got := CharToLine(charAttrs, content)

	for _, la := range got {
		assert.NotEqual(t, prompt.Human, la.AuthorID)
	}
	assert.Len(t, got, 1)
	assert.Equal(t, "agent1", got[0].AuthorID)
	assert.Equal(t, 2, got[0].StartLine)
	assert.Equal(t, 2, got[0].EndLine)
}

func TestLineToChar_SkipsInvalidRanges(t *testing.T) {
	content := "one\ntwo\nthree\n"
	lineAttrs := []LineAttribution{
		{StartLine: 1, EndLine: 1, AuthorID: "alice"},
		{StartLine: 2, EndLine: 10, AuthorID: "bob"}, // past EOF, skipped
		{StartLine: 0, EndLine: 1, AuthorID: "bad"},  // StartLine < 1, skipped
	}

	got := LineToChar(lineAttrs, content, t0)

	assert.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].AuthorID)
	assert.Equal(t, 0, got[0].Start)
	assert.Equal(t, 4, got[0].End)
}

func TestLineCharRoundTrip(t *testing.T) {
	// Blank lines are deliberately avoided here: a line with no
	// non-whitespace content always reverts to human under the
	// dominant-author rule, so it wouldn't round-trip to its source author.
	content := "package main\nimport \"fmt\"\nfunc main() {}\n"
	lineAttrs := []LineAttribution{
		{StartLine: 1, EndLine: 2, AuthorID: "alice"},
		{StartLine: 3, EndLine: 3, AuthorID: "bob"},
	}

	charAttrs := LineToChar(lineAttrs, content, t0)
	roundTripped := CharToLine(charAttrs, content)

	assert.Equal(t, lineAttrs, roundTripped)
}

func TestLineSpans(t *testing.T) {
	spans := lineSpans("ab\ncd")
	assert.Equal(t, []charSpan{{Start: 0, End: 3}, {Start: 3, End: 5}}, spans)

	assert.Nil(t, lineSpans(""))

	spans2 := lineSpans("ab\n")
	assert.Equal(t, []charSpan{{Start: 0, End: 3}}, spans2)
}
