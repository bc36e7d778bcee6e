package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMoves_ExactSubstring(t *testing.T) {
	old := "XXXXXXXXXX\nsame content here\n"
	new := "same content here\nXXXXXXXXXX\n"
	ops := computeDiffOps(old, new)

	moves := detectMoves(ops, DefaultConfig())
	require.NotEmpty(t, moves)

	for _, m := range moves {
		assert.Greater(t, m.insertionStart, -1)
	}
}

func TestDetectMoves_BelowMinLengthIgnored(t *testing.T) {
	old := "short xx yy"
	new := "yy short xx"
	ops := computeDiffOps(old, new)

	cfg := DefaultConfig()
	cfg.MinMoveLength = 1000
	moves := detectMoves(ops, cfg)
	assert.Empty(t, moves)
}

func TestDetectMoves_BelowThresholdIgnored(t *testing.T) {
	old := "one two three four five six seven"
	new := "completely different unrelated text entirely"
	ops := computeDiffOps(old, new)

	moves := detectMoves(ops, DefaultConfig())
	assert.Empty(t, moves)
}

func TestMoveMapOffset_Exact(t *testing.T) {
	m := move{insertionStart: 10, exact: true, substringOffset: 3, deletionLen: 5, insertionLen: 20}
	assert.Equal(t, 13, m.mapOffset(0))
	assert.Equal(t, 15, m.mapOffset(2))
}

func TestMoveMapOffset_Scaled(t *testing.T) {
	m := move{insertionStart: 0, exact: false, deletionLen: 10, insertionLen: 20}
	assert.Equal(t, 0, m.mapOffset(0))
	assert.Equal(t, 20, m.mapOffset(10))
}

func TestMoveMapOffset_ZeroDeletionLen(t *testing.T) {
	m := move{insertionStart: 7, exact: false, deletionLen: 0, insertionLen: 5}
	assert.Equal(t, 7, m.mapOffset(0))
}

func TestRunesIndex(t *testing.T) {
	assert.Equal(t, 0, runesIndex([]rune("abcdef"), []rune{}))
	assert.Equal(t, 2, runesIndex([]rune("abcdef"), []rune("cde")))
	assert.Equal(t, -1, runesIndex([]rune("abcdef"), []rune("xyz")))
	assert.Equal(t, -1, runesIndex([]rune("ab"), []rune("abcdef")))
}
