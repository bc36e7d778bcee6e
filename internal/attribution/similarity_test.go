package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJaroWinkler_IdenticalStrings(t *testing.T) {
	assert.Equal(t, 1.0, jaroWinkler([]rune("hello world"), []rune("hello world")))
}

func TestJaroWinkler_EmptyStrings(t *testing.T) {
	assert.Equal(t, 1.0, jaroWinkler(nil, nil))
	assert.Equal(t, 0.0, jaroWinkler([]rune("a"), nil))
}

func TestJaroWinkler_SharedPrefixScoresHigherThanSharedSuffix(t *testing.T) {
	base := []rune("function helper")
	prefixShared := []rune("function helperXXXXX")
	suffixShared := []rune("XXXXXfunction helper")

	prefixScore := jaroWinkler(base, prefixShared)
	suffixScore := jaroWinkler(base, suffixShared)

	assert.Greater(t, prefixScore, suffixScore)
}

func TestJaroWinkler_CompletelyDifferent(t *testing.T) {
	score := jaroWinkler([]rune("abcdefgh"), []rune("zzzzzzzz"))
	assert.Less(t, score, 0.3)
}

func TestJaroSimilarity_Transpositions(t *testing.T) {
	score := jaroSimilarity([]rune("martha"), []rune("marhta"))
	assert.InDelta(t, 0.944, score, 0.01)
}
