package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_RegExp_PositiveMatches(t *testing.T) {
	re, err := NewRegExp(`[a-z_]`)
	require.NoError(t, err)

	assert.True(t, re.Matches("a"))
	assert.True(t, re.Matches("_"))
	assert.False(t, re.Matches("A"))
	assert.False(t, re.Matches(""))
	assert.False(t, re.Matches("ab"), "non-plus class should not match multiple runes")
}

func Test_RegExp_PlusQuantifiedMatchesRuns(t *testing.T) {
	re, err := NewRegExp(`[a-z]+`)
	require.NoError(t, err)

	assert.True(t, re.Matches("abc"))
	assert.False(t, re.Matches("abC"))
}

func Test_RegExp_NegativeContainsForbidden(t *testing.T) {
	re, err := NewRegExp(`[^"\n]`)
	require.NoError(t, err)

	assert.True(t, re.Negative)
	assert.True(t, re.ContainsForbidden(`he said "hi"`))
	assert.False(t, re.ContainsForbidden("plain text"))
}

func Test_CompileCharClass_Malformed(t *testing.T) {
	_, err := NewRegExp(`[abc`)
	assert.Error(t, err)
}

func Test_CompileCharClass_EscapedRanges(t *testing.T) {
	re, err := NewRegExp(`[\n\t a-z]`)
	require.NoError(t, err)

	assert.True(t, re.Matches("\n"))
	assert.True(t, re.Matches("\t"))
	assert.True(t, re.Matches(" "))
	assert.True(t, re.Matches("m"))
	assert.False(t, re.Matches("M"))
}
