package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Parse_SimpleSequence(t *testing.T) {
	g, err := Parse(`root ::= "Hello world" [
]+`)
	require.NoError(t, err)
	assert.Contains(t, g.Rules, "root")
}

func Test_Parse_MissingRoot(t *testing.T) {
	_, err := Parse(`greeting ::= "hi"`)
	assert.Error(t, err)
}

func Test_Parse_DuplicateRule(t *testing.T) {
	_, err := Parse("root ::= \"a\"\nroot ::= \"b\"\n")
	assert.Error(t, err)
}

func Test_Parse_UnmatchedQuote(t *testing.T) {
	_, err := Parse(`root ::= "unterminated`)
	assert.Error(t, err)
}

func Test_Parse_UnmatchedBracket(t *testing.T) {
	_, err := Parse(`root ::= [abc`)
	assert.Error(t, err)
}

func Test_Parse_Alternative(t *testing.T) {
	g, err := Parse("root ::= \"a\" | \"b\"\n")
	require.NoError(t, err)
	require.Contains(t, g.Rules, "root")
}

func Test_Parse_PlusDesugarsToSequenceOfItemAndRepeat(t *testing.T) {
	g, err := Parse("root ::= \"a\"+\n")
	require.NoError(t, err)
	assert.Contains(t, g.Rules, "root")
}

func Test_Parse_ParenthesizedGroupWithAlternation(t *testing.T) {
	g, err := Parse("root ::= (\"a\" | \"b\") \"c\"\n")
	require.NoError(t, err)
	assert.Contains(t, g.Rules, "root")
}

func Test_Parse_CommentStripEquivalence(t *testing.T) {
	// Comments only ever swallow up to (not through) the newline already
	// ending a line, so appending one at the end of an existing line must
	// not change the parsed tree.
	plain, err := Parse("root ::= \"a\" \"b\"\nextra ::= \"c\"\n")
	require.NoError(t, err)

	commented, err := Parse("root ::= \"a\" \"b\" # trailing comment\nextra ::= \"c\" # another\n")
	require.NoError(t, err)

	assert.True(t, plain.Rules["root"].Equal(commented.Rules["root"]))
	assert.True(t, plain.Rules["extra"].Equal(commented.Rules["extra"]))
}

func Test_Parse_NonTerminalReference(t *testing.T) {
	g, err := Parse("root ::= greeting\ngreeting ::= \"hi\"\n")
	require.NoError(t, err)
	assert.Contains(t, g.Rules, "greeting")
}

func Test_FindUnescapedIndex_SkipsEscapedNeedle(t *testing.T) {
	idx := findUnescapedIndex(`a\"b"c`, `"`, 0)
	assert.Equal(t, 4, idx)
}

func Test_UnescapeLiteral(t *testing.T) {
	s, err := unescapeLiteral(`a\nb\tc`)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\tc", s)
}
