package gramlock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/gramlock/internal/gram/fixture"
)

func idFor(tok *fixture.Tokenizer, s string) int {
	for id, v := range tok.DecodeAll() {
		if v == s {
			return id
		}
	}
	return -1
}

// allowedIDs returns every token id left with a finite score after
// MaskScores, for assertions that don't want to allocate a full VocabSize
// scores slice inline.
func allowedIDs(t *testing.T, s *Session) map[int]bool {
	t.Helper()
	scores := make([]float64, 127)
	for i := range scores {
		scores[i] = 1
	}
	s.MaskScores(scores)
	out := map[int]bool{}
	for id, sc := range scores {
		if !math.IsInf(sc, -1) {
			out[id] = true
		}
	}
	return out
}

// scenario 1 of spec.md section 8: root ::= "Hello world" [\n]+
func Test_Scenario_HelloWorldNewline(t *testing.T) {
	tok := fixture.NewTokenizer()
	s, err := New(tok, "root ::= \"Hello world\" [\n]+\n")
	require.NoError(t, err)

	for _, id := range tok.Encode("Hello world") {
		allowed := allowedIDs(t, s)
		assert.True(t, allowed[id], "token %d must be legal while spelling the literal", id)
		require.NoError(t, s.Advance(id))
	}

	require.False(t, s.Done())
	allowed := allowedIDs(t, s)
	assert.False(t, allowed[tok.EOSID()], "eos is not legal before any newline has been seen")

	newlineID := idFor(tok, "\n")
	require.NotEqual(t, -1, newlineID)
	require.NoError(t, s.Advance(newlineID))

	allowed = allowedIDs(t, s)
	assert.True(t, allowed[tok.EOSID()], "eos becomes legal once the + has matched at least once")
	assert.True(t, allowed[newlineID], "another newline is still legal too")

	// A Repeat as the final Sequence item returning TryNext propagates all
	// the way to the top unconsumed (see Grammar.advance in
	// original_source/grammar.py, which has no branch for a top-level
	// TryNext either): the host's decode loop is the one that stops on
	// seeing eos once mask_scores allowed it, not Session.Done.
	require.NoError(t, s.Advance(tok.EOSID()))
}

// scenario 3 of spec.md section 8: root ::= '"' [^"]* '"' 'H'
func Test_Scenario_NegativeRegExpLookAheadAcrossClosingQuote(t *testing.T) {
	tok := fixture.NewTokenizer()
	s, err := New(tok, "root ::= '\"' [^\"]* '\"' 'H'\n")
	require.NoError(t, err)

	quoteID := idFor(tok, `"`)
	require.NotEqual(t, -1, quoteID)
	require.NoError(t, s.Advance(quoteID))

	// id 5 decodes to `..."`: its tail spells the closing quote, so the
	// look-ahead exemption must keep it off the banned set even though it
	// contains the otherwise-forbidden character.
	allowed := allowedIDs(t, s)
	assert.True(t, allowed[5], "the suffix-prefix exemption must leave id 5 unmasked")

	require.NoError(t, s.Advance(5))

	hID := idFor(tok, "H")
	require.NotEqual(t, -1, hID)
	allowed = allowedIDs(t, s)
	assert.True(t, allowed[hID], "the matcher must now be positioned at the terminal H")

	require.NoError(t, s.Advance(hID))
	assert.True(t, s.Done())
}

// scenario 5 of spec.md section 8: root ::= (donotend); donotend ::= .*
func Test_Scenario_AnyTokenNeverEndsButAlwaysAllowsEOS(t *testing.T) {
	tok := fixture.NewTokenizer()
	s, err := New(tok, "root ::= donotend\ndonotend ::= .*\n")
	require.NoError(t, err)

	for i := 0; i < 255; i++ {
		allowed := allowedIDs(t, s)
		assert.True(t, allowed[tok.EOSID()], "eos must remain legal at every step through an unbounded .*")
		require.NoError(t, s.Advance((i%95)+32))
		require.False(t, s.Done())
	}
}

// scenario 2 of spec.md section 8 (command branch): forcing the first
// non-space character after "Alice: " to be '/' must prune the action
// alternative down to the command branch and yield exactly "go hall".
func Test_Scenario_AliceCommandBranch(t *testing.T) {
	tok := fixture.NewTokenizer()
	def := "root ::= \"Alice:\" \" \" action\n" +
		"action ::= speech | bullet | command\n" +
		"speech ::= '\"' [^\"\\n]+ '\"'\n" +
		"bullet ::= \"- \" \"I'll go\" \" \" \"to\" \" \" location \" \" \"and do\" [^\n]+\n" +
		"command ::= \"/go \" location\n" +
		"location ::= \"hall\"\n"
	s, err := New(tok, def)
	require.NoError(t, err)

	for _, id := range tok.Encode("Alice:") {
		require.NoError(t, s.Advance(id))
	}
	require.NoError(t, s.Advance(idFor(tok, " ")))
	require.False(t, s.Done())

	// forcing '/' must reject the speech and bullet branches outright,
	// leaving only command live.
	require.NoError(t, s.Advance(idFor(tok, "/")))

	for _, id := range tok.Encode("go hall") {
		require.NoError(t, s.Advance(id))
	}
	assert.True(t, s.Done(), "command \"/go \" location must fully satisfy root once \"hall\" is spelled")
}

// scenario 2 of spec.md section 8 (speech branch): forcing '"' must yield a
// string ending in '"'.
func Test_Scenario_AliceSpeechBranch(t *testing.T) {
	tok := fixture.NewTokenizer()
	def := "root ::= \"Alice:\" \" \" action\n" +
		"action ::= speech | bullet | command\n" +
		"speech ::= '\"' [^\"\\n]+ '\"'\n" +
		"bullet ::= \"- \" \"I'll go\" \" \" \"to\" \" \" location \" \" \"and do\" [^\n]+\n" +
		"command ::= \"/go \" location\n" +
		"location ::= \"hall\"\n"
	s, err := New(tok, def)
	require.NoError(t, err)

	for _, id := range tok.Encode("Alice:") {
		require.NoError(t, s.Advance(id))
	}
	require.NoError(t, s.Advance(idFor(tok, " ")))

	quoteID := idFor(tok, `"`)
	require.NoError(t, s.Advance(quoteID))
	require.False(t, s.Done())

	require.NoError(t, s.Advance(idFor(tok, "h")))
	require.NoError(t, s.Advance(idFor(tok, "i")))
	require.False(t, s.Done(), "speech's [^\"\\n]+ has matched but the closing quote is still pending")

	require.NoError(t, s.Advance(quoteID))
	assert.True(t, s.Done(), "action was root's final item, so closing the speech string satisfies root")
}

// scenario 4 of spec.md section 8: a JSON-shaped grammar. After "{" and any
// whitespace, only "}" or '"' (plus whitespace) is allowed; after a string
// key, only ':' and whitespace are allowed; after the comma following a
// "true" value, a new member key (so '"', plus whitespace) is allowed again.
func Test_Scenario_JSONObjectMasking(t *testing.T) {
	tok := fixture.NewTokenizer()
	def := "root ::= value\n" +
		"value ::= object | string | \"true\"\n" +
		"object ::= \"{\" ws (member (\",\" ws member)*)? ws \"}\"\n" +
		"member ::= string ws \":\" ws value\n" +
		"string ::= '\"' [^\"]* '\"'\n" +
		"ws ::= [ \\t\\n]*\n"
	s, err := New(tok, def)
	require.NoError(t, err)

	require.NoError(t, s.Advance(idFor(tok, "{")))
	require.NoError(t, s.Advance(idFor(tok, " ")))

	allowed := allowedIDs(t, s)
	assert.True(t, allowed[idFor(tok, "}")], "an empty object must be allowed to close here")
	assert.True(t, allowed[idFor(tok, `"`)], "a member key may start here")
	assert.True(t, allowed[idFor(tok, " ")], "more whitespace may follow")
	assert.False(t, allowed[idFor(tok, "t")], "a bare value can't start a member position")

	// spell a one-character string key.
	require.NoError(t, s.Advance(idFor(tok, `"`)))
	require.NoError(t, s.Advance(idFor(tok, "a")))
	require.NoError(t, s.Advance(idFor(tok, `"`)))

	allowed = allowedIDs(t, s)
	assert.True(t, allowed[idFor(tok, ":")], "only ':' may follow a completed key")
	assert.True(t, allowed[idFor(tok, " ")], "whitespace may separate the key from ':'")
	assert.False(t, allowed[idFor(tok, `"`)], "a second string cannot directly follow a key")

	require.NoError(t, s.Advance(idFor(tok, ":")))
	require.NoError(t, s.Advance(idFor(tok, " ")))

	for _, id := range tok.Encode("true") {
		require.NoError(t, s.Advance(id))
	}
	require.False(t, s.Done(), "object still needs its closing brace")

	require.NoError(t, s.Advance(idFor(tok, ",")))

	allowed = allowedIDs(t, s)
	// the grammar above requires every member's key to be a string, so a
	// comma is only ever followed by another key, not a bare value.
	assert.True(t, allowed[idFor(tok, `"`)], "a comma must be followed by another member key")
	assert.True(t, allowed[idFor(tok, " ")])
	assert.False(t, allowed[idFor(tok, "{")], "a member key can't be a nested object in this grammar")
}

// scenario 6 of spec.md section 8: root ::= many; many ::= one one one+;
// one ::= foo | bar; foo ::= "foo"; bar ::= "b" "a"+ "r"
func Test_Scenario_GreedyTraceAlwaysSpellsFooOrBa(t *testing.T) {
	tok := fixture.NewTokenizer()
	s, err := New(tok, "root ::= many\nmany ::= one one one+\none ::= foo | bar\nfoo ::= \"foo\"\nbar ::= \"b\" \"a\"+ \"r\"\n")
	require.NoError(t, err)

	// drive the first "one" down the "bar" branch: b, a, r.
	bID, aID, rID := idFor(tok, "b"), idFor(tok, "a"), idFor(tok, "r")
	require.NotEqual(t, -1, bID)
	require.NotEqual(t, -1, aID)
	require.NotEqual(t, -1, rID)

	require.NoError(t, s.Advance(bID))
	require.NoError(t, s.Advance(aID))
	require.NoError(t, s.Advance(rID))
	require.False(t, s.Done())
}
