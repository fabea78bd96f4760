package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/gramlock/internal/gram/fixture"
	"github.com/dekarrin/gramlock/internal/gram/symbol"
)

func mustGrammar(t *testing.T, rules map[string]symbol.Symbol) *symbol.Grammar {
	t.Helper()
	g, err := symbol.NewGrammar(rules)
	require.NoError(t, err)
	return g
}

func Test_TerminalMatcher_AdvanceByteAtATime(t *testing.T) {
	tok := fixture.NewTokenizer()
	term := symbol.NewTerminal("Hi")
	g := mustGrammar(t, map[string]symbol.Symbol{"root": term})

	m, err := Enter(g, g.Rules["root"])
	require.NoError(t, err)

	hID := -1
	iID := -1
	for id, s := range tok.DecodeAll() {
		if s == "H" {
			hID = id
		}
		if s == "i" {
			iID = id
		}
	}
	require.NotEqual(t, -1, hID)
	require.NotEqual(t, -1, iID)

	assert.Equal(t, Again, m.Advance(tok, hID))
	assert.Equal(t, Done, m.Advance(tok, iID))
}

func Test_TerminalMatcher_SuffixPrefixEntry(t *testing.T) {
	tok := fixture.NewTokenizer()
	term := symbol.NewTerminal("world")
	g := mustGrammar(t, map[string]symbol.Symbol{"root": term})

	m, err := Enter(g, g.Rules["root"])
	require.NoError(t, err)

	// id 3 decodes to the whole literal "world" in one token.
	assert.Equal(t, Done, m.Advance(tok, 3))
}

func Test_TerminalMatcher_RejectsWrongByte(t *testing.T) {
	tok := fixture.NewTokenizer()
	term := symbol.NewTerminal("Hi")
	g := mustGrammar(t, map[string]symbol.Symbol{"root": term})

	m, err := Enter(g, g.Rules["root"])
	require.NoError(t, err)

	zID := -1
	for id, s := range tok.DecodeAll() {
		if s == "z" {
			zID = id
		}
	}
	require.NotEqual(t, -1, zID)
	assert.Equal(t, Reject, m.Advance(tok, zID))
}

func Test_RegExpMatcher_PositiveSingleRune(t *testing.T) {
	tok := fixture.NewTokenizer()
	re, err := symbol.NewRegExp(`[a-z]`)
	require.NoError(t, err)
	g := mustGrammar(t, map[string]symbol.Symbol{"root": re})

	m, err := Enter(g, g.Rules["root"])
	require.NoError(t, err)

	as := m.AllowedTokens(tok)
	zID := -1
	for id, s := range tok.DecodeAll() {
		if s == "Z" {
			zID = id
		}
	}
	require.NotEqual(t, -1, zID)
	_, zAllowed := as.Allowed[zID]
	assert.False(t, zAllowed, "uppercase is outside [a-z]")

	mID := -1
	for id, s := range tok.DecodeAll() {
		if s == "m" {
			mID = id
		}
	}
	require.NotEqual(t, -1, mID)
	assert.Equal(t, Done, m.Advance(tok, mID))
}

func Test_RegExpMatcher_NegativeRejectsForbiddenChar(t *testing.T) {
	tok := fixture.NewTokenizer()
	re, err := symbol.NewRegExp(`[^"\n]`)
	require.NoError(t, err)
	g := mustGrammar(t, map[string]symbol.Symbol{"root": re})

	m, err := Enter(g, g.Rules["root"])
	require.NoError(t, err)

	quoteID := -1
	for id, s := range tok.DecodeAll() {
		if s == `"` {
			quoteID = id
		}
	}
	require.NotEqual(t, -1, quoteID)
	assert.Equal(t, Reject, m.Advance(tok, quoteID))
}

func Test_AnyTokenMatcher_AlwaysAgainAndAllowsEOS(t *testing.T) {
	tok := fixture.NewTokenizer()
	m := AnyTokenMatcherInstance

	as := m.AllowedTokens(tok)
	assert.True(t, as.AllowEOS)
	assert.Equal(t, Again, m.Advance(tok, 42))
	assert.Same(t, m, m.Effective())
}

func Test_SequenceMatcher_AdvancesThroughChildrenInOrder(t *testing.T) {
	tok := fixture.NewTokenizer()
	seq := &symbol.Sequence{Items: []symbol.Symbol{
		symbol.NewTerminal("Hi"),
		symbol.NewTerminal("!"),
	}}
	g := mustGrammar(t, map[string]symbol.Symbol{"root": seq})

	m, err := Enter(g, g.Rules["root"])
	require.NoError(t, err)

	hID, iID, bangID := -1, -1, -1
	for id, s := range tok.DecodeAll() {
		switch s {
		case "H":
			hID = id
		case "i":
			iID = id
		case "!":
			bangID = id
		}
	}

	assert.Equal(t, Again, m.Advance(tok, hID))
	assert.Equal(t, Again, m.Advance(tok, iID))
	assert.Equal(t, Done, m.Advance(tok, bangID))
}

func Test_SequenceMatcher_RepeatTryNextSkipsToNextChild(t *testing.T) {
	tok := fixture.NewTokenizer()
	seq := &symbol.Sequence{Items: []symbol.Symbol{
		&symbol.Repeat{Mode: symbol.ZeroOrOne, Item: symbol.NewTerminal("x")},
		symbol.NewTerminal("y"),
	}}
	g := mustGrammar(t, map[string]symbol.Symbol{"root": seq})

	m, err := Enter(g, g.Rules["root"])
	require.NoError(t, err)

	yID := -1
	for id, s := range tok.DecodeAll() {
		if s == "y" {
			yID = id
		}
	}
	require.NotEqual(t, -1, yID)

	// "y" does not match the optional "x", so the repeat must try-next and
	// the sequence must retry the same token against the terminal "y".
	assert.Equal(t, Done, m.Advance(tok, yID))
}

func Test_AlternativeMatcher_PrunesRejectedBranches(t *testing.T) {
	tok := fixture.NewTokenizer()
	alt := symbol.NewAlternative([]symbol.Symbol{
		symbol.NewTerminal("foo"),
		symbol.NewTerminal("bar"),
	})
	g := mustGrammar(t, map[string]symbol.Symbol{"root": alt})

	m, err := Enter(g, g.Rules["root"])
	require.NoError(t, err)

	bID := -1
	for id, s := range tok.DecodeAll() {
		if s == "b" {
			bID = id
		}
	}
	require.NotEqual(t, -1, bID)

	assert.Equal(t, Again, m.Advance(tok, bID))

	am := m.(*AlternativeMatcher)
	require.Len(t, am.items, 1, "the foo branch must have been pruned")
	assert.NotSame(t, m, am.Effective(), "a singleton alternative delegates Effective to its one surviving branch")
}

func Test_AlternativeMatcher_AllRejectedYieldsReject(t *testing.T) {
	tok := fixture.NewTokenizer()
	alt := symbol.NewAlternative([]symbol.Symbol{
		symbol.NewTerminal("foo"),
		symbol.NewTerminal("bar"),
	})
	g := mustGrammar(t, map[string]symbol.Symbol{"root": alt})

	m, err := Enter(g, g.Rules["root"])
	require.NoError(t, err)

	zID := -1
	for id, s := range tok.DecodeAll() {
		if s == "z" {
			zID = id
		}
	}
	require.NotEqual(t, -1, zID)
	assert.Equal(t, Reject, m.Advance(tok, zID))
}

func Test_RepeatMatcher_ZeroOrMoreReentersItem(t *testing.T) {
	tok := fixture.NewTokenizer()
	rep := &symbol.Repeat{Mode: symbol.ZeroOrMore, Item: symbol.NewTerminal("a")}
	g := mustGrammar(t, map[string]symbol.Symbol{"root": rep})

	m, err := Enter(g, g.Rules["root"])
	require.NoError(t, err)

	aID := -1
	for id, s := range tok.DecodeAll() {
		if s == "a" {
			aID = id
		}
	}
	require.NotEqual(t, -1, aID)

	as := m.AllowedTokens(tok)
	assert.True(t, as.LookAhead, "a zero-or-more repeat not yet inside its item is nullable")

	assert.Equal(t, Again, m.Advance(tok, aID))
	assert.Equal(t, Again, m.Advance(tok, aID))

	// a zero-or-more repeat re-enters a fresh item after each completed
	// iteration, so it stays nullable (may stop) between every repetition.
	as = m.AllowedTokens(tok)
	assert.True(t, as.LookAhead)
}

func Test_RepeatMatcher_ZeroOrOneCompletesOnDone(t *testing.T) {
	tok := fixture.NewTokenizer()
	rep := &symbol.Repeat{Mode: symbol.ZeroOrOne, Item: symbol.NewTerminal("a")}
	g := mustGrammar(t, map[string]symbol.Symbol{"root": rep})

	m, err := Enter(g, g.Rules["root"])
	require.NoError(t, err)

	aID := -1
	for id, s := range tok.DecodeAll() {
		if s == "a" {
			aID = id
		}
	}
	require.NotEqual(t, -1, aID)
	assert.Equal(t, Done, m.Advance(tok, aID))
}

func Test_Checkpoint_RoundTripsSequencePosition(t *testing.T) {
	tok := fixture.NewTokenizer()
	seq := &symbol.Sequence{Items: []symbol.Symbol{
		symbol.NewTerminal("Hi"),
		symbol.NewTerminal("!"),
	}}
	g := mustGrammar(t, map[string]symbol.Symbol{"root": seq})

	m, err := Enter(g, g.Rules["root"])
	require.NoError(t, err)

	hID, iID := -1, -1
	for id, s := range tok.DecodeAll() {
		switch s {
		case "H":
			hID = id
		case "i":
			iID = id
		}
	}
	require.Equal(t, Again, m.Advance(tok, hID))
	require.Equal(t, Again, m.Advance(tok, iID))

	c := Snapshot(m)
	restored, err := Restore(g, g.Rules["root"], c)
	require.NoError(t, err)

	bangID := -1
	for id, s := range tok.DecodeAll() {
		if s == "!" {
			bangID = id
		}
	}
	assert.Equal(t, Done, restored.Advance(tok, bangID))
}
