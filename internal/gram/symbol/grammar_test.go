package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewGrammar_MissingRoot(t *testing.T) {
	_, err := NewGrammar(map[string]Symbol{
		"other": NewTerminal("x"),
	})
	assert.Error(t, err)
}

func Test_NewGrammar_UnknownRuleReference(t *testing.T) {
	_, err := NewGrammar(map[string]Symbol{
		"root": NonTerminal{Name: "missing"},
	})
	assert.Error(t, err)
}

func Test_NewGrammar_DegenerateCycle(t *testing.T) {
	_, err := NewGrammar(map[string]Symbol{
		"root": NonTerminal{Name: "a"},
		"a":    NonTerminal{Name: "b"},
		"b":    NonTerminal{Name: "a"},
	})
	assert.Error(t, err)
}

func Test_NewGrammar_NonDegenerateCycleIsAllowed(t *testing.T) {
	// list ::= item list?
	g, err := NewGrammar(map[string]Symbol{
		"root": NonTerminal{Name: "list"},
		"list": &Sequence{Items: []Symbol{
			NonTerminal{Name: "item"},
			&Repeat{Mode: ZeroOrOne, Item: NonTerminal{Name: "list"}},
		}},
		"item": NewTerminal("x"),
	})
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func Test_NewGrammar_EmptyTerminal(t *testing.T) {
	_, err := NewGrammar(map[string]Symbol{
		"root": NewTerminal(""),
	})
	assert.Error(t, err)
}

func Test_Grammar_Resolve_FollowsChain(t *testing.T) {
	term := NewTerminal("hi")
	g, err := NewGrammar(map[string]Symbol{
		"root": NonTerminal{Name: "mid"},
		"mid":  NonTerminal{Name: "leaf"},
		"leaf": term,
	})
	require.NoError(t, err)

	resolved, err := g.Resolve(g.Rules["root"])
	require.NoError(t, err)
	assert.True(t, resolved.Equal(term))
}

func Test_DecorateLookAhead_SetsNextOnRegExpBeforeTerminal(t *testing.T) {
	re, err := NewRegExp(`[^"]`)
	require.NoError(t, err)
	closing := NewTerminal(`"`)

	g, err := NewGrammar(map[string]Symbol{
		"root": &Sequence{Items: []Symbol{
			NewTerminal(`"`),
			&Repeat{Mode: ZeroOrMore, Item: re},
			closing,
		}},
	})
	require.NoError(t, err)
	_ = g

	assert.Same(t, closing, re.Next)
}
