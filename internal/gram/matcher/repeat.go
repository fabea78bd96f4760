package matcher

import (
	"github.com/dekarrin/gramlock/internal/gram/allowed"
	"github.com/dekarrin/gramlock/internal/gram/symbol"
	"github.com/dekarrin/gramlock/oracle"
)

// RepeatMatcher wraps a `?` or `*` quantified item. Ported from
// original_source/state_machine.py's RepeatMatcher: "inside" tracks whether
// the current repetition has started consuming tokens (Effective delegates
// to the item while inside, and returns this matcher itself while the
// position is still nullable, which is what lets AllowedTokens mark
// look-ahead).
type RepeatMatcher struct {
	grammar *symbol.Grammar
	symbol  *symbol.Repeat
	item    Matcher
	inside  bool
}

// NewRepeatMatcher enters symbol.Item once up front, mirroring Repeat.enter.
func NewRepeatMatcher(g *symbol.Grammar, rep *symbol.Repeat) (*RepeatMatcher, error) {
	item, err := Enter(g, rep.Item)
	if err != nil {
		return nil, err
	}
	return &RepeatMatcher{grammar: g, symbol: rep, item: item}, nil
}

func (m *RepeatMatcher) Effective() Matcher {
	if m.inside {
		return m.item.Effective()
	}
	return m
}

func (m *RepeatMatcher) Debug() string { return m.symbol.String() }

func (m *RepeatMatcher) snapshot() Cursor {
	return Cursor{Kind: "repeat", Inside: m.inside, Children: []Cursor{Snapshot(m.item)}}
}

func (m *RepeatMatcher) AllowedTokens(o oracle.Oracle) allowed.Set {
	rv := m.item.AllowedTokens(o)
	if !m.inside {
		return rv.WithLookAhead()
	}
	return rv
}

func (m *RepeatMatcher) Advance(o oracle.Oracle, tokenID int) Step {
	a := m.item.Advance(o, tokenID)
	switch a {
	case Reject:
		if m.inside {
			return a
		}
		return TryNext
	case Done:
		if m.symbol.Mode == symbol.ZeroOrMore {
			next, err := Enter(m.grammar, m.symbol.Item)
			if err != nil {
				return Reject
			}
			m.item = next
			m.inside = false
			return Again
		}
		return Done
	case Again:
		m.inside = true
	}
	return a
}
