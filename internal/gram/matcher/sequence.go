package matcher

import (
	"strings"

	"github.com/dekarrin/gramlock/internal/gram/allowed"
	"github.com/dekarrin/gramlock/internal/gram/symbol"
	"github.com/dekarrin/gramlock/oracle"
)

// SequenceMatcher walks an ordered Sequence, instantiating each child
// matcher lazily as the cursor reaches it. Ported from
// original_source/state_machine.py's SequenceMatcher, including the
// look-ahead union across nullable children in AllowedTokens.
type SequenceMatcher struct {
	grammar *symbol.Grammar
	symbol  *symbol.Sequence
	items   []Matcher
	index   int
}

// NewSequenceMatcher builds a matcher over seq, entering its first child
// immediately (matching Symbol.enter's call to ensure_matcher(g) at index
// 0 in the original).
func NewSequenceMatcher(g *symbol.Grammar, seq *symbol.Sequence) (*SequenceMatcher, error) {
	m := &SequenceMatcher{
		grammar: g,
		symbol:  seq,
		items:   make([]Matcher, len(seq.Items)),
	}
	if err := m.ensure(0); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SequenceMatcher) ensure(i int) error {
	if m.items[i] != nil {
		return nil
	}
	child, err := Enter(m.grammar, m.symbol.Items[i])
	if err != nil {
		return err
	}
	m.items[i] = child
	return nil
}

func (m *SequenceMatcher) Effective() Matcher {
	if m.items[m.index] == nil {
		return nil
	}
	return m.items[m.index].Effective()
}

func (m *SequenceMatcher) snapshot() Cursor {
	children := make([]Cursor, len(m.items))
	for i, it := range m.items {
		if it == nil {
			continue
		}
		children[i] = Snapshot(it)
	}
	return Cursor{Kind: "sequence", Index: m.index, Children: children}
}

func (m *SequenceMatcher) Debug() string {
	parts := make([]string, len(m.symbol.Items))
	for i, it := range m.symbol.Items {
		if i == m.index && m.items[i] != nil {
			parts[i] = "[" + m.items[i].Debug() + "]"
		} else {
			parts[i] = it.String()
		}
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (m *SequenceMatcher) AllowedTokens(o oracle.Oracle) allowed.Set {
	rv := m.items[m.index].AllowedTokens(o)
	if !rv.LookAhead {
		return rv
	}

	ahead := rv
	i := m.index
	for i < len(m.symbol.Items)-1 {
		i++
		if err := m.ensure(i); err != nil {
			// a resolution error here means the grammar failed validation
			// already, which Enter would have surfaced when this matcher
			// tree was built; treat as no further look-ahead.
			break
		}
		ahead = m.items[i].AllowedTokens(o)
		rv = allowed.Combine(rv, ahead)
		if !ahead.LookAhead {
			break
		}
	}
	if !ahead.LookAhead {
		rv.LookAhead = false
	}
	return rv
}

func (m *SequenceMatcher) Advance(o oracle.Oracle, tokenID int) Step {
	a := m.items[m.index].Advance(o, tokenID)
	if a == Done || a == TryNext {
		if m.index < len(m.symbol.Items)-1 {
			m.index++
			if err := m.ensure(m.index); err != nil {
				return Reject
			}
			if a == TryNext {
				return m.Advance(o, tokenID)
			}
			a = Again
		}
	}
	return a
}
