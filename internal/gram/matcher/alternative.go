package matcher

import (
	"strings"

	"github.com/dekarrin/gramlock/internal/gram/allowed"
	"github.com/dekarrin/gramlock/internal/gram/symbol"
	"github.com/dekarrin/gramlock/oracle"
)

// AlternativeMatcher holds the live set of child matchers for an
// Alternative, pruning members as they reject or complete. Ported from
// original_source/state_machine.py's AlternativeMatcher, including its
// Done > Again > TryNext > Reject tie-break when combining child results
// (best_a in the original, here named best).
type AlternativeMatcher struct {
	symbol *symbol.Alternative
	items  []Matcher
	orig   []int // origIdx[i] is items[i]'s index into symbol.Items, for Checkpoint
}

// NewAlternativeMatcher enters every branch of alt immediately, mirroring
// the original's set comprehension in Alternative.enter.
func NewAlternativeMatcher(g *symbol.Grammar, alt *symbol.Alternative) (*AlternativeMatcher, error) {
	m := &AlternativeMatcher{symbol: alt}
	for i, it := range alt.Items {
		child, err := Enter(g, it)
		if err != nil {
			return nil, err
		}
		m.items = append(m.items, child)
		m.orig = append(m.orig, i)
	}
	return m, nil
}

func (m *AlternativeMatcher) Effective() Matcher {
	if len(m.items) == 1 {
		return m.items[0].Effective()
	}
	return m
}

func (m *AlternativeMatcher) snapshot() Cursor {
	children := make([]Cursor, len(m.items))
	for i, it := range m.items {
		children[i] = Snapshot(it)
	}
	alive := make([]int, len(m.orig))
	copy(alive, m.orig)
	return Cursor{Kind: "alternative", Alive: alive, Children: children}
}

func (m *AlternativeMatcher) Debug() string {
	parts := make([]string, len(m.items))
	for i, it := range m.items {
		parts[i] = it.Debug()
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

func (m *AlternativeMatcher) AllowedTokens(o oracle.Oracle) allowed.Set {
	var rv allowed.Set
	have := false
	for _, it := range m.items {
		a := it.AllowedTokens(o)
		if !have {
			rv = a
			have = true
		} else {
			rv = allowed.Combine(rv, a)
		}
	}
	if !have {
		return allowed.All()
	}
	return rv
}

func (m *AlternativeMatcher) Advance(o oracle.Oracle, tokenID int) Step {
	best := Reject
	var survivors []Matcher
	var survivorsOrig []int
	for i, it := range m.items {
		a := it.Advance(o, tokenID)
		switch a {
		case Reject, TryNext:
			if a == TryNext && best == Reject {
				best = TryNext
			}
			// dropped: it does not survive into the next round.
		default:
			best = Done
			if a != Done {
				survivors = append(survivors, it)
				survivorsOrig = append(survivorsOrig, m.orig[i])
			}
			// a == Done also drops the branch: it has nothing left to say.
		}
	}
	m.items = survivors
	m.orig = survivorsOrig
	if len(m.items) == 0 {
		return best
	}
	return Again
}
