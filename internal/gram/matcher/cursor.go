package matcher

import (
	"github.com/dekarrin/gramlock/internal/gram/symbol"
	"github.com/dekarrin/gramlock/internal/gramerr"
)

// Cursor is the serializable snapshot of one Matcher's cursor state,
// exported purely so github.com/dekarrin/rezi's reflective binary codec
// (see the root Session.Checkpoint) can encode and decode it without any
// bespoke marshaling code. It carries none of the behavior a live Matcher
// has; Restore rebuilds a live matcher tree from a Cursor plus the
// immutable symbol it was taken against.
type Cursor struct {
	Kind string // "terminal", "regexp", "any", "sequence", "alternative", "repeat"

	Index  int  // terminal: byte offset. sequence: active child index.
	Inside bool // repeat: whether the current iteration has consumed a token.

	// Alive holds, for an alternative, the indices into the original
	// Alternative.Items that are still live, in the same order as
	// Children.
	Alive []int

	// Children holds nested cursors: one per Sequence item (a zero Cursor,
	// Kind == "", marks a slot not yet instantiated), one per surviving
	// Alternative branch (parallel to Alive), or a single entry for a
	// Repeat's current item.
	Children []Cursor
}

// Snapshot takes a Cursor of m's current state.
func Snapshot(m Matcher) Cursor {
	return m.(snapshotter).snapshot()
}

type snapshotter interface {
	snapshot() Cursor
}

// Restore rebuilds a live Matcher for sym against grammar g, replaying the
// cursor state recorded in c. c must have been produced by Snapshot against
// a matcher entered from the same sym (typically after a prior
// matcher.Enter(g, sym)); mismatched shapes return a *gramerr.GrammarError.
func Restore(g *symbol.Grammar, sym symbol.Symbol, c Cursor) (Matcher, error) {
	resolved, err := g.Resolve(sym)
	if err != nil {
		return nil, err
	}

	switch s := resolved.(type) {
	case *symbol.Terminal:
		if c.Kind != "terminal" {
			return nil, shapeErr("terminal", c.Kind)
		}
		return &TerminalMatcher{symbol: s, index: c.Index}, nil

	case *symbol.RegExp:
		if c.Kind != "regexp" {
			return nil, shapeErr("regexp", c.Kind)
		}
		return NewRegExpMatcher(s), nil

	case symbol.AnyToken:
		if c.Kind != "any" {
			return nil, shapeErr("any", c.Kind)
		}
		return AnyTokenMatcherInstance, nil

	case *symbol.Sequence:
		if c.Kind != "sequence" || len(c.Children) != len(s.Items) {
			return nil, shapeErr("sequence", c.Kind)
		}
		items := make([]Matcher, len(s.Items))
		for i, child := range c.Children {
			if child.Kind == "" {
				continue
			}
			m, err := Restore(g, s.Items[i], child)
			if err != nil {
				return nil, err
			}
			items[i] = m
		}
		return &SequenceMatcher{grammar: g, symbol: s, items: items, index: c.Index}, nil

	case *symbol.Alternative:
		if c.Kind != "alternative" || len(c.Alive) != len(c.Children) {
			return nil, shapeErr("alternative", c.Kind)
		}
		items := make([]Matcher, len(c.Alive))
		for i, origIdx := range c.Alive {
			if origIdx < 0 || origIdx >= len(s.Items) {
				return nil, gramerr.NewGrammarError("checkpoint references out-of-range alternative branch", nil)
			}
			m, err := Restore(g, s.Items[origIdx], c.Children[i])
			if err != nil {
				return nil, err
			}
			items[i] = m
		}
		return &AlternativeMatcher{symbol: s, items: items}, nil

	case *symbol.Repeat:
		if c.Kind != "repeat" || len(c.Children) != 1 {
			return nil, shapeErr("repeat", c.Kind)
		}
		item, err := Restore(g, s.Item, c.Children[0])
		if err != nil {
			return nil, err
		}
		return &RepeatMatcher{grammar: g, symbol: s, item: item, inside: c.Inside}, nil

	default:
		return nil, gramerr.NewGrammarError("unresolvable symbol type in checkpoint", nil)
	}
}

func shapeErr(want, got string) error {
	return gramerr.NewGrammarError("checkpoint shape mismatch: expected "+want+" cursor, got '"+got+"'", nil)
}
