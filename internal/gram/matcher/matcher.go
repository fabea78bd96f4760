// Package matcher implements the mutable matcher tree (component E): the
// per-session cursor state that walks a symbol.Grammar one vocabulary token
// at a time. Grounded on original_source/state_machine.go's Matcher
// hierarchy; every Step/Advance rule here is ported in meaning, not just in
// shape, from that file.
package matcher

import (
	"github.com/dekarrin/gramlock/internal/gram/allowed"
	"github.com/dekarrin/gramlock/internal/gram/symbol"
	"github.com/dekarrin/gramlock/oracle"
)

// Step is the result of feeding one token id into a Matcher's Advance.
type Step int

const (
	// Again means the token partially matched; the matcher stays active and
	// expects more tokens.
	Again Step = iota
	// Done means the token completed this matcher; the caller should not
	// call Advance on it again.
	Done
	// Reject means the token does not match at all.
	Reject
	// TryNext means this matcher is satisfied by not matching (a nullable
	// position was skipped) and the caller should retry the token against
	// whatever comes next.
	TryNext
)

func (s Step) String() string {
	switch s {
	case Again:
		return "again"
	case Done:
		return "done"
	case Reject:
		return "reject"
	case TryNext:
		return "try-next"
	default:
		return "unknown"
	}
}

// Matcher is one live node of the matcher tree.
type Matcher interface {
	// AllowedTokens returns the set of vocabulary ids legal to emit next
	// from this matcher's current position.
	AllowedTokens(o oracle.Oracle) allowed.Set

	// Advance feeds a sampled token id into this matcher, mutating its
	// cursor state, and reports what happened.
	Advance(o oracle.Oracle, tokenID int) Step

	// Effective returns the matcher that will actually decide the next
	// token: itself for leaf matchers, or the live descendant for
	// composite matchers that have delegated control (e.g. a RepeatMatcher
	// once it is inside its item). Returns nil only when no position is
	// active.
	Effective() Matcher

	// Debug renders the matcher's current cursor state for diagnostics; it
	// carries no behavior of its own.
	Debug() string
}

// Enter resolves sym through g (following NonTerminal chains) and builds the
// live Matcher for its head form, mirroring Symbol.enter in
// original_source/symbols.go.
func Enter(g *symbol.Grammar, sym symbol.Symbol) (Matcher, error) {
	resolved, err := g.Resolve(sym)
	if err != nil {
		return nil, err
	}

	switch s := resolved.(type) {
	case *symbol.Terminal:
		return NewTerminalMatcher(s), nil
	case *symbol.RegExp:
		return NewRegExpMatcher(s), nil
	case symbol.AnyToken:
		return AnyTokenMatcherInstance, nil
	case *symbol.Sequence:
		return NewSequenceMatcher(g, s)
	case *symbol.Alternative:
		return NewAlternativeMatcher(g, s)
	case *symbol.Repeat:
		return NewRepeatMatcher(g, s)
	default:
		panic("matcher.Enter: unresolvable symbol type")
	}
}
