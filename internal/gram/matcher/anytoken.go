package matcher

import (
	"github.com/dekarrin/gramlock/internal/gram/allowed"
	"github.com/dekarrin/gramlock/oracle"
)

// anyTokenMatcher matches the ".*" symbol: it accepts any token forever and
// is always itself a legal place to stop (AllowEOS true), never completing
// on its own. It carries no state, so a single shared instance serves every
// position that enters it.
type anyTokenMatcher struct{}

// AnyTokenMatcherInstance is the stateless matcher for symbol.AnyToken.
var AnyTokenMatcherInstance Matcher = anyTokenMatcher{}

func (anyTokenMatcher) Effective() Matcher { return AnyTokenMatcherInstance }

func (anyTokenMatcher) snapshot() Cursor { return Cursor{Kind: "any"} }

func (anyTokenMatcher) Debug() string { return ".*" }

func (anyTokenMatcher) AllowedTokens(oracle.Oracle) allowed.Set {
	return allowed.Set{AllowEOS: true}
}

func (anyTokenMatcher) Advance(oracle.Oracle, int) Step {
	return Again
}
