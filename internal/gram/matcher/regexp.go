package matcher

import (
	"github.com/dekarrin/gramlock/internal/gram/allowed"
	"github.com/dekarrin/gramlock/internal/gram/cache"
	"github.com/dekarrin/gramlock/internal/gram/symbol"
	"github.com/dekarrin/gramlock/oracle"
)

// RegExpMatcher matches exactly one token against a character class:
// positive classes require the whole decoded token to be members (or a
// run of members, for a "+"-quantified class), negative classes ban any
// token containing a forbidden character, with the suffix/prefix exemption
// against symbol.Next described in original_source/state_machine.py's
// RegExpMatcher.get_allowed_tokens.
type RegExpMatcher struct {
	symbol *symbol.RegExp
}

// NewRegExpMatcher creates a matcher for r. A RegExp is always a single-step
// matcher: one Advance call either finishes it or rejects the token.
func NewRegExpMatcher(r *symbol.RegExp) *RegExpMatcher {
	return &RegExpMatcher{symbol: r}
}

func (m *RegExpMatcher) Effective() Matcher { return m }

func (m *RegExpMatcher) snapshot() Cursor { return Cursor{Kind: "regexp"} }

func (m *RegExpMatcher) Debug() string { return m.symbol.String() }

func (m *RegExpMatcher) AllowedTokens(o oracle.Oracle) allowed.Set {
	d := cache.Normalized(o)

	if m.symbol.Negative {
		banned := m.symbol.BannedCache(func() map[int]struct{} {
			out := map[int]struct{}{}
			for id, s := range d {
				if !m.symbol.ContainsForbidden(s) {
					continue
				}
				if m.symbol.Next != nil && tokenSparedByLookAhead(m.symbol, s) {
					continue
				}
				out[id] = struct{}{}
			}
			return out
		})
		return allowed.Set{Banned: banned}
	}

	allow := m.symbol.AllowedCache(func() map[int]struct{} {
		out := map[int]struct{}{}
		for id, s := range d {
			if m.symbol.Matches(s) {
				out[id] = struct{}{}
			}
		}
		return out
	})
	return allowed.Set{Allowed: allow}
}

// tokenSparedByLookAhead implements the exemption: a token containing a
// forbidden character is still allowed if that character only appears in a
// tail of the token that simultaneously matches the start of the next
// Terminal's text, and the remainder of the token (with that tail removed)
// contains no forbidden character on its own.
func tokenSparedByLookAhead(r *symbol.RegExp, token string) bool {
	s := suffixPrefix(token, r.Next.Value)
	if s == "" || len(s) >= len(token) {
		return false
	}
	return !r.ContainsForbidden(token[:len(token)-len(s)])
}

func (m *RegExpMatcher) Advance(o oracle.Oracle, tokenID int) Step {
	d := cache.Normalized(o)
	s := d[tokenID]
	if m.symbol.Negative {
		if m.symbol.ContainsForbidden(s) {
			return Reject
		}
	} else if !m.symbol.Matches(s) {
		return Reject
	}
	return Done
}
