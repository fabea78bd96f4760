package matcher

import (
	"strings"

	"github.com/dekarrin/gramlock/internal/gram/allowed"
	"github.com/dekarrin/gramlock/internal/gram/symbol"
	"github.com/dekarrin/gramlock/oracle"
)

// TerminalMatcher walks a Terminal's literal text one byte index at a time.
// Terminal literals are assumed ASCII, consistent with the rest of the
// grammar's token-spelled constructs (rule names, operators); Unicode
// literals would need rune-based indexing instead.
type TerminalMatcher struct {
	symbol *symbol.Terminal
	index  int
}

// NewTerminalMatcher creates a matcher positioned at the start of t.
func NewTerminalMatcher(t *symbol.Terminal) *TerminalMatcher {
	return &TerminalMatcher{symbol: t}
}

func (m *TerminalMatcher) Effective() Matcher { return m }

func (m *TerminalMatcher) snapshot() Cursor { return Cursor{Kind: "terminal", Index: m.index} }

func (m *TerminalMatcher) Debug() string {
	if m.index <= 0 || m.index >= len(m.symbol.Value) {
		return m.symbol.String()
	}
	return "t'" + m.symbol.Value[:m.index] + "[" + m.symbol.Value[m.index:] + "]'"
}

func (m *TerminalMatcher) AllowedTokens(o oracle.Oracle) allowed.Set {
	cache := m.symbol.AllowedCacheFor(m.index, func() map[int]struct{} {
		rest := m.symbol.Value[m.index:]
		out := map[int]struct{}{}
		for id, s := range oracle.DecodeDictionary(o) {
			if s != "" && strings.HasPrefix(rest, s) {
				out[id] = struct{}{}
			}
		}
		return out
	})
	return allowed.Set{Allowed: cache}
}

func (m *TerminalMatcher) Advance(o oracle.Oracle, tokenID int) Step {
	d := oracle.DecodeDictionary(o)
	t := d[tokenID]
	rest := m.symbol.Value[m.index:]

	if !(len(t) <= len(rest) && rest[:len(t)] == t) {
		if m.index == 0 {
			t = suffixPrefix(t, m.symbol.Value)
			if t == "" {
				return Reject
			}
		} else {
			return Reject
		}
	}

	m.index += len(t)
	if m.index >= len(m.symbol.Value) {
		return Done
	}
	return Again
}

// suffixPrefix returns the longest prefix of prefixFrom that is also a
// suffix of suffixFrom, ported from get_suffix_prefix in
// original_source/state_machine.py: used to let a token whose tail spells
// the start of a Terminal (or the start of the forbidden-character lookout
// for a negative RegExp) enter mid-literal instead of being rejected.
func suffixPrefix(suffixFrom, prefixFrom string) string {
	max := len(suffixFrom)
	if len(prefixFrom) < max {
		max = len(prefixFrom)
	}
	i := 1
	for i <= max {
		if suffixFrom[len(suffixFrom)-i:] != prefixFrom[:i] {
			break
		}
		i++
	}
	return prefixFrom[:i-1]
}
