// Package symbol holds the immutable symbol tree that a grammar parses into:
// Terminal, RegExp, AnyToken, NonTerminal, Sequence, Alternative, and Repeat,
// plus the Grammar that maps rule names to them. It is deliberately free of
// any notion of tokenizer vocabulary or matcher cursor state; that mutable,
// token-aware layer lives in internal/gram/matcher.
//
// Modeled on the Production/LR0Item style of the teacher's own
// internal/tunascript grammar types: value objects with String() for
// debugging and Equal() for the comment-strip-equivalence property.
package symbol

import (
	"fmt"
	"strings"
)

// Symbol is one node of the immutable grammar tree.
type Symbol interface {
	fmt.Stringer

	// Equal reports whether this symbol is structurally identical to o. Used
	// to verify that stripping comments from grammar text does not change
	// the parsed tree.
	Equal(o Symbol) bool
}

// Terminal is a non-empty literal string that must be spelled out exactly.
type Terminal struct {
	Value string

	// allowedCache maps a byte index into Value to the set of vocabulary
	// token ids whose decoded string is a non-empty prefix of Value[index:].
	// Populated lazily by the matcher on first use; lives on the symbol (not
	// the matcher) because it is immutable grammar-derived data shared by
	// every session that enters this Terminal.
	allowedCache map[int]map[int]struct{}
}

// NewTerminal creates a Terminal, initializing its prefix cache.
func NewTerminal(value string) *Terminal {
	return &Terminal{Value: value, allowedCache: make(map[int]map[int]struct{})}
}

func (t *Terminal) String() string { return fmt.Sprintf("%q", t.Value) }

func (t *Terminal) Equal(o Symbol) bool {
	ot, ok := o.(*Terminal)
	return ok && ot.Value == t.Value
}

// AllowedCacheFor returns the cached allowed-id set for the given index into
// Value, computing it with compute if absent.
func (t *Terminal) AllowedCacheFor(index int, compute func() map[int]struct{}) map[int]struct{} {
	if cached, ok := t.allowedCache[index]; ok {
		return cached
	}
	set := compute()
	t.allowedCache[index] = set
	return set
}

// RegExp is a character-class symbol: either positive ("[abc]", enumerate
// the tokens that match) or negative ("[^abc]", ban tokens that contain a
// forbidden character). Plus indicates the class was quantified by the A+
// desugaring rule (Repeat's inner copy gets "+" appended to its pattern so a
// single vocabulary token may satisfy a whole run of the class).
type RegExp struct {
	Pattern  string // original source text, e.g. "[^\"]" or "[a-z]+"
	Negative bool

	// Next is set during validation when this RegExp is immediately followed
	// by a Terminal in a Sequence (possibly through a Repeat): the
	// look-ahead decoration described in spec.md section 3. Only meaningful
	// for Negative classes.
	Next *Terminal

	class *charClass
	plus  bool

	allowedCache map[int]struct{}
	bannedCache  map[int]struct{}
}

// NewRegExp compiles a bracketed character class into a RegExp symbol.
func NewRegExp(pattern string) (*RegExp, error) {
	cls, negative, plus, err := compileCharClass(pattern)
	if err != nil {
		return nil, err
	}
	return &RegExp{Pattern: pattern, Negative: negative, class: cls, plus: plus}, nil
}

func (r *RegExp) String() string { return "r" + r.Pattern }

func (r *RegExp) Equal(o Symbol) bool {
	or, ok := o.(*RegExp)
	return ok && or.Pattern == r.Pattern
}

// Matches reports whether s (a decoded vocabulary token string) fully
// satisfies a positive class: non-empty, and every rune is a member, with
// exactly one rune unless the class is quantified with "+".
func (r *RegExp) Matches(s string) bool {
	if s == "" {
		return false
	}
	runes := []rune(s)
	if !r.plus && len(runes) != 1 {
		return false
	}
	for _, rn := range runes {
		if !r.class.has(rn) {
			return false
		}
	}
	return true
}

// ContainsForbidden reports whether s contains at least one rune that is a
// member of a Negative class's listed character set.
func (r *RegExp) ContainsForbidden(s string) bool {
	for _, rn := range s {
		if r.class.has(rn) {
			return true
		}
	}
	return false
}

// AllowedCache lazily computes and caches the positive allowed-id set.
func (r *RegExp) AllowedCache(compute func() map[int]struct{}) map[int]struct{} {
	if r.allowedCache != nil {
		return r.allowedCache
	}
	r.allowedCache = compute()
	return r.allowedCache
}

// BannedCache lazily computes and caches the negative banned-id set.
func (r *RegExp) BannedCache(compute func() map[int]struct{}) map[int]struct{} {
	if r.bannedCache != nil {
		return r.bannedCache
	}
	r.bannedCache = compute()
	return r.bannedCache
}

// AnyToken is the sentinel symbol produced from the pattern ".*": it accepts
// any token forever and never terminates on its own.
type AnyToken struct{}

func (AnyToken) String() string { return ".*" }

func (AnyToken) Equal(o Symbol) bool {
	_, ok := o.(AnyToken)
	return ok
}

// NonTerminal is a reference to a named rule, resolved lazily through the
// owning Grammar's name map at matcher-entry time (never at tree-construction
// time), so the symbol graph may be cyclic as long as no cycle is
// degenerate (see Grammar.resolve).
type NonTerminal struct {
	Name string
}

func (n NonTerminal) String() string { return n.Name }

func (n NonTerminal) Equal(o Symbol) bool {
	on, ok := o.(NonTerminal)
	return ok && on.Name == n.Name
}

// Sequence is an ordered concatenation of symbols.
type Sequence struct {
	Items []Symbol
}

func (s *Sequence) String() string {
	parts := make([]string, len(s.Items))
	for i, it := range s.Items {
		parts[i] = it.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (s *Sequence) Equal(o Symbol) bool {
	os, ok := o.(*Sequence)
	if !ok || len(os.Items) != len(s.Items) {
		return false
	}
	for i := range s.Items {
		if !s.Items[i].Equal(os.Items[i]) {
			return false
		}
	}
	return true
}

// Alternative is an unordered choice between symbols. Nested Alternatives
// are flattened at parse time (NewAlternative does the flattening), and
// children are deduplicated-by-flattening but otherwise preserve source
// order.
type Alternative struct {
	Items []Symbol
}

// NewAlternative builds an Alternative from items, flattening any item that
// is itself an Alternative so that `a | (b | c)` and `a | b | c` produce the
// same tree.
func NewAlternative(items []Symbol) *Alternative {
	alt := &Alternative{}
	for _, it := range items {
		if nested, ok := it.(*Alternative); ok {
			alt.Items = append(alt.Items, nested.Items...)
		} else {
			alt.Items = append(alt.Items, it)
		}
	}
	return alt
}

func (a *Alternative) String() string {
	parts := make([]string, len(a.Items))
	for i, it := range a.Items {
		parts[i] = it.String()
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

func (a *Alternative) Equal(o Symbol) bool {
	oa, ok := o.(*Alternative)
	if !ok || len(oa.Items) != len(a.Items) {
		return false
	}
	for i := range a.Items {
		if !a.Items[i].Equal(oa.Items[i]) {
			return false
		}
	}
	return true
}

// RepeatMode is the postfix quantifier of a Repeat symbol.
type RepeatMode byte

const (
	ZeroOrOne RepeatMode = '?'
	ZeroOrMore RepeatMode = '*'
)

// Repeat wraps Item in a `?` (zero-or-one) or `*` (zero-or-more) quantifier.
// The source form `A+` is desugared by the parser into
// Sequence(A, Repeat(*, A)) before it ever reaches this type.
type Repeat struct {
	Mode RepeatMode
	Item Symbol
}

func (r *Repeat) String() string {
	switch r.Item.(type) {
	case *Terminal, NonTerminal:
		return fmt.Sprintf("(%s)%c", r.Item, r.Mode)
	default:
		return fmt.Sprintf("%s%c", r.Item, r.Mode)
	}
}

func (r *Repeat) Equal(o Symbol) bool {
	or, ok := o.(*Repeat)
	return ok && or.Mode == r.Mode && r.Item.Equal(or.Item)
}
