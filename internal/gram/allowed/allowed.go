// Package allowed implements the AllowedSet algebra: the value object a
// matcher tree uses to describe which vocabulary token ids may legally come
// next, and the Combine/Apply operations spec.md section 4.B defines over
// it. Grounded directly on original_source/utils.go's AllowedTokens class.
package allowed

import "math"

// Set describes, for a single matcher's current position, which vocabulary
// token ids are permitted next. Exactly one of Allowed or Banned holds data
// at a time (or neither, meaning "allow everything"); having both set
// simultaneously is a programmer error in the matcher tree that built this
// Set, not a state this type needs to reconcile itself.
type Set struct {
	// Allowed, if non-empty, is the exhaustive list of ids that may be
	// emitted next; everything else is banned.
	Allowed map[int]struct{}

	// Banned, if non-empty, is the exhaustive list of ids that may NOT be
	// emitted next; everything else is allowed.
	Banned map[int]struct{}

	// LookAhead signals that the symbol producing this Set is nullable from
	// its current position (a Repeat not yet inside its item, or any
	// sequence position reachable through one), so the caller should also
	// fold in the allowed set of whatever follows.
	LookAhead bool

	// AllowEOS signals that ending generation here is a legal way to
	// terminate, independent of Allowed/Banned.
	AllowEOS bool
}

// All is the permissive zero value: no restriction, no look-ahead, no EOS.
func All() Set { return Set{} }

// Combine merges a and b into the Set that describes legality under both
// simultaneously. The four-way case split (both allow-lists, both
// ban-lists, one of each, one side unrestricted) mirrors
// AllowedTokens.combine in original_source/utils.py exactly.
func Combine(a, b Set) Set {
	out := Set{
		LookAhead: a.LookAhead || b.LookAhead,
		AllowEOS:  a.AllowEOS || b.AllowEOS,
	}

	aRestricted := len(a.Allowed) > 0 || len(a.Banned) > 0
	bRestricted := len(b.Allowed) > 0 || len(b.Banned) > 0

	switch {
	case !aRestricted || !bRestricted:
		// one side allows everything; the combination is whatever the other
		// side already says.
	case len(a.Allowed) > 0 && len(b.Allowed) > 0:
		out.Allowed = union(a.Allowed, b.Allowed)
	case len(a.Banned) > 0 && len(b.Banned) > 0:
		out.Banned = intersect(a.Banned, b.Banned)
	case len(a.Allowed) > 0 && len(b.Banned) > 0:
		out.Banned = difference(b.Banned, a.Allowed)
	case len(b.Allowed) > 0 && len(a.Banned) > 0:
		out.Banned = difference(a.Banned, b.Allowed)
	}

	return out
}

// WithLookAhead returns a copy of s with LookAhead forced true, used by
// RepeatMatcher before it has entered its item (spec.md section 4.E.6).
func (s Set) WithLookAhead() Set {
	s.LookAhead = true
	return s
}

// Apply sets the score of every disallowed id in scores to negative
// infinity, in place, following the same two-pass order as
// AllowedTokens.apply: first narrow to Allowed (if any) plus eos, then
// exclude Banned (if any) and eos unless AllowEOS, without double-banning an
// id present in both lists. Because both passes can independently set a
// score to -inf, an Allowed-only Set still ends up banning eos in the
// second pass when AllowEOS is false, even though the first pass admitted
// it.
func (s Set) Apply(scores []float64, eosID int) {
	if len(s.Allowed) > 0 && len(s.Banned) == 0 {
		keep := make(map[int]struct{}, len(s.Allowed)+1)
		for id := range s.Allowed {
			keep[id] = struct{}{}
		}
		keep[eosID] = struct{}{}
		for id := range scores {
			if _, ok := keep[id]; !ok {
				scores[id] = math.Inf(-1)
			}
		}
	}
	if len(s.Banned) > 0 || !s.AllowEOS {
		for id := range s.Banned {
			if _, ok := s.Allowed[id]; !ok {
				scores[id] = math.Inf(-1)
			}
		}
		if !s.AllowEOS && eosID >= 0 && eosID < len(scores) {
			scores[eosID] = math.Inf(-1)
		}
	}
}

func union(a, b map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(a)+len(b))
	for id := range a {
		out[id] = struct{}{}
	}
	for id := range b {
		out[id] = struct{}{}
	}
	return out
}

func intersect(a, b map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{})
	for id := range a {
		if _, ok := b[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func difference(a, b map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{})
	for id := range a {
		if _, ok := b[id]; !ok {
			out[id] = struct{}{}
		}
	}
	return out
}
