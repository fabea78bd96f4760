// Package gramlock implements the grammar session (component F): the
// object a host's decoding loop holds for the lifetime of one generation,
// exposing Reset/MaskScores/Advance/EnterRule per spec.md section 4.F.
// Modeled on the Engine type in this repository's own teacher lineage
// (a small struct owning mutable state plus a constructor that validates
// its inputs once up front), generalized from a single game loop to an
// arbitrary user-supplied CFG.
package gramlock

import (
	"github.com/dekarrin/gramlock/internal/gram/allowed"
	"github.com/dekarrin/gramlock/internal/gram/matcher"
	"github.com/dekarrin/gramlock/internal/gram/parse"
	"github.com/dekarrin/gramlock/internal/gram/symbol"
	"github.com/dekarrin/gramlock/internal/gramerr"
	"github.com/dekarrin/gramlock/oracle"
)

// Session owns the immutable symbol tree for a parsed grammar and the
// single mutable matcher cursor walking it. It is not safe for concurrent
// use: spec.md's concurrency model is single-threaded cooperative, entered
// exactly once per decoding step.
type Session struct {
	oracle  oracle.Oracle
	grammar *symbol.Grammar
	active  matcher.Matcher // nil once the grammar has accepted; only EOS may follow
}

// New parses definition and enters the root rule, returning a Session ready
// to mask and advance. o is retained for the life of the session; per
// spec.md section 5, changing tokenizer identity mid-session is undefined.
func New(o oracle.Oracle, definition string) (*Session, error) {
	s := &Session{oracle: o}
	if err := s.Reset(definition); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset re-enters the grammar at root. If definition is non-empty it is
// parsed and validated first, replacing the session's grammar entirely;
// otherwise the session's existing grammar is reused, mirroring
// Grammar.reset in original_source/grammar.py (reset(None) just re-enters
// root without reparsing).
func (s *Session) Reset(definition string) error {
	if definition != "" {
		g, err := parse.Parse(definition)
		if err != nil {
			return err
		}
		s.grammar = g
	}
	if s.grammar == nil {
		return gramerr.NewValidationError("no grammar loaded", nil)
	}
	return s.EnterRule(symbol.RootRule)
}

// EnterRule sets the active matcher to the named rule directly, bypassing
// whatever the current cursor position was. Primarily a testing hook per
// spec.md section 4.F, but left first-class since a host debugging tool may
// reasonably want to force a position too.
func (s *Session) EnterRule(name string) error {
	sym, ok := s.grammar.Rules[name]
	if !ok {
		return gramerr.NewValidationError("invalid rule name '"+name+"'", nil)
	}
	m, err := matcher.Enter(s.grammar, sym)
	if err != nil {
		return err
	}
	s.active = m
	return nil
}

// MaskScores sets every vocabulary id in scores that is not currently legal
// to negative infinity, in place. scores must have length
// s.oracle.VocabSize().
func (s *Session) MaskScores(scores []float64) {
	if s.active == nil {
		allowed.Set{Allowed: map[int]struct{}{s.oracle.EOSID(): {}}, AllowEOS: true}.Apply(scores, s.oracle.EOSID())
		return
	}

	as := s.active.AllowedTokens(s.oracle)
	if as.LookAhead {
		as.AllowEOS = true
	}
	as.Apply(scores, s.oracle.EOSID())
}

// Advance feeds a sampled token id into the active matcher. It returns a
// *gramerr.GenerationError when the token is neither consumable by the
// grammar nor EOS; per spec.md section 7, that does not invalidate tokens
// already emitted, it only forces the session into an EOS-only state from
// this point on (the caller should log the error and treat generation as
// complete on its own terms).
func (s *Session) Advance(tokenID int) error {
	if s.active == nil {
		return nil
	}

	step := s.active.Advance(s.oracle, tokenID)
	switch step {
	case matcher.Done:
		s.active = nil
	case matcher.Reject:
		if tokenID == s.oracle.EOSID() {
			s.active = nil
			return nil
		}
		s.active = nil
		return &gramerr.GenerationError{TokenID: tokenID}
	}
	return nil
}

// Done reports whether the grammar has accepted and only EOS remains legal.
func (s *Session) Done() bool { return s.active == nil }

// Checkpoint captures the current matcher cursor as an opaque snapshot
// suitable for serialization by a host's storage layer (see
// server/dao's checkpoint repository). It returns nil if the session has
// already accepted.
func (s *Session) Checkpoint() *matcher.Cursor {
	if s.active == nil {
		return nil
	}
	c := matcher.Snapshot(s.active)
	return &c
}

// RestoreCheckpoint rebuilds the active matcher from a Cursor previously
// produced by Checkpoint against an equal grammar. Passing a nil cursor
// restores the accepted (EOS-only) state.
func (s *Session) RestoreCheckpoint(c *matcher.Cursor) error {
	if c == nil {
		s.active = nil
		return nil
	}
	m, err := matcher.Restore(s.grammar, symbol.NonTerminal{Name: symbol.RootRule}, *c)
	if err != nil {
		return err
	}
	s.active = m
	return nil
}

// CheckpointBytes is Checkpoint encoded with rezi's reflective binary codec,
// the wire form a host's checkpoint repository (see server/dao) actually
// persists. It returns nil for an accepted session, matching Checkpoint.
func (s *Session) CheckpointBytes() []byte {
	c := s.Checkpoint()
	if c == nil {
		return nil
	}
	return matcher.EncodeCursor(*c)
}

// RestoreCheckpointBytes reverses CheckpointBytes. Passing nil or an empty
// slice restores the accepted (EOS-only) state, matching
// RestoreCheckpoint(nil).
func (s *Session) RestoreCheckpointBytes(data []byte) error {
	if len(data) == 0 {
		return s.RestoreCheckpoint(nil)
	}
	c, err := matcher.DecodeCursor(data)
	if err != nil {
		return gramerr.NewValidationError("corrupt session checkpoint", err)
	}
	return s.RestoreCheckpoint(&c)
}
