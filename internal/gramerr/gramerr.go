// Package gramerr holds the error types surfaced by grammar parsing,
// validation, and constrained generation. It is modeled on the tagged
// wrapping-error style used across the TunaQuest server (serr) but scoped to
// the failure taxonomy spec'd for the CFG decoding engine: syntax errors,
// validation errors, and generation errors.
package gramerr

import (
	"errors"
	"strconv"
)

var (
	// ErrGeneration is the sentinel cause attached to every GenerationError.
	// Check against it with errors.Is.
	ErrGeneration = errors.New("sampled token could not be reconciled with the grammar")
)

// GrammarError is raised by the parser for malformed grammar text: unmatched
// quotes or brackets, a stray operator, or any other token the lexer or the
// recursive-descent parser did not expect. A GrammarError is unrecoverable;
// the session that would have been built from the text is never created.
type GrammarError struct {
	msg   string
	cause error
}

// NewGrammarError creates a GrammarError with the given message and an
// optional wrapped cause.
func NewGrammarError(msg string, cause error) *GrammarError {
	return &GrammarError{msg: msg, cause: cause}
}

func (e *GrammarError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *GrammarError) Unwrap() error {
	return e.cause
}

// ValidationError is a GrammarError raised after a successful parse, during
// semantic validation of the resulting symbol tree: a duplicate rule name, a
// missing root rule, a reference to an undefined rule, a degenerate
// NonTerminal cycle, or an empty Terminal. Like GrammarError it is
// unrecoverable at session-creation time.
type ValidationError struct {
	*GrammarError
}

// NewValidationError creates a ValidationError with the given message and an
// optional wrapped cause.
func NewValidationError(msg string, cause error) *ValidationError {
	return &ValidationError{GrammarError: NewGrammarError(msg, cause)}
}

// GenerationError indicates the host sampled a token that the active matcher
// rejected outright (not a legal continuation, and not an EOS terminating a
// nullable position). It is not raised by the matcher tree itself; the
// session observes Step.Reject on a non-EOS token and wraps it here. Per
// spec, a GenerationError does not retroactively invalidate already-emitted
// tokens; it only forces the session into an EOS-only state from that point
// on.
type GenerationError struct {
	TokenID int
	Rule    string
}

func (e *GenerationError) Error() string {
	if e.Rule != "" {
		return "token " + strconv.Itoa(e.TokenID) + " does not conform to grammar at rule '" + e.Rule + "'"
	}
	return "token " + strconv.Itoa(e.TokenID) + " does not conform to grammar"
}

func (e *GenerationError) Unwrap() error {
	return ErrGeneration
}
