// Package dao provides data access objects for use in the gramlock server:
// persisted grammar definitions and the per-session matcher checkpoints that
// let a host resume generation across process restarts.
package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
	ErrNotFound            = errors.New("the requested resource was not found")
	ErrDecodingFailure     = errors.New("field could not be decoded from DB storage format to model format")
)

// Store holds all the repositories backing a gramlock server instance.
type Store interface {
	Grammars() GrammarRepository
	Checkpoints() CheckpointRepository
	Close() error
}

// Grammar is a named, persisted grammar definition: the text a client POSTs
// to /grammars, addressable by ID or Name so a session can be created from
// either.
type Grammar struct {
	ID         uuid.UUID
	Name       string
	Definition string
	Created    time.Time
}

type GrammarRepository interface {
	Create(ctx context.Context, g Grammar) (Grammar, error)
	GetByID(ctx context.Context, id uuid.UUID) (Grammar, error)
	GetByName(ctx context.Context, name string) (Grammar, error)
	GetAll(ctx context.Context) ([]Grammar, error)
	Update(ctx context.Context, id uuid.UUID, g Grammar) (Grammar, error)
	Delete(ctx context.Context, id uuid.UUID) (Grammar, error)
	Close() error
}

// Checkpoint is a persisted matcher.Cursor snapshot (see
// gramlock.Session.CheckpointBytes), keyed by the session it was taken from,
// so a host can restart a long-running generation without replaying every
// token from the start.
type Checkpoint struct {
	SessionID uuid.UUID
	GrammarID uuid.UUID
	Cursor    []byte // rezi-encoded matcher.Cursor, nil for an accepted session
	Updated   time.Time
}

type CheckpointRepository interface {
	Put(ctx context.Context, c Checkpoint) (Checkpoint, error)
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) (Checkpoint, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
	Close() error
}
