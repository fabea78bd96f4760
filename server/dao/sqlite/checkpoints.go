package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dekarrin/gramlock/server/dao"
)

// CheckpointsDB is the sqlite-backed dao.CheckpointRepository. The Cursor
// blob is stored base64-encoded in a TEXT column, the same convention the
// teacher lineage used for its own rezi-encoded game state in
// server/dao/sqlite/sessions.go.
type CheckpointsDB struct {
	db *sql.DB
}

func (repo *CheckpointsDB) init(fk bool) error {
	stmt := `CREATE TABLE IF NOT EXISTS checkpoints (
		session_id TEXT NOT NULL PRIMARY KEY,
		grammar_id TEXT NOT NULL`

	if fk {
		stmt += ` REFERENCES grammars(id) ON DELETE CASCADE ON UPDATE CASCADE`
	}

	stmt += `,
		cursor TEXT NOT NULL,
		updated INTEGER NOT NULL
	);`
	_, err := repo.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *CheckpointsDB) Put(ctx context.Context, c dao.Checkpoint) (dao.Checkpoint, error) {
	encCursor := base64.StdEncoding.EncodeToString(c.Cursor)
	now := time.Now()

	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO checkpoints (session_id, grammar_id, cursor, updated) VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET grammar_id=excluded.grammar_id, cursor=excluded.cursor, updated=excluded.updated;`,
		c.SessionID.String(), c.GrammarID.String(), encCursor, now.Unix(),
	)
	if err != nil {
		return dao.Checkpoint{}, wrapDBError(err)
	}

	return repo.GetBySessionID(ctx, c.SessionID)
}

func (repo *CheckpointsDB) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (dao.Checkpoint, error) {
	c := dao.Checkpoint{SessionID: sessionID}

	var grammarIDStr string
	var encCursor string
	var updated int64

	row := repo.db.QueryRowContext(ctx, `SELECT grammar_id, cursor, updated FROM checkpoints WHERE session_id = ?;`, sessionID.String())
	if err := row.Scan(&grammarIDStr, &encCursor, &updated); err != nil {
		return c, wrapDBError(err)
	}

	grammarID, err := uuid.Parse(grammarIDStr)
	if err != nil {
		return c, fmt.Errorf("stored grammar ID %q is invalid: %w", grammarIDStr, err)
	}
	c.GrammarID = grammarID
	c.Updated = time.Unix(updated, 0)

	c.Cursor, err = base64.StdEncoding.DecodeString(encCursor)
	if err != nil {
		return c, fmt.Errorf("%w: stored cursor for %s is not valid base64: %v", dao.ErrDecodingFailure, sessionID, err)
	}

	return c, nil
}

func (repo *CheckpointsDB) Delete(ctx context.Context, sessionID uuid.UUID) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE session_id = ?`, sessionID.String())
	if err != nil {
		return wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.ErrNotFound
	}
	return nil
}

func (repo *CheckpointsDB) Close() error {
	return nil
}
