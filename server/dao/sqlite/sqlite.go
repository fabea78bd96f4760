// Package sqlite is the modernc.org/sqlite-backed dao.Store implementation,
// adapted from the teacher lineage's own data.db/worlds.db split: gramlock
// keeps a single file since grammars and checkpoints share the same
// lifecycle and have no FK-crossing-process-boundary concern to isolate.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"modernc.org/sqlite"

	"github.com/dekarrin/gramlock/server/dao"
)

type store struct {
	dbFilename string
	db         *sql.DB

	grammars    *GrammarsDB
	checkpoints *CheckpointsDB
}

// NewDatastore opens (creating if absent) gramlock.db in storageDir and
// initializes both repositories' tables.
func NewDatastore(storageDir string) (dao.Store, error) {
	st := &store{dbFilename: "gramlock.db"}

	fileName := filepath.Join(storageDir, st.dbFilename)

	var err error
	st.db, err = sql.Open("sqlite", fileName)
	if err != nil {
		return nil, wrapDBError(err)
	}

	st.grammars = &GrammarsDB{db: st.db}
	if err := st.grammars.init(); err != nil {
		return nil, err
	}

	st.checkpoints = &CheckpointsDB{db: st.db}
	if err := st.checkpoints.init(true); err != nil {
		return nil, err
	}

	return st, nil
}

func (st *store) Grammars() dao.GrammarRepository       { return st.grammars }
func (st *store) Checkpoints() dao.CheckpointRepository { return st.checkpoints }

func (st *store) Close() error {
	return st.db.Close()
}

func wrapDBError(err error) error {
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == 19 {
			return dao.ErrConstraintViolation
		}
		return fmt.Errorf("%s", sqlite.ErrorCodeString[sqliteErr.Code()])
	} else if errors.Is(err, sql.ErrNoRows) {
		return dao.ErrNotFound
	}
	return err
}
