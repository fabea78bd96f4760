package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dekarrin/gramlock/server/dao"
)

// GrammarsDB is the sqlite-backed dao.GrammarRepository.
type GrammarsDB struct {
	db *sql.DB
}

func (repo *GrammarsDB) init() error {
	stmt := `CREATE TABLE IF NOT EXISTS grammars (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		definition TEXT NOT NULL,
		created INTEGER NOT NULL
	);`
	_, err := repo.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *GrammarsDB) Create(ctx context.Context, g dao.Grammar) (dao.Grammar, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("could not generate ID: %w", err)
	}

	now := time.Now()
	_, err = repo.db.ExecContext(ctx, `INSERT INTO grammars (id, name, definition, created) VALUES (?, ?, ?, ?)`,
		newUUID.String(), g.Name, g.Definition, now.Unix(),
	)
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *GrammarsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT name, definition, created FROM grammars WHERE id = ?;`, id.String())
	return repo.scanOne(id, row)
}

func (repo *GrammarsDB) GetByName(ctx context.Context, name string) (dao.Grammar, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, definition, created FROM grammars WHERE name = ?;`, name)

	var idStr string
	var definition string
	var created int64
	if err := row.Scan(&idStr, &definition, &created); err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("stored UUID %q is invalid", idStr)
	}
	return dao.Grammar{ID: id, Name: name, Definition: definition, Created: time.Unix(created, 0)}, nil
}

func (repo *GrammarsDB) GetAll(ctx context.Context) ([]dao.Grammar, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, name, definition, created FROM grammars;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Grammar
	for rows.Next() {
		var idStr, name, definition string
		var created int64
		if err := rows.Scan(&idStr, &name, &definition, &created); err != nil {
			return nil, wrapDBError(err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return all, fmt.Errorf("stored UUID %q is invalid", idStr)
		}
		all = append(all, dao.Grammar{ID: id, Name: name, Definition: definition, Created: time.Unix(created, 0)})
	}
	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}
	return all, nil
}

func (repo *GrammarsDB) Update(ctx context.Context, id uuid.UUID, g dao.Grammar) (dao.Grammar, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE grammars SET name=?, definition=? WHERE id=?;`,
		g.Name, g.Definition, id.String(),
	)
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Grammar{}, dao.ErrNotFound
	}
	return repo.GetByID(ctx, id)
}

func (repo *GrammarsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM grammars WHERE id = ?`, id.String())
	if err != nil {
		return curVal, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, wrapDBError(err)
	}
	if rowsAff < 1 {
		return curVal, dao.ErrNotFound
	}
	return curVal, nil
}

func (repo *GrammarsDB) Close() error {
	return nil
}

func (repo *GrammarsDB) scanOne(id uuid.UUID, row *sql.Row) (dao.Grammar, error) {
	var name, definition string
	var created int64
	if err := row.Scan(&name, &definition, &created); err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}
	return dao.Grammar{ID: id, Name: name, Definition: definition, Created: time.Unix(created, 0)}, nil
}
