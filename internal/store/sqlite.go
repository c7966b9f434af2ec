package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	source_fields TEXT NOT NULL,
	target_fields TEXT NOT NULL,
	mappings      TEXT NOT NULL,
	conflicts     TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sessions_name ON sessions(name);
CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSession(ctx context.Context, session *Session) error {
	now := time.Now().UTC()
	if session.ID == "" {
		session.ID = uuid.New().String()
		session.CreatedAt = now
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	srcJSON, tgtJSON, mapJSON, conJSON, err := marshalSession(session)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal session")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, name, source_fields, target_fields, mappings, conflicts, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name, source_fields = excluded.source_fields,
		   target_fields = excluded.target_fields, mappings = excluded.mappings,
		   conflicts = excluded.conflicts, updated_at = excluded.updated_at`,
		session.ID, session.Name, string(srcJSON), string(tgtJSON),
		string(mapJSON), string(conJSON),
		session.CreatedAt, session.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: save session %s", session.ID)
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, source_fields, target_fields, mappings, conflicts, created_at, updated_at
		 FROM sessions WHERE id = ?`,
		id,
	)
	return scanSession(row)
}

func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error) {
	query := `SELECT id, name, source_fields, target_fields, mappings, conflicts, created_at, updated_at
	          FROM sessions WHERE 1=1`
	var args []any

	if filter.Name != "" {
		query += ` AND name = ?`
		args = append(args, filter.Name)
	}
	query += ` ORDER BY updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, eris.Wrap(rows.Err(), "sqlite: list sessions iterate")
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete session %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrSessionNotFound, "%s", id)
	}
	return nil
}

// helpers

func marshalSession(session *Session) (src, tgt, mappings, conflicts []byte, err error) {
	if src, err = json.Marshal(session.SourceFields); err != nil {
		return
	}
	if tgt, err = json.Marshal(session.TargetFields); err != nil {
		return
	}
	if mappings, err = json.Marshal(session.Mappings); err != nil {
		return
	}
	conflicts, err = json.Marshal(session.Conflicts)
	return
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSession(row scannable) (*Session, error) {
	var sess Session
	var srcJSON, tgtJSON, mapJSON, conJSON string

	err := row.Scan(&sess.ID, &sess.Name, &srcJSON, &tgtJSON, &mapJSON, &conJSON,
		&sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan session")
	}

	for _, pair := range []struct {
		raw  string
		dest any
	}{
		{srcJSON, &sess.SourceFields},
		{tgtJSON, &sess.TargetFields},
		{mapJSON, &sess.Mappings},
		{conJSON, &sess.Conflicts},
	} {
		if err := json.Unmarshal([]byte(pair.raw), pair.dest); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal session")
		}
	}
	return &sess, nil
}
