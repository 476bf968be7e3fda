package index

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteCache implements CacheStore using modernc.org/sqlite.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens a SQLite database at the given path and configures WAL mode.
func NewSQLiteCache(dsn string) (*SQLiteCache, error) {
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
	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}
	return &SQLiteCache{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS embedding_cache (
	position INTEGER PRIMARY KEY,
	hash     TEXT NOT NULL,
	vector   BLOB NOT NULL
);
`

func (s *SQLiteCache) Load(ctx context.Context) (*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT hash, vector FROM embedding_cache ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load cache")
	}
	defer rows.Close()

	entry := &Entry{}
	for rows.Next() {
		var hash string
		var blob []byte
		if err := rows.Scan(&hash, &blob); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan cache row")
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		entry.Hashes = append(entry.Hashes, hash)
		entry.Vectors = append(entry.Vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate cache rows")
	}
	if len(entry.Hashes) == 0 {
		return nil, nil
	}
	return entry, nil
}

func (s *SQLiteCache) Save(ctx context.Context, entry *Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM embedding_cache`); err != nil {
		return eris.Wrap(err, "sqlite: clear cache")
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO embedding_cache (position, hash, vector) VALUES (?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()
	for i, hash := range entry.Hashes {
		if _, err := stmt.ExecContext(ctx, i, hash, encodeVector(entry.Vectors[i])); err != nil {
			return eris.Wrapf(err, "sqlite: insert cache row %d", i)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit save")
	}
	return nil
}

func (s *SQLiteCache) Close() error {
	return s.db.Close()
}
