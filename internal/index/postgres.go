package index

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/complyeu/aiact-cli/internal/db"
)

// PostgresCache implements CacheStore using pgxpool.
type PostgresCache struct {
	pool    db.Pool
	closeFn func()
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS embedding_cache (
	position INTEGER PRIMARY KEY,
	hash     TEXT NOT NULL,
	vector   BYTEA NOT NULL
)`

// NewPostgresCache connects to Postgres and ensures the cache table exists.
func NewPostgresCache(ctx context.Context, connString string) (*PostgresCache, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if _, err := pool.Exec(ctx, postgresMigration); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: migrate")
	}
	return &PostgresCache{pool: pool, closeFn: pool.Close}, nil
}

func (s *PostgresCache) Load(ctx context.Context) (*Entry, error) {
	rows, err := s.pool.Query(ctx, `SELECT hash, vector FROM embedding_cache ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load cache")
	}
	defer rows.Close()

	entry := &Entry{}
	for rows.Next() {
		var hash string
		var blob []byte
		if err := rows.Scan(&hash, &blob); err != nil {
			return nil, eris.Wrap(err, "postgres: scan cache row")
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		entry.Hashes = append(entry.Hashes, hash)
		entry.Vectors = append(entry.Vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate cache rows")
	}
	if len(entry.Hashes) == 0 {
		return nil, nil
	}
	return entry, nil
}

func (s *PostgresCache) Save(ctx context.Context, entry *Entry) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM embedding_cache`); err != nil {
		return eris.Wrap(err, "postgres: clear cache")
	}
	rows := make([][]any, len(entry.Hashes))
	for i, hash := range entry.Hashes {
		rows[i] = []any{i, hash, encodeVector(entry.Vectors[i])}
	}
	if _, err := db.CopyFrom(ctx, s.pool, "embedding_cache", []string{"position", "hash", "vector"}, rows); err != nil {
		return eris.Wrap(err, "postgres: save cache")
	}
	return nil
}

func (s *PostgresCache) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
