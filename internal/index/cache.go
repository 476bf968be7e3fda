package index

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/rotisserie/eris"

	"github.com/complyeu/aiact-cli/internal/config"
)

// Entry is a persisted embedding set for one corpus build. The hash list
// records the chunk content hashes in corpus order; the entry is only
// usable when the current corpus produces the exact same list.
type Entry struct {
	Hashes  []string
	Vectors [][]float32
}

// Matches reports whether the entry covers exactly the given hashes, in order.
func (e *Entry) Matches(hashes []string) bool {
	if e == nil || len(e.Hashes) != len(hashes) || len(e.Vectors) != len(e.Hashes) {
		return false
	}
	for i, h := range hashes {
		if e.Hashes[i] != h {
			return false
		}
	}
	return true
}

// CacheStore persists corpus embeddings between runs.
type CacheStore interface {
	// Load returns the stored entry, or (nil, nil) when the cache is empty.
	Load(ctx context.Context) (*Entry, error)
	Save(ctx context.Context, entry *Entry) error
	Close() error
}

// OpenCache selects a cache backend from config.
func OpenCache(ctx context.Context, cfg config.CacheConfig) (CacheStore, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLiteCache(cfg.DSN)
	case "postgres":
		return NewPostgresCache(ctx, cfg.DSN)
	default:
		return nil, eris.Errorf("index: unknown cache driver %q", cfg.Driver)
	}
}

// encodeVector packs a vector as little-endian float32 bytes.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, eris.Errorf("index: vector blob length %d not a multiple of 4", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v, nil
}
