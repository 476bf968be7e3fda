package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteCache(t *testing.T) *SQLiteCache {
	t.Helper()
	s, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteCacheEmptyLoad(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteCache(t)
	entry, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestSQLiteCacheRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteCache(t)
	ctx := context.Background()

	in := &Entry{
		Hashes:  []string{"h0", "h1", "h2"},
		Vectors: [][]float32{{1, 2}, {3, 4}, {5, 6}},
	}
	require.NoError(t, s.Save(ctx, in))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.Hashes, out.Hashes)
	assert.Equal(t, in.Vectors, out.Vectors)
}

func TestSQLiteCacheSaveReplaces(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteCache(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &Entry{
		Hashes:  []string{"old0", "old1"},
		Vectors: [][]float32{{1}, {2}},
	}))
	require.NoError(t, s.Save(ctx, &Entry{
		Hashes:  []string{"new0"},
		Vectors: [][]float32{{9}},
	}))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, []string{"new0"}, out.Hashes)
	assert.Equal(t, [][]float32{{9}}, out.Vectors)
}
