package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "embedding_cache", []string{"position", "hash"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"embedding_cache"}, []string{"position", "hash"}).WillReturnResult(3)

	rows := [][]any{{0, "a"}, {1, "b"}, {2, "c"}}
	n, err := CopyFrom(context.Background(), mock, "embedding_cache", []string{"position", "hash"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"embedding_cache"}, []string{"position", "hash"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{0, "a"}}
	_, err = CopyFrom(context.Background(), mock, "embedding_cache", []string{"position", "hash"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO embedding_cache")
	assert.NoError(t, mock.ExpectationsWereMet())
}
