package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvec/internal/config"
	"docvec/internal/vectorstore/memory"
	"docvec/internal/vectorstore/sqlite"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("Should default to memory", func(t *testing.T) {
		st, err := Open(ctx, config.VectorStoreConfig{})
		require.NoError(t, err)
		assert.IsType(t, &memory.Storage{}, st)
	})

	t.Run("Should open SQLite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db.sqlite")
		st, err := Open(ctx, config.VectorStoreConfig{Type: "sqlite", SQLite: &config.SQLiteConfig{Path: path}})
		require.NoError(t, err)
		defer st.Close(ctx)
		assert.IsType(t, &sqlite.Storage{}, st)
	})

	t.Run("Should require backend section", func(t *testing.T) {
		for _, typ := range []string{"mongo", "sqlite", "pgvector", "qdrant", "redis"} {
			_, err := Open(ctx, config.VectorStoreConfig{Type: typ})
			assert.Error(t, err, typ)
		}
	})

	t.Run("Should reject unknown type", func(t *testing.T) {
		_, err := Open(ctx, config.VectorStoreConfig{Type: "tape"})
		require.Error(t, err)
	})
}
