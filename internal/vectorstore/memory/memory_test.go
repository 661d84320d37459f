package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvec/internal/domain"
	"docvec/internal/vectorstore/storetest"
)

func TestStorage_Contract(t *testing.T) {
	storetest.Run(t, func(*testing.T) domain.RecordStore { return NewStorage() }, storetest.Options{Constraints: true})
}

func TestStorage_Insert(t *testing.T) {
	ctx := context.Background()

	t.Run("Should reject dimension mismatch", func(t *testing.T) {
		s := NewStorage()
		require.NoError(t, s.Insert(ctx, storetest.Record("a.pdf", "1", "0")))
		bad := storetest.Record("a.pdf", "1", "1")
		bad.VectorEmbeddings = []float32{1}
		require.ErrorIs(t, s.Insert(ctx, bad), domain.ErrPersistence)
	})

	t.Run("Should report taken position before dimension", func(t *testing.T) {
		s := NewStorage()
		require.NoError(t, s.Insert(ctx, storetest.Record("a.pdf", "1", "0")))
		dup := storetest.Record("a.pdf", "2", "0")
		dup.VectorEmbeddings = []float32{1, 2, 3, 4}
		err := s.Insert(ctx, dup)
		require.ErrorIs(t, err, domain.ErrDuplicateDocument)
		assert.NotErrorIs(t, err, domain.ErrPersistence)
	})

	t.Run("Should copy vectors", func(t *testing.T) {
		s := NewStorage()
		rec := storetest.Record("a.pdf", "1", "0")
		require.NoError(t, s.Insert(ctx, rec))
		rec.VectorEmbeddings[0] = 42
		assert.Equal(t, float32(0.25), s.Records()[0].VectorEmbeddings[0])
	})

	t.Run("Should allow position reuse after delete", func(t *testing.T) {
		s := NewStorage()
		require.NoError(t, s.Insert(ctx, storetest.Record("a.pdf", "1", "0")))
		_, err := s.DeleteByNameOrID(ctx, "a.pdf")
		require.NoError(t, err)
		require.NoError(t, s.Insert(ctx, storetest.Record("a.pdf", "2", "0")))
		assert.Equal(t, 1, s.Len())
	})
}
