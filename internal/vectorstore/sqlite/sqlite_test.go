package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvec/internal/domain"
	"docvec/internal/vectorstore/storetest"
)

func openTemp(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestStorage_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.RecordStore { return openTemp(t) }, storetest.Options{Constraints: true})
}

func TestStorage_VectorRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	rec := storetest.Record("a.csv", "doc-1", "a_0")
	rec.VectorEmbeddings = []float32{-1.5, 0, 3.25}
	require.NoError(t, s.Insert(ctx, rec))
	vec, err := s.Vector(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.VectorEmbeddings, vec)
}

func TestStorage_ReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "records.db")
	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, storetest.Record("a.pdf", "doc-1", "0")))
	require.NoError(t, s.Close(ctx))

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close(ctx)
	ok, err := s.Exists(ctx, "a.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBlobToVector_RejectsTruncatedBlob(t *testing.T) {
	_, err := blobToVector([]byte{1, 2, 3})
	require.Error(t, err)
}
