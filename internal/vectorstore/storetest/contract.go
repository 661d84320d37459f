// Package storetest holds the behaviour every domain.RecordStore must share.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvec/internal/domain"
)

// Options tunes the contract for backend capabilities.
type Options struct {
	// Constraints reports whether the backend rejects duplicate position keys.
	Constraints bool
}

// Record builds a record for documentName/documentID at the given page.
func Record(documentName, documentID, page string) domain.VectorRecord {
	return domain.VectorRecord{
		ID:               uuid.NewString(),
		OriginalText:     "original " + page,
		ContextualText:   "context " + page,
		DocumentName:     documentName,
		DocumentID:       documentID,
		PageNumber:       page,
		VectorEmbeddings: []float32{0.25, 0.5, 0.75},
	}
}

// Run exercises store against the shared record store behaviour. newStore must
// return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) domain.RecordStore, opts Options) {
	ctx := context.Background()

	t.Run("Should report missing documents", func(t *testing.T) {
		s := newStore(t)
		ok, err := s.Exists(ctx, "missing.pdf")
		require.NoError(t, err)
		assert.False(t, ok)
		names, err := s.DocumentNames(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("Should find documents after insert", func(t *testing.T) {
		s := newStore(t)
		insertDoc(t, s, "report.pdf", "doc-1", 3)
		insertDoc(t, s, "sheet.xlsx", "doc-2", 1)
		ok, err := s.Exists(ctx, "report.pdf")
		require.NoError(t, err)
		assert.True(t, ok)
		names, err := s.DocumentNames(ctx)
		require.NoError(t, err)
		sort.Strings(names)
		assert.Equal(t, []string{"report.pdf", "sheet.xlsx"}, names)
	})

	t.Run("Should delete by name", func(t *testing.T) {
		s := newStore(t)
		insertDoc(t, s, "report.pdf", "doc-1", 3)
		insertDoc(t, s, "other.pdf", "doc-2", 2)
		n, err := s.DeleteByNameOrID(ctx, "report.pdf")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		ok, err := s.Exists(ctx, "report.pdf")
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = s.Exists(ctx, "other.pdf")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Should delete by document ID", func(t *testing.T) {
		s := newStore(t)
		insertDoc(t, s, "report.pdf", "doc-1", 2)
		n, err := s.DeleteByNameOrID(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("Should be idempotent on delete", func(t *testing.T) {
		s := newStore(t)
		insertDoc(t, s, "report.pdf", "doc-1", 2)
		_, err := s.DeleteByNameOrID(ctx, "report.pdf")
		require.NoError(t, err)
		n, err := s.DeleteByNameOrID(ctx, "report.pdf")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	if opts.Constraints {
		t.Run("Should reject duplicate position for name", func(t *testing.T) {
			s := newStore(t)
			require.NoError(t, s.Insert(ctx, Record("report.pdf", "doc-1", "0")))
			err := s.Insert(ctx, Record("report.pdf", "doc-2", "0"))
			require.ErrorIs(t, err, domain.ErrDuplicateDocument)
		})

		t.Run("Should reject duplicate position for ID", func(t *testing.T) {
			s := newStore(t)
			require.NoError(t, s.Insert(ctx, Record("report.pdf", "doc-1", "0")))
			err := s.Insert(ctx, Record("renamed.pdf", "doc-1", "0"))
			require.ErrorIs(t, err, domain.ErrDuplicateDocument)
		})
	}
}

func insertDoc(t *testing.T, s domain.RecordStore, name, id string, pages int) {
	t.Helper()
	for p := 0; p < pages; p++ {
		require.NoError(t, s.Insert(context.Background(), Record(name, id, fmt.Sprint(p))))
	}
}
