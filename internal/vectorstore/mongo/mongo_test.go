package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"docvec/internal/domain"
	"docvec/internal/vectorstore/storetest"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestStorage(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("Should create unique indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, New(mt.Coll).EnsureIndexes(ctx))
	})

	mt.Run("Should find existing document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(1, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "x"}}))
		ok, err := New(mt.Coll).Exists(ctx, "report.pdf")
		require.NoError(mt, err)
		assert.True(mt, ok)
	})

	mt.Run("Should report missing document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))
		ok, err := New(mt.Coll).Exists(ctx, "report.pdf")
		require.NoError(mt, err)
		assert.False(mt, ok)
	})

	mt.Run("Should insert record", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, New(mt.Coll).Insert(ctx, storetest.Record("report.pdf", "doc-1", "0")))
	})

	mt.Run("Should map duplicate key errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))
		err := New(mt.Coll).Insert(ctx, storetest.Record("report.pdf", "doc-1", "0"))
		require.ErrorIs(mt, err, domain.ErrDuplicateDocument)
	})

	mt.Run("Should map command errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 13, Name: "Unauthorized", Message: "not authorized",
		}))
		err := New(mt.Coll).Insert(ctx, storetest.Record("report.pdf", "doc-1", "0"))
		require.ErrorIs(mt, err, domain.ErrPersistence)
	})

	mt.Run("Should return deleted count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(3)}))
		n, err := New(mt.Coll).DeleteByNameOrID(ctx, "doc-1")
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)
	})

	mt.Run("Should list distinct names", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "values", Value: bson.A{"a.pdf", "b.csv"}},
		))
		names, err := New(mt.Coll).DocumentNames(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, []string{"a.pdf", "b.csv"}, names)
	})
}
