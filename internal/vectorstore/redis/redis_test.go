package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvec/internal/domain"
	"docvec/internal/vectorstore/storetest"
)

func newTestStore(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "test"), mr
}

func TestStorage_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.RecordStore {
		s, _ := newTestStore(t)
		return s
	}, storetest.Options{Constraints: true})
}

func TestStorage_RecordRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	rec := storetest.Record("a.xlsx", "doc-1", "Sheet1_0")
	require.NoError(t, s.Insert(ctx, rec))
	got, err := s.Record(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestStorage_DeleteReleasesClaims(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, storetest.Record("a.pdf", "doc-1", "0")))
	n, err := s.DeleteByNameOrID(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, mr.Keys())
	require.NoError(t, s.Insert(ctx, storetest.Record("a.pdf", "doc-2", "0")))
}

func TestStorage_FailedIDClaimReleasesNameClaim(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, storetest.Record("a.pdf", "doc-1", "0")))
	err := s.Insert(ctx, storetest.Record("b.pdf", "doc-1", "0"))
	require.ErrorIs(t, err, domain.ErrDuplicateDocument)
	assert.False(t, mr.Exists("test:pos:name:b.pdf:0"))
}

func TestOpen_InvalidURL(t *testing.T) {
	_, err := Open(context.Background(), Config{URL: "not a url"})
	require.Error(t, err)
}
