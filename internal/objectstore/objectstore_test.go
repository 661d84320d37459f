package objectstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvec/internal/config"
	"docvec/internal/objectstore/dir"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, config.ReconcileConfig{Source: "dir", Dir: &config.DirConfig{Path: t.TempDir()}})
	require.NoError(t, err)
	assert.IsType(t, &dir.Store{}, st)

	_, err = Open(ctx, config.ReconcileConfig{Source: "dir"})
	require.Error(t, err)
	_, err = Open(ctx, config.ReconcileConfig{Source: "s3"})
	require.Error(t, err)
	_, err = Open(ctx, config.ReconcileConfig{Source: "ftp"})
	require.Error(t, err)
}
