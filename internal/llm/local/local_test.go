package local

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedder(t *testing.T) {
	e, err := NewEmbedder(64)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Should produce unit vectors of the configured dimension", func(t *testing.T) {
		vec, err := e.Embed(ctx, "Salmonella testing of raw poultry samples")
		require.NoError(t, err)
		require.Len(t, vec, 64)
		norm := 0.0
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
	})

	t.Run("Should be deterministic", func(t *testing.T) {
		a, _ := e.Embed(ctx, "cold chain temperature log")
		b, _ := e.Embed(ctx, "cold chain temperature log")
		assert.Equal(t, a, b)
	})

	t.Run("Should return the zero vector for stopwords only", func(t *testing.T) {
		vec, err := e.Embed(ctx, "the and of")
		require.NoError(t, err)
		assert.Equal(t, make([]float32, 64), vec)
	})

	t.Run("Should reject invalid dimensions", func(t *testing.T) {
		_, err := NewEmbedder(0)
		require.Error(t, err)
	})

	t.Run("Should honour cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := e.Embed(cctx, "x")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestAugmenter(t *testing.T) {
	a := NewAugmenter()
	ctx := context.Background()

	t.Run("Should describe the sample header and rows", func(t *testing.T) {
		desc, err := a.DescribeTable(ctx, "supplier, product\nacme, flour\nacme, sugar")
		require.NoError(t, err)
		assert.Contains(t, desc, "Table with columns: supplier, product.")
		assert.Contains(t, desc, "Sample of 2 rows.")
		assert.Contains(t, desc, "acme")
	})

	t.Run("Should combine a summary with chunk keywords", func(t *testing.T) {
		doc := "Allergen control is mandatory. Every allergen must be labelled. The canteen opens at noon."
		out, err := a.Contextualize(ctx, doc, "peanut peanut residue found on line three")
		require.NoError(t, err)
		assert.Contains(t, out, "allergen")
		assert.Contains(t, out, "Keywords: peanut")
	})

	t.Run("Should fall back to the raw context without sentences", func(t *testing.T) {
		assert.Equal(t, "no punctuation here", summarize("  no punctuation here ", 2))
	})

	t.Run("Should rank keywords by count then name", func(t *testing.T) {
		assert.Equal(t, []string{"beta", "alpha", "gamma"}, keywords("beta alpha beta gamma", 3))
	})
}
