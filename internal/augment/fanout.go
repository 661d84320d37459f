package augment

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"docvec/internal/domain"
	"docvec/internal/metrics"
)

// FanOut issues the contextualize and embed calls for every chunk of a group
// concurrently and releases the group's results only when all of them succeed.
type FanOut struct {
	augmenter   domain.Augmenter
	embedder    domain.Embedder
	maxInFlight int
	metrics     *metrics.Recorder
}

// New builds a fan-out. maxInFlight caps concurrent remote calls within one
// group; zero means unlimited.
func New(augmenter domain.Augmenter, embedder domain.Embedder, maxInFlight int, rec *metrics.Recorder) *FanOut {
	if maxInFlight < 0 {
		maxInFlight = 0
	}
	return &FanOut{augmenter: augmenter, embedder: embedder, maxInFlight: maxInFlight, metrics: rec}
}

// Run augments a group. Results are returned in chunk order. The first failing
// call cancels the remaining calls of the group and nothing is returned.
func (f *FanOut) Run(ctx context.Context, group domain.Group) ([]domain.EnrichedChunk, error) {
	if len(group.Chunks) == 0 {
		return nil, nil
	}
	out := make([]domain.EnrichedChunk, len(group.Chunks))
	g, gctx := errgroup.WithContext(ctx)
	if f.maxInFlight > 0 {
		g.SetLimit(f.maxInFlight)
	}
	for i := range group.Chunks {
		chunk := group.Chunks[i]
		out[i].Chunk = chunk
		g.Go(func() error {
			text, err := f.augmenter.Contextualize(gctx, group.Context, chunk.Text)
			f.metrics.AugmentCall("contextualize", err)
			if err != nil {
				return fmt.Errorf("contextualize chunk %s: %w", chunk.Position, err)
			}
			out[i].Contextual = text
			return nil
		})
		g.Go(func() error {
			vec, err := f.embedder.Embed(gctx, chunk.Text)
			f.metrics.AugmentCall("embed", err)
			if err != nil {
				return fmt.Errorf("embed chunk %s: %w", chunk.Position, err)
			}
			out[i].Vector = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAugmentation, err)
	}
	if err := checkDimensions(out); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAugmentation, err)
	}
	return out, nil
}

func checkDimensions(chunks []domain.EnrichedChunk) error {
	dim := len(chunks[0].Vector)
	for _, c := range chunks {
		if len(c.Vector) == 0 {
			return fmt.Errorf("embed chunk %s: empty vector", c.Chunk.Position)
		}
		if len(c.Vector) != dim {
			return fmt.Errorf("embed chunk %s: dimension %d, expected %d", c.Chunk.Position, len(c.Vector), dim)
		}
	}
	return nil
}
