package local

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
)

// Embedder is an offline term-frequency vectorizer. Terms are hashed into a
// fixed number of buckets so the dimension does not depend on a corpus.
type Embedder struct {
	dimension int
}

// NewEmbedder creates a hashing embedder with the given dimension.
func NewEmbedder(dimension int) (*Embedder, error) {
	if dimension <= 0 {
		return nil, errors.New("local: invalid dimension")
	}
	return &Embedder{dimension: dimension}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "local" }

// Embed computes the L2-normalized term-frequency vector of text. Text without
// tokens yields the zero vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, e.dimension)
	tokens := tokenize(text)
	for _, tok := range tokens {
		vec[e.bucket(tok)]++
	}
	out := make([]float32, e.dimension)
	if len(tokens) == 0 {
		return out, nil
	}
	total := float64(len(tokens))
	norm := 0.0
	for i, count := range vec {
		if count == 0 {
			continue
		}
		// sublinear tf damps repeated terms
		vec[i] = (1 + math.Log(count)) / total
		norm += vec[i] * vec[i]
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

func (e *Embedder) bucket(tok string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tok))
	return int(h.Sum32() % uint32(e.dimension))
}
