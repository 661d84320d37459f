package chunker

import "docvec/internal/domain"

// Batch splits chunks into consecutive groups of at most size chunks, all
// sharing the same context.
func Batch(docContext string, chunks []domain.Chunk, size int) []domain.Group {
	if len(chunks) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(chunks)
	}
	groups := make([]domain.Group, 0, (len(chunks)+size-1)/size)
	for i := 0; i < len(chunks); i += size {
		end := i + size
		if end > len(chunks) {
			end = len(chunks)
		}
		groups = append(groups, domain.Group{Context: docContext, Chunks: chunks[i:end]})
	}
	return groups
}
