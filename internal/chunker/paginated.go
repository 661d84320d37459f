package chunker

import (
	"fmt"
	"strconv"
	"strings"

	"docvec/internal/domain"
	"docvec/internal/reader"
)

// PageChunker splits page text into contiguous slices of a fixed rune budget.
type PageChunker struct {
	charsPerChunk int
}

func NewPageChunker(charsPerChunk int) *PageChunker {
	if charsPerChunk <= 0 {
		charsPerChunk = 5000
	}
	return &PageChunker{charsPerChunk: charsPerChunk}
}

// SplitText cuts text into slices of at most charsPerChunk runes; the last slice
// takes the remainder. Empty text yields no slices.
func (c *PageChunker) SplitText(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	parts := make([]string, 0, (len(runes)+c.charsPerChunk-1)/c.charsPerChunk)
	for i := 0; i < len(runes); i += c.charsPerChunk {
		end := i + c.charsPerChunk
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[i:end]))
	}
	return parts
}

// Chunk returns the chunks of one page. The first chunk is keyed by the bare page
// index; later chunks of the same page get a "_k" suffix so keys stay unique.
func (c *PageChunker) Chunk(page reader.Page) []domain.Chunk {
	if strings.TrimSpace(page.Text) == "" {
		return nil
	}
	parts := c.SplitText(page.Text)
	chunks := make([]domain.Chunk, 0, len(parts))
	for k, part := range parts {
		pos := strconv.Itoa(page.Index)
		if k > 0 {
			pos = fmt.Sprintf("%d_%d", page.Index, k)
		}
		chunks = append(chunks, domain.Chunk{Position: pos, Text: part})
	}
	return chunks
}

// PageWindow concatenates the text of pages [p-w, p+w], clipped to the document.
func PageWindow(pages []reader.Page, p, w int) string {
	if len(pages) == 0 || p < 0 || p >= len(pages) {
		return ""
	}
	if w < 0 {
		w = 0
	}
	start := p - w
	if start < 0 {
		start = 0
	}
	end := p + w
	if end > len(pages)-1 {
		end = len(pages) - 1
	}
	var b strings.Builder
	for i := start; i <= end; i++ {
		b.WriteString(pages[i].Text)
	}
	return b.String()
}
