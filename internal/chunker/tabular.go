package chunker

import (
	"fmt"
	"strings"

	"docvec/internal/domain"
	"docvec/internal/reader"
)

// TabularChunker splits sheet bodies into fixed-size runs of rows and prefixes
// each run with the sheet's header row.
type TabularChunker struct {
	rowsPerChunk int
}

func NewTabularChunker(rowsPerChunk int) *TabularChunker {
	if rowsPerChunk <= 0 {
		rowsPerChunk = 25
	}
	return &TabularChunker{rowsPerChunk: rowsPerChunk}
}

// SplitRows partitions body rows into ceil(len(rows)/n) chunks. The header is
// not counted toward the row budget; it is prepended after slicing.
func (c *TabularChunker) SplitRows(header []string, rows [][]string) [][][]string {
	if len(rows) == 0 {
		return nil
	}
	out := make([][][]string, 0, (len(rows)+c.rowsPerChunk-1)/c.rowsPerChunk)
	for i := 0; i < len(rows); i += c.rowsPerChunk {
		end := i + c.rowsPerChunk
		if end > len(rows) {
			end = len(rows)
		}
		chunk := make([][]string, 0, end-i+1)
		chunk = append(chunk, header)
		chunk = append(chunk, rows[i:end]...)
		out = append(out, chunk)
	}
	return out
}

// Chunk renders every row chunk of a sheet with its {sheet}_{index} position key.
func (c *TabularChunker) Chunk(sheet reader.Sheet) []domain.Chunk {
	split := c.SplitRows(sheet.Header, sheet.Rows)
	chunks := make([]domain.Chunk, 0, len(split))
	for i, rows := range split {
		chunks = append(chunks, domain.Chunk{
			Position: fmt.Sprintf("%s_%d", sheet.Name, i),
			Text:     RenderRows(rows),
		})
	}
	return chunks
}

// RenderRows joins cells with ", " and rows with newlines.
func RenderRows(rows [][]string) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(row, ", "))
	}
	return b.String()
}
