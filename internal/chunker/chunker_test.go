package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvec/internal/domain"
	"docvec/internal/reader"
)

func bodyRows(n int) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("r%d", i), "x"}
	}
	return rows
}

func TestTabularChunker_SplitRows(t *testing.T) {
	header := []string{"id", "val"}
	for _, tc := range []struct{ rows, n, want int }{
		{0, 25, 0}, {1, 25, 1}, {25, 25, 1}, {26, 25, 2}, {52, 25, 3}, {52, 10, 6}, {100, 10, 10},
	} {
		t.Run(fmt.Sprintf("%d rows by %d", tc.rows, tc.n), func(t *testing.T) {
			chunks := NewTabularChunker(tc.n).SplitRows(header, bodyRows(tc.rows))
			require.Len(t, chunks, tc.want)
			total := 0
			for _, c := range chunks {
				assert.Equal(t, header, c[0])
				assert.LessOrEqual(t, len(c)-1, tc.n)
				total += len(c) - 1
			}
			assert.Equal(t, tc.rows, total)
		})
	}
}

func TestTabularChunker_Chunk(t *testing.T) {
	sheet := reader.Sheet{Name: "sheet", Header: []string{"id", "val"}, Rows: bodyRows(52)}
	chunks := NewTabularChunker(25).Chunk(sheet)
	require.Len(t, chunks, 3)

	wantRows := []int{25, 25, 2}
	for i, c := range chunks {
		assert.Equal(t, fmt.Sprintf("sheet_%d", i), c.Position)
		lines := strings.Split(c.Text, "\n")
		assert.Equal(t, "id, val", lines[0])
		assert.Len(t, lines, wantRows[i]+1)
	}
	assert.True(t, strings.HasPrefix(chunks[1].Text, "id, val\nr25, x"))
}

func TestRenderRows(t *testing.T) {
	got := RenderRows([][]string{{"a", "b"}, {"1", "2"}})
	assert.Equal(t, "a, b\n1, 2", got)
}

func TestPageChunker_SplitText(t *testing.T) {
	c := NewPageChunker(4)
	assert.Nil(t, c.SplitText(""))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, c.SplitText("abcdefghij"))
	assert.Equal(t, []string{"héll", "ö"}, c.SplitText("héllö"))
}

func TestPageChunker_Chunk(t *testing.T) {
	c := NewPageChunker(5)

	t.Run("Should key a single chunk by the page index", func(t *testing.T) {
		chunks := c.Chunk(reader.Page{Index: 3, Text: "short"})
		assert.Equal(t, []domain.Chunk{{Position: "3", Text: "short"}}, chunks)
	})

	t.Run("Should suffix later chunks of the same page", func(t *testing.T) {
		chunks := c.Chunk(reader.Page{Index: 1, Text: "0123456789ab"})
		require.Len(t, chunks, 3)
		assert.Equal(t, "1", chunks[0].Position)
		assert.Equal(t, "1_1", chunks[1].Position)
		assert.Equal(t, "1_2", chunks[2].Position)
		assert.Equal(t, "ab", chunks[2].Text)
	})

	t.Run("Should produce nothing for a blank page", func(t *testing.T) {
		assert.Empty(t, c.Chunk(reader.Page{Index: 0, Text: " \n\t"}))
	})
}

func TestPageWindow(t *testing.T) {
	pages := []reader.Page{
		{Index: 0, Text: "a"}, {Index: 1, Text: "b"}, {Index: 2, Text: ""},
		{Index: 3, Text: "d"}, {Index: 4, Text: "e"}, {Index: 5, Text: "f"},
	}

	tests := []struct {
		p, w int
		want string
	}{
		{0, 2, "ab"},
		{1, 2, "abd"},
		{2, 2, "abde"},
		{3, 2, "bdef"},
		{5, 2, "def"},
		{2, 0, ""},
		{4, 10, "abdef"},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("page %d window %d", tc.p, tc.w), func(t *testing.T) {
			assert.Equal(t, tc.want, PageWindow(pages, tc.p, tc.w))
		})
	}
	assert.Empty(t, PageWindow(pages, 9, 2))
}

func TestBatch(t *testing.T) {
	chunks := make([]domain.Chunk, 7)
	for i := range chunks {
		chunks[i] = domain.Chunk{Position: fmt.Sprintf("s_%d", i)}
	}
	groups := Batch("ctx", chunks, 3)
	require.Len(t, groups, 3)
	assert.Len(t, groups[2].Chunks, 1)
	assert.Equal(t, "ctx", groups[1].Context)
	assert.Equal(t, "s_3", groups[1].Chunks[0].Position)

	assert.Len(t, Batch("ctx", chunks, 0), 1)
	assert.Nil(t, Batch("ctx", nil, 3))
}
