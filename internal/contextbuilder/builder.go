package contextbuilder

import (
	"context"
	"fmt"

	"docvec/internal/chunker"
	"docvec/internal/domain"
	"docvec/internal/reader"
)

// Builder derives the document-level context handed to every augmentation call.
type Builder struct {
	augmenter  domain.Augmenter
	sampleRows int
	pageWindow int
}

func New(augmenter domain.Augmenter, sampleRows, pageWindow int) *Builder {
	if sampleRows <= 0 {
		sampleRows = 5
	}
	if pageWindow < 0 {
		pageWindow = 0
	}
	return &Builder{augmenter: augmenter, sampleRows: sampleRows, pageWindow: pageWindow}
}

// Sample renders the header followed by the first sample rows of a sheet.
func (b *Builder) Sample(sheet reader.Sheet) string {
	n := b.sampleRows
	if n > len(sheet.Rows) {
		n = len(sheet.Rows)
	}
	rows := make([][]string, 0, n+1)
	rows = append(rows, sheet.Header)
	rows = append(rows, sheet.Rows[:n]...)
	return chunker.RenderRows(rows)
}

// DescribeSheet issues the single description call for a sheet. Failures are
// fatal for the document and are not retried.
func (b *Builder) DescribeSheet(ctx context.Context, sheet reader.Sheet) (string, error) {
	desc, err := b.augmenter.DescribeTable(ctx, b.Sample(sheet))
	if err != nil {
		return "", fmt.Errorf("%w: describe sheet %q: %w", domain.ErrAugmentation, sheet.Name, err)
	}
	return desc, nil
}

// PageContext returns the context window for page p.
func (b *Builder) PageContext(doc *reader.PaginatedDocument, p int) string {
	return chunker.PageWindow(doc.Pages, p, b.pageWindow)
}
