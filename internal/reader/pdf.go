package reader

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ReadPDF extracts the plain text of every page.
func ReadPDF(data []byte) (doc *PaginatedDocument, err error) {
	if len(data) == 0 {
		return nil, readErr("pdf", errors.New("empty input"))
	}
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = readErr("pdf", fmt.Errorf("malformed document: %v", r))
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, readErr("pdf", err)
	}
	total := r.NumPage()
	pages := make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		text := ""
		if !p.V.IsNull() {
			text, err = p.GetPlainText(nil)
			if err != nil {
				return nil, readErr("pdf", fmt.Errorf("page %d: %w", i-1, err))
			}
		}
		if strings.TrimSpace(text) == "" {
			text = ""
		}
		pages = append(pages, Page{Index: i - 1, Text: text})
	}
	return &PaginatedDocument{Pages: pages}, nil
}
