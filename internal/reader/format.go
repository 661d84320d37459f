package reader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"docvec/internal/domain"
)

// Page is one page of a paginated document. Index is the 0-based physical page
// number; Text is empty when nothing could be extracted.
type Page struct {
	Index int
	Text  string
}

// PaginatedDocument holds every page of a paginated source, including empty ones,
// so context windows can be computed over physical page positions.
type PaginatedDocument struct {
	Pages []Page
}

// Sheet is one table: a header row held separately from the body rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Supported reports whether name carries one of the supported extensions.
func Supported(name string) bool {
	_, ok := typeFromExtension(name)
	return ok
}

// DetectFormat resolves the extraction variant for a document. The extension
// decides when present; otherwise the content is sniffed.
func DetectFormat(name string, data []byte) (domain.FileType, error) {
	if ft, ok := typeFromExtension(name); ok {
		return ft, nil
	}
	if filepath.Ext(name) == "" && len(data) > 0 {
		if ft, ok := typeFromMIME(mimetype.Detect(data)); ok {
			return ft, nil
		}
	}
	return "", fmt.Errorf("%w: %q (only PDF, CSV, or XLSX files are supported)", domain.ErrUnsupportedFormat, name)
}

func typeFromExtension(name string) (domain.FileType, bool) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "pdf":
		return domain.FileTypePDF, true
	case "csv":
		return domain.FileTypeCSV, true
	case "xlsx":
		return domain.FileTypeXLSX, true
	default:
		return "", false
	}
}

func typeFromMIME(m *mimetype.MIME) (domain.FileType, bool) {
	switch {
	case m.Is("application/pdf"):
		return domain.FileTypePDF, true
	case m.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return domain.FileTypeXLSX, true
	case m.Is("text/csv"):
		return domain.FileTypeCSV, true
	default:
		return "", false
	}
}

// SheetName derives the sheet name used for CSV position keys.
func SheetName(documentName string) string {
	base := filepath.Base(documentName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func readErr(kind string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrRead, kind, err)
}
