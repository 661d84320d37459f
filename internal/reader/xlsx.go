package reader

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX returns every non-empty sheet in workbook order. Each sheet's first
// row is its header.
func ReadXLSX(data []byte) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, readErr("xlsx", err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, readErr("xlsx", fmt.Errorf("sheet %q: %w", name, err))
		}
		rows = trimEmptyRows(rows)
		if len(rows) == 0 {
			continue
		}
		sheets = append(sheets, Sheet{Name: name, Header: rows[0], Rows: rows[1:]})
	}
	return sheets, nil
}

func trimEmptyRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
