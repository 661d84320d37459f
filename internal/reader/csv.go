package reader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a delimited table. The first row is the header; every
// following row is one raw unit. An empty input yields a sheet without rows.
func ReadCSV(data []byte, sheetName string) (*Sheet, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	sheet := &Sheet{Name: sheetName}
	first := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readErr("csv", err)
		}
		if first {
			sheet.Header = rec
			first = false
			continue
		}
		sheet.Rows = append(sheet.Rows, rec)
	}
	return sheet, nil
}
