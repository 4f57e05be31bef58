// Package loader reads the risk reference table from delimited text files.
// Comma-separated input is the primary format; files whose header does not
// split on commas are re-read as tab-separated, so exports from spreadsheet
// tools work without conversion.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads the file at path and returns its header and data rows. Ragged
// rows are tolerated: short rows leave trailing cells empty, long rows drop
// the excess.
func Load(ctx context.Context, path string) ([]string, []model.Row, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read table file: %w", err)
	}
	header, rows, err := Parse(ctx, raw)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return header, rows, nil
}

// Parse decodes delimited table bytes, trying comma first and falling back to
// tab when the header comes out as a single column.
func Parse(ctx context.Context, raw []byte) ([]string, []model.Row, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, ErrEmptyFile
	}

	header, rows, err := parseWith(raw, ',')
	if err == nil && len(header) == 1 && strings.ContainsRune(header[0], '\t') {
		header, rows, err = parseWith(raw, '\t')
	}
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, ErrNoDataRows
	}
	return header, rows, nil
}

func parseWith(raw []byte, delim rune) ([]string, []model.Row, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.Comma = delim
	r.FieldsPerRecord = -1 // ragged rows handled below
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, ErrEmptyFile
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for i, c := range header {
		header[i] = strings.TrimSpace(c)
	}

	var rows []model.Row
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", line, err)
		}
		row := make(model.Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}
