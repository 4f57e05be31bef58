package loader

import "errors"

var (
	// ErrEmptyFile indicates the table file held no header row.
	ErrEmptyFile = errors.New("table file is empty")
	// ErrNoDataRows indicates the file held a header but no data rows.
	ErrNoDataRows = errors.New("table file has no data rows")
)
