package repository

import "errors"

// Sentinel kinds for table build errors. These are the fatal schema errors;
// duplicate ids and out-of-range scores are warnings, not errors.
var (
	ErrNoRows     = errors.New("table has no rows")
	ErrNoIDColumn = errors.New("no identifier column found")
)
