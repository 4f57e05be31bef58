// Package model contains domain models passed between layers.
package model

// Row is one raw table row as produced by the loader: column name -> cell.
type Row map[string]string

// GeneRecord is one canonical ARG/ARM entry in the risk table.
type GeneRecord struct {
	// ID is the normalized identifier (case-folded, whitespace-trimmed).
	ID string
	// Display is the identifier as spelled in the source table.
	Display string
	// Levels holds the categorical *_level attributes.
	Levels map[string]string
	// Scores holds the numeric *_score attributes, clamped to [0,1].
	Scores map[string]float64
	// Extras holds any remaining display attributes.
	Extras map[string]string
}

// Columns is the ordered partition of table attributes. Slices preserve the
// source column order inside each group.
type Columns struct {
	ID     string
	Levels []string
	Scores []string
	Extras []string
}

// Warning is a non-fatal table load issue (duplicate id, out-of-range score).
type Warning struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Load warning codes.
const (
	WarnDuplicateID   = "duplicate_id"
	WarnScoreClamped  = "score_clamped"
	WarnNonNumeric    = "non_numeric_score"
	WarnMissingID     = "missing_id"
	WarnRaggedIgnored = "ragged_row"
)
