package model

// MatchMethod names the resolution stage that produced a candidate.
type MatchMethod string

// Resolution stages, cheapest first.
const (
	MatchExact     MatchMethod = "exact"
	MatchPrefix    MatchMethod = "prefix"
	MatchFuzzy     MatchMethod = "fuzzy"
	MatchUnmatched MatchMethod = "unmatched"
)

// MatchCandidate is the outcome of resolving one query against the table.
// Record points into the owning table and is never copied.
type MatchCandidate struct {
	Query      string
	MatchedID  string
	Method     MatchMethod
	Similarity float64
	Record     *GeneRecord
}

// Matched reports whether the candidate resolved to a record.
func (c MatchCandidate) Matched() bool {
	return c.Method != MatchUnmatched && c.Record != nil
}

// BatchRow pairs a resolved candidate with its composite score. Scored is
// false when the record carries no numeric scores at all.
type BatchRow struct {
	Candidate MatchCandidate
	Composite float64
	Scored    bool
}

// SampleItem is one (identifier, abundance) pair from an uploaded sample
// abundance profile.
type SampleItem struct {
	Query     string
	Abundance float64
}

// BatchResult is the ordered outcome of one batch submission.
type BatchResult struct {
	ID        string
	Rows      []BatchRow
	Matched   int
	Unmatched int
	// MeanScore is the mean composite over matched scored rows. HasMean is
	// false when no matched row carried a score.
	MeanScore float64
	HasMean   bool
}
