// Package scoring computes composite risk values from record attributes and
// abundance-weighted risk indices over resolved samples.
package scoring

import (
	"context"
	"strings"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
)

// finalMarker identifies the authoritative composite column. The canonical
// table spells it Final_Risk_score, but variants like score_final_risk occur;
// any score column containing "final" qualifies.
const finalMarker = "final"

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithFinalMarker overrides the substring that marks the authoritative
// score column.
func WithFinalMarker(marker string) Option {
	return func(a *Aggregator) {
		if marker != "" {
			a.finalMarker = strings.ToLower(marker)
		}
	}
}

// Aggregator folds a record's per-attribute scores into one bounded value.
type Aggregator struct {
	finalMarker string
}

// New creates an Aggregator with configuration options.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		finalMarker: finalMarker,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Composite returns the record's composite risk in [0,1]. The authoritative
// final-risk column wins when present; otherwise the arithmetic mean of all
// score attributes. ok is false when the record carries no scores at all,
// and callers must treat the record as unscored.
func (a *Aggregator) Composite(_ context.Context, rec *model.GeneRecord) (float64, bool) {
	if rec == nil || len(rec.Scores) == 0 {
		return 0, false
	}

	for col, v := range rec.Scores {
		if strings.Contains(strings.ToLower(col), a.finalMarker) {
			return v, true
		}
	}

	sum := 0.0
	for _, v := range rec.Scores {
		sum += v
	}
	return sum / float64(len(rec.Scores)), true
}

// ScoreColumn returns the value of one named score column, falling back to
// Composite when col is empty. Missing values come back as 0 with ok=false,
// mirroring the canonical table's "Not Defined means zero" convention.
func (a *Aggregator) ScoreColumn(ctx context.Context, rec *model.GeneRecord, col string) (float64, bool) {
	if col == "" {
		return a.Composite(ctx, rec)
	}
	if rec == nil {
		return 0, false
	}
	for name, v := range rec.Scores {
		if strings.EqualFold(name, col) {
			return v, true
		}
	}
	return 0, false
}

// IndexItem is one resolved sample row entering the risk index.
type IndexItem struct {
	Candidate model.MatchCandidate
	Abundance float64
}

// Contribution is one row of the risk index breakdown.
type Contribution struct {
	Query     string
	MatchedID string
	Method    model.MatchMethod
	Abundance float64
	Score     float64
	Product   float64
}

// RiskIndex computes the sample-level risk index: the sum over rows of
// abundance times the chosen risk score. Unmatched or unscored rows
// contribute zero but stay in the breakdown.
func (a *Aggregator) RiskIndex(ctx context.Context, items []IndexItem, scoreColumn string) (float64, []Contribution) {
	total := 0.0
	contribs := make([]Contribution, 0, len(items))

	for _, it := range items {
		c := Contribution{
			Query:     it.Candidate.Query,
			MatchedID: it.Candidate.MatchedID,
			Method:    it.Candidate.Method,
			Abundance: it.Abundance,
		}
		if it.Candidate.Matched() {
			if score, ok := a.ScoreColumn(ctx, it.Candidate.Record, scoreColumn); ok {
				c.Score = score
			}
		}
		c.Product = c.Abundance * c.Score
		total += c.Product
		contribs = append(contribs, c)
	}

	return total, contribs
}
