package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/similarity"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/pkg/metrics"
)

// Attribute classification markers, matched case-insensitively as either a
// suffix ("Mobility_level") or a prefix ("level_x"); both spellings occur in
// the wild.
const (
	levelSuffix = "_level"
	levelPrefix = "level_"
	scoreSuffix = "_score"
	scorePrefix = "score_"
)

// builder holds Build configuration before the immutable store is assembled.
type builder struct {
	idColumn string
}

// TableStore is the immutable in-memory risk table. All fields are written
// once during Build and read-only afterwards, so concurrent reads need no
// locking.
type TableStore struct {
	records map[string]*model.GeneRecord
	sorted  []string // ids in lexicographic order, for prefix search
	order   []string // ids in source row order, for empty-prefix listing
	cols    model.Columns
}

var _ Store = (*TableStore)(nil)

// Build assembles a TableStore from header-ordered raw rows. It fails with a
// schema error when no identifier column is identifiable or a row is
// structurally unusable; duplicate ids and out-of-range scores come back as
// warnings alongside a successfully built store.
func Build(ctx context.Context, header []string, rows []model.Row, opts ...Option) (*TableStore, []model.Warning, error) {
	b := &builder{}
	for _, opt := range opts {
		opt(b)
	}

	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("build table: %w", ErrNoRows)
	}

	idCol := b.idColumn
	if idCol == "" {
		idCol = detectIDColumn(header)
	}
	if idCol == "" {
		return nil, nil, fmt.Errorf("build table: %w (columns: %s)", ErrNoIDColumn, strings.Join(header, ", "))
	}

	cols := classifyColumns(header, idCol)

	s := &TableStore{
		records: make(map[string]*model.GeneRecord, len(rows)),
		cols:    cols,
	}

	var warnings []model.Warning
	for i, row := range rows {
		id := similarity.Normalize(row[idCol])
		if id == "" {
			warnings = append(warnings, model.Warning{
				Code:   model.WarnMissingID,
				Detail: fmt.Sprintf("row %d has an empty %s cell", i+1, idCol),
			})
			continue
		}
		if _, dup := s.records[id]; dup {
			// First occurrence wins to keep behavior deterministic.
			warnings = append(warnings, model.Warning{
				Code:   model.WarnDuplicateID,
				Detail: fmt.Sprintf("row %d duplicates id %q; first occurrence kept", i+1, id),
			})
			continue
		}

		rec := &model.GeneRecord{
			ID:      id,
			Display: strings.TrimSpace(row[idCol]),
			Levels:  make(map[string]string, len(cols.Levels)),
			Scores:  make(map[string]float64, len(cols.Scores)),
			Extras:  make(map[string]string, len(cols.Extras)),
		}
		for _, c := range cols.Levels {
			rec.Levels[c] = row[c]
		}
		for _, c := range cols.Scores {
			cell := strings.TrimSpace(row[c])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				warnings = append(warnings, model.Warning{
					Code:   model.WarnNonNumeric,
					Detail: fmt.Sprintf("row %d column %s: %q is not numeric", i+1, c, cell),
				})
				continue
			}
			if clamped, changed := clamp01(v); changed {
				warnings = append(warnings, model.Warning{
					Code:   model.WarnScoreClamped,
					Detail: fmt.Sprintf("row %d column %s: %v clamped to %v", i+1, c, v, clamped),
				})
				v = clamped
			}
			rec.Scores[c] = v
		}
		for _, c := range cols.Extras {
			rec.Extras[c] = row[c]
		}

		s.records[id] = rec
		s.order = append(s.order, id)
	}

	s.sorted = make([]string, len(s.order))
	copy(s.sorted, s.order)
	sort.Strings(s.sorted)

	metrics.UpdateTableRecords(len(s.records))
	metrics.RecordTableLoadWarnings(len(warnings))

	return s, warnings, nil
}

// Get returns the record for a normalized id.
func (s *TableStore) Get(_ context.Context, id string) (*model.GeneRecord, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

// PrefixSearch returns up to limit ids starting with the normalized text.
func (s *TableStore) PrefixSearch(_ context.Context, text string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	prefix := similarity.Normalize(text)
	if prefix == "" {
		n := limit
		if n > len(s.order) {
			n = len(s.order)
		}
		out := make([]string, n)
		copy(out, s.order[:n])
		return out
	}

	start := sort.SearchStrings(s.sorted, prefix)
	var out []string
	for i := start; i < len(s.sorted) && len(out) < limit; i++ {
		if !strings.HasPrefix(s.sorted[i], prefix) {
			break
		}
		out = append(out, s.sorted[i])
	}
	return out
}

// IDs returns all normalized ids in lexicographic order.
func (s *TableStore) IDs(_ context.Context) []string {
	return s.sorted
}

// Columns returns the ordered attribute partition.
func (s *TableStore) Columns(_ context.Context) model.Columns {
	return s.cols
}

// Count returns the number of records in the table.
func (s *TableStore) Count(_ context.Context) int {
	return len(s.records)
}

// detectIDColumn picks the identifier column by name: a column containing
// "gene" wins over one containing "id", both case-insensitive.
func detectIDColumn(header []string) string {
	for _, c := range header {
		if strings.Contains(strings.ToLower(c), "gene") {
			return c
		}
	}
	for _, c := range header {
		if strings.Contains(strings.ToLower(c), "id") {
			return c
		}
	}
	return ""
}

// classifyColumns partitions header columns by suffix, excluding the id
// column from every group. Source order is preserved inside each group.
func classifyColumns(header []string, idCol string) model.Columns {
	cols := model.Columns{ID: idCol}
	for _, c := range header {
		if c == idCol {
			continue
		}
		lower := strings.ToLower(c)
		switch {
		case strings.HasSuffix(lower, levelSuffix) || strings.HasPrefix(lower, levelPrefix):
			cols.Levels = append(cols.Levels, c)
		case strings.HasSuffix(lower, scoreSuffix) || strings.HasPrefix(lower, scorePrefix):
			cols.Scores = append(cols.Scores, c)
		default:
			cols.Extras = append(cols.Extras, c)
		}
	}
	return cols
}

func clamp01(v float64) (float64, bool) {
	switch {
	case v < 0:
		return 0, true
	case v > 1:
		return 1, true
	default:
		return v, false
	}
}
