// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/present"
)

// BatchDependencies defines the interface for batch operations.
type BatchDependencies interface {
	Batch(ctx context.Context, identifiers []string, threshold float64) model.BatchResult
	Score(ctx context.Context, rec *model.GeneRecord) (float64, bool)
}

// BatchHandler handles multi-identifier submissions.
type BatchHandler struct {
	deps    BatchDependencies
	maxSize int
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(deps BatchDependencies, maxSize int) *BatchHandler {
	return &BatchHandler{deps: deps, maxSize: maxSize}
}

// batchRequest mirrors the OpenAPI schema for POST /batch.
type batchRequest struct {
	Identifiers []string `json:"identifiers"`
	Threshold   float64  `json:"threshold,omitempty"`
}

func (b batchRequest) validate(maxSize int) error {
	if len(b.Identifiers) == 0 {
		return fmt.Errorf("%w: identifiers must not be empty", ErrBadRequest)
	}
	if len(b.Identifiers) > maxSize {
		return fmt.Errorf("%w: %d identifiers exceeds the limit of %d", ErrTooLarge, len(b.Identifiers), maxSize)
	}
	if b.Threshold < 0 || b.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be in (0,1]", ErrBadRequest)
	}
	return nil
}

// batchRowView is one input row in a batch response, in submission order.
type batchRowView struct {
	Query string `json:"query"`
	candidateView
}

type batchResponse struct {
	ID        string         `json:"id"`
	Matched   int            `json:"matched"`
	Unmatched int            `json:"unmatched"`
	MeanScore *float64       `json:"mean_score,omitempty"`
	Rows      []batchRowView `json:"rows"`
}

// HandleBatch handles POST /batch requests.
func (h *BatchHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", fmt.Errorf("%s: %w: %s", op, ErrBadRequest, err))
		return
	}
	if err := req.validate(h.maxSize); err != nil {
		status := http.StatusBadRequest
		code := "bad_request"
		if len(req.Identifiers) > h.maxSize {
			status = http.StatusRequestEntityTooLarge
			code = "too_many_rows"
		}
		writeError(w, status, code, fmt.Errorf("%s: %w", op, err))
		return
	}

	result := h.deps.Batch(r.Context(), req.Identifiers, req.Threshold)

	resp := batchResponse{
		ID:        result.ID,
		Matched:   result.Matched,
		Unmatched: result.Unmatched,
		Rows:      make([]batchRowView, 0, len(result.Rows)),
	}
	if result.HasMean {
		mean := result.MeanScore
		resp.MeanScore = &mean
	}
	for _, row := range result.Rows {
		resp.Rows = append(resp.Rows, h.rowView(row))
	}
	writeJSON(w, http.StatusOK, resp)
}

// rowView renders one batch row with its precomputed composite score.
func (h *BatchHandler) rowView(row model.BatchRow) batchRowView {
	v := batchRowView{
		Query: row.Candidate.Query,
		candidateView: candidateView{
			MatchedID:  row.Candidate.MatchedID,
			Method:     string(row.Candidate.Method),
			Similarity: row.Candidate.Similarity,
			ScoreBadge: present.BadgeLabel(0, false),
			ScoreColor: present.UnscoredColor(),
		},
	}
	if !row.Candidate.Matched() {
		return v
	}

	v.Record = &recordView{
		ID:      row.Candidate.Record.ID,
		Display: row.Candidate.Record.Display,
		Levels:  row.Candidate.Record.Levels,
		Scores:  row.Candidate.Record.Scores,
		Extras:  row.Candidate.Record.Extras,
	}
	if row.Scored {
		score := row.Composite
		v.Score = &score
		v.ScoreBadge = present.BadgeLabel(score, true)
		v.ScoreColor = present.GradientColor(score)
	}
	return v
}
