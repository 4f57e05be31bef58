// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/scoring"
)

// RiskIndexDependencies defines the interface for risk index operations.
type RiskIndexDependencies interface {
	RiskIndex(ctx context.Context, items []model.SampleItem, scoreColumn string) (float64, []scoring.Contribution)
}

// RiskIndexHandler computes sample-level risk indexes.
type RiskIndexHandler struct {
	deps    RiskIndexDependencies
	maxSize int
}

// NewRiskIndexHandler creates a new risk index handler.
func NewRiskIndexHandler(deps RiskIndexDependencies, maxSize int) *RiskIndexHandler {
	return &RiskIndexHandler{deps: deps, maxSize: maxSize}
}

// riskIndexRequest mirrors the OpenAPI schema for POST /riskindex.
type riskIndexRequest struct {
	Items       []riskIndexItem `json:"items"`
	ScoreColumn string          `json:"score_column,omitempty"`
}

type riskIndexItem struct {
	Query     string  `json:"query"`
	Abundance float64 `json:"abundance"`
}

func (r riskIndexRequest) validate(maxSize int) error {
	if len(r.Items) == 0 {
		return fmt.Errorf("%w: items must not be empty", ErrBadRequest)
	}
	if len(r.Items) > maxSize {
		return fmt.Errorf("%w: %d items exceeds the limit of %d", ErrTooLarge, len(r.Items), maxSize)
	}
	for i, it := range r.Items {
		if strings.TrimSpace(it.Query) == "" {
			return fmt.Errorf("%w: item %d has an empty query", ErrBadRequest, i)
		}
		if math.IsNaN(it.Abundance) || math.IsInf(it.Abundance, 0) || it.Abundance < 0 {
			return fmt.Errorf("%w: item %d abundance must be a non-negative number", ErrBadRequest, i)
		}
	}
	return nil
}

// contributionView is one row of the risk index breakdown.
type contributionView struct {
	Query     string  `json:"query"`
	MatchedID string  `json:"matched_id,omitempty"`
	Method    string  `json:"method"`
	Abundance float64 `json:"abundance"`
	Score     float64 `json:"score"`
	Product   float64 `json:"product"`
}

type riskIndexResponse struct {
	RiskIndex     float64            `json:"risk_index"`
	ScoreColumn   string             `json:"score_column,omitempty"`
	Contributions []contributionView `json:"contributions"`
}

// HandleRiskIndex handles POST /riskindex requests.
func (h *RiskIndexHandler) HandleRiskIndex(w http.ResponseWriter, r *http.Request) {
	const op = "api.riskindex"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req riskIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", fmt.Errorf("%s: %w: %s", op, ErrBadRequest, err))
		return
	}
	if err := req.validate(h.maxSize); err != nil {
		status := http.StatusBadRequest
		code := "bad_request"
		if len(req.Items) > h.maxSize {
			status = http.StatusRequestEntityTooLarge
			code = "too_many_rows"
		}
		writeError(w, status, code, fmt.Errorf("%s: %w", op, err))
		return
	}

	items := make([]model.SampleItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = model.SampleItem{Query: it.Query, Abundance: it.Abundance}
	}

	total, contribs := h.deps.RiskIndex(r.Context(), items, req.ScoreColumn)

	resp := riskIndexResponse{
		RiskIndex:     total,
		ScoreColumn:   req.ScoreColumn,
		Contributions: make([]contributionView, 0, len(contribs)),
	}
	for _, c := range contribs {
		resp.Contributions = append(resp.Contributions, contributionView{
			Query:     c.Query,
			MatchedID: c.MatchedID,
			Method:    string(c.Method),
			Abundance: c.Abundance,
			Score:     c.Score,
			Product:   c.Product,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
