// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/present"
)

// LookupDependencies defines the interface for lookup operations.
type LookupDependencies interface {
	Lookup(ctx context.Context, query string, threshold float64) []model.MatchCandidate
	Score(ctx context.Context, rec *model.GeneRecord) (float64, bool)
}

// LookupHandler handles single identifier lookups.
type LookupHandler struct {
	deps LookupDependencies
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(deps LookupDependencies) *LookupHandler {
	return &LookupHandler{deps: deps}
}

// recordView mirrors the OpenAPI schema for a resolved table record.
type recordView struct {
	ID      string             `json:"id"`
	Display string             `json:"display"`
	Levels  map[string]string  `json:"levels,omitempty"`
	Scores  map[string]float64 `json:"scores,omitempty"`
	Extras  map[string]string  `json:"extras,omitempty"`
}

// candidateView is one ranked match in a lookup response.
type candidateView struct {
	MatchedID  string      `json:"matched_id,omitempty"`
	Method     string      `json:"method"`
	Similarity float64     `json:"similarity"`
	Score      *float64    `json:"score,omitempty"`
	ScoreBadge string      `json:"score_badge"`
	ScoreColor string      `json:"score_color"`
	Record     *recordView `json:"record,omitempty"`
}

type lookupResponse struct {
	Query      string          `json:"query"`
	Matched    bool            `json:"matched"`
	Candidates []candidateView `json:"candidates"`
}

// HandleLookup handles GET /lookup?q=...&threshold=... requests.
func (h *LookupHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	const op = "api.lookup"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, "missing_query", fmt.Errorf("%s: %w: q is required", op, ErrBadRequest))
		return
	}

	threshold, err := parseThreshold(r.URL.Query().Get("threshold"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_threshold", fmt.Errorf("%s: %w", op, err))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "bad_limit", fmt.Errorf("%s: %w: limit must be a positive integer", op, ErrBadRequest))
			return
		}
	}

	candidates := h.deps.Lookup(r.Context(), q, threshold)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	resp := lookupResponse{
		Query:      q,
		Matched:    candidates[0].Matched(),
		Candidates: make([]candidateView, 0, len(candidates)),
	}
	for _, c := range candidates {
		resp.Candidates = append(resp.Candidates, h.viewOf(r.Context(), c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// viewOf renders one candidate with its composite score and display color.
func (h *LookupHandler) viewOf(ctx context.Context, c model.MatchCandidate) candidateView {
	v := candidateView{
		MatchedID:  c.MatchedID,
		Method:     string(c.Method),
		Similarity: c.Similarity,
		ScoreBadge: present.BadgeLabel(0, false),
		ScoreColor: present.UnscoredColor(),
	}
	if !c.Matched() {
		return v
	}

	v.Record = &recordView{
		ID:      c.Record.ID,
		Display: c.Record.Display,
		Levels:  c.Record.Levels,
		Scores:  c.Record.Scores,
		Extras:  c.Record.Extras,
	}
	if score, ok := h.deps.Score(ctx, c.Record); ok {
		v.Score = &score
		v.ScoreBadge = present.BadgeLabel(score, true)
		v.ScoreColor = present.GradientColor(score)
	}
	return v
}

// parseThreshold parses an optional similarity threshold query parameter.
// Empty input means "use the configured default" and comes back as zero.
func parseThreshold(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil || t <= 0 || t > 1 {
		return 0, fmt.Errorf("%w: threshold must be a number in (0,1]", ErrBadRequest)
	}
	return t, nil
}
