// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// SuggestDependencies defines the interface for suggestion operations.
type SuggestDependencies interface {
	Suggest(ctx context.Context, prefix string, limit int) []string
}

// SuggestHandler handles identifier autocompletion requests.
type SuggestHandler struct {
	deps     SuggestDependencies
	maxLimit int
}

// NewSuggestHandler creates a new suggest handler.
func NewSuggestHandler(deps SuggestDependencies, maxLimit int) *SuggestHandler {
	return &SuggestHandler{deps: deps, maxLimit: maxLimit}
}

type suggestResponse struct {
	Prefix      string   `json:"prefix"`
	Suggestions []string `json:"suggestions"`
}

// HandleSuggest handles GET /suggest?q=...&limit=N requests. An empty q
// lists identifiers in table order, which backs the picker's initial view.
func (h *SuggestHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	const op = "api.suggest"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := h.maxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_limit", fmt.Errorf("%s: %w: limit must be a positive integer", op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			n = h.maxLimit
		}
		limit = n
	}

	q := r.URL.Query().Get("q")
	suggestions := h.deps.Suggest(r.Context(), q, limit)
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, suggestResponse{Prefix: q, Suggestions: suggestions})
}
