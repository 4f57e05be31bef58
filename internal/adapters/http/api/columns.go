// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/present"
)

// ColumnsDependencies defines the interface for column introspection.
type ColumnsDependencies interface {
	Columns(ctx context.Context) model.Columns
}

// ColumnsHandler reports the loaded table's attribute partition.
type ColumnsHandler struct {
	deps ColumnsDependencies
}

// NewColumnsHandler creates a new columns handler.
func NewColumnsHandler(deps ColumnsDependencies) *ColumnsHandler {
	return &ColumnsHandler{deps: deps}
}

type columnsResponse struct {
	ID           string   `json:"id"`
	Levels       []string `json:"levels"`
	Scores       []string `json:"scores"`
	Extras       []string `json:"extras"`
	DisplayOrder []string `json:"display_order"`
}

// HandleColumns handles GET /columns requests.
func (h *ColumnsHandler) HandleColumns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	cols := h.deps.Columns(r.Context())
	writeJSON(w, http.StatusOK, columnsResponse{
		ID:           cols.ID,
		Levels:       emptyIfNil(cols.Levels),
		Scores:       emptyIfNil(cols.Scores),
		Extras:       emptyIfNil(cols.Extras),
		DisplayOrder: emptyIfNil(present.OrderColumns(cols.Levels, cols.Scores, cols.Extras)),
	})
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
