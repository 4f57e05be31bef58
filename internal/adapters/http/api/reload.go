// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
)

// ReloadDependencies defines the interface for table reload operations.
type ReloadDependencies interface {
	Reload(ctx context.Context) error
	Count(ctx context.Context) int
	Warnings(ctx context.Context) []model.Warning
}

// ReloadHandler re-reads the risk table from disk on demand.
type ReloadHandler struct {
	deps ReloadDependencies
}

// NewReloadHandler creates a new reload handler.
func NewReloadHandler(deps ReloadDependencies) *ReloadHandler {
	return &ReloadHandler{deps: deps}
}

type reloadResponse struct {
	Status   string          `json:"status"`
	Records  int             `json:"records"`
	Warnings []model.Warning `json:"warnings"`
}

// HandleReload handles POST /reload requests. A failed reload leaves the
// previous table serving, so the error is reported without downtime.
func (h *ReloadHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	const op = "api.reload"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	if err := h.deps.Reload(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "reload_failed", fmt.Errorf("%s: %w", op, err))
		return
	}
	warnings := h.deps.Warnings(r.Context())
	if warnings == nil {
		warnings = []model.Warning{}
	}
	writeJSON(w, http.StatusOK, reloadResponse{
		Status:   "reloaded",
		Records:  h.deps.Count(r.Context()),
		Warnings: warnings,
	})
}
