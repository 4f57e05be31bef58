// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/scoring"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Lookup resolves one identifier to ranked candidates. A non-positive
	// threshold selects the configured default.
	Lookup(ctx context.Context, query string, threshold float64) []model.MatchCandidate

	// Suggest returns known identifiers starting with prefix.
	Suggest(ctx context.Context, prefix string, limit int) []string

	// Batch resolves and scores a list of identifiers in input order.
	Batch(ctx context.Context, identifiers []string, threshold float64) model.BatchResult

	// RiskIndex computes the abundance-weighted risk index for a sample.
	RiskIndex(ctx context.Context, items []model.SampleItem, scoreColumn string) (float64, []scoring.Contribution)

	// Columns returns the table's attribute partition.
	Columns(ctx context.Context) model.Columns

	// Score computes a record's composite risk score.
	Score(ctx context.Context, rec *model.GeneRecord) (float64, bool)

	// Reload re-reads the risk table from disk.
	Reload(ctx context.Context) error

	// Count returns the number of loaded records.
	Count(ctx context.Context) int

	// Warnings returns the non-fatal issues from the most recent load.
	Warnings(ctx context.Context) []model.Warning
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	lookupHandler    *LookupHandler
	suggestHandler   *SuggestHandler
	columnsHandler   *ColumnsHandler
	batchHandler     *BatchHandler
	riskIndexHandler *RiskIndexHandler
	reloadHandler    *ReloadHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	cfg := serverConfig{
		suggestLimit: defaultSuggestLimit,
		maxBatchSize: defaultMaxBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		lookupHandler:    NewLookupHandler(deps),
		suggestHandler:   NewSuggestHandler(deps, cfg.suggestLimit),
		columnsHandler:   NewColumnsHandler(deps),
		batchHandler:     NewBatchHandler(deps, cfg.maxBatchSize),
		riskIndexHandler: NewRiskIndexHandler(deps, cfg.maxBatchSize),
		reloadHandler:    NewReloadHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/lookup", MetricsMiddleware(s.lookupHandler.HandleLookup, "lookup"))
	mux.HandleFunc("/suggest", MetricsMiddleware(s.suggestHandler.HandleSuggest, "suggest"))
	mux.HandleFunc("/columns", MetricsMiddleware(s.columnsHandler.HandleColumns, "columns"))
	mux.HandleFunc("/batch", MetricsMiddleware(s.batchHandler.HandleBatch, "batch"))
	mux.HandleFunc("/riskindex", MetricsMiddleware(s.riskIndexHandler.HandleRiskIndex, "riskindex"))
	mux.HandleFunc("/reload", MetricsMiddleware(s.reloadHandler.HandleReload, "reload"))
}

// serverConfig holds per-server handler limits.
type serverConfig struct {
	suggestLimit int
	maxBatchSize int
}

// ServerOption applies a configuration option to NewServer.
type ServerOption func(*serverConfig)

// WithSuggestLimit caps GET /suggest?limit.
func WithSuggestLimit(limit int) ServerOption {
	return func(c *serverConfig) {
		if limit > 0 {
			c.suggestLimit = limit
		}
	}
}

// WithMaxBatchSize caps rows per batch and risk index submission.
func WithMaxBatchSize(size int) ServerOption {
	return func(c *serverConfig) {
		if size > 0 {
			c.maxBatchSize = size
		}
	}
}

// Handler limits used when no option overrides them.
const (
	defaultSuggestLimit = 20
	defaultMaxBatchSize = 10000
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
