package smoketest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/pkg/logger"
)

// Stats aggregates counters across the whole run.
type Stats struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Lookups    int64
	Matched    int64
	Unmatched  int64
	Failures   int64
	Violations int64
}

// lookupOutcome is the slice of a lookup response the verifier needs.
type lookupOutcome struct {
	query   string
	matched bool
	id      string
	score   *float64
}

// Run executes the complete smoke test against a running service.
func Run(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg.Timeout)
	log := logger.Get().Named("smoketest")

	log.Info(ctx, "starting smoke test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("queries", cfg.NumQueries),
		logger.Int("workers", cfg.Workers),
	)

	if err := checkServiceHealth(ctx, client, cfg); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	ids, err := sampleIdentifiers(ctx, client, cfg)
	if err != nil {
		return fmt.Errorf("identifier sampling failed: %w", err)
	}
	log.Info(ctx, "sampled identifiers", logger.Int("count", len(ids)))

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	queries := generateQueries(ids, cfg.NumQueries, rng)

	outcomes, err := runLookups(ctx, client, cfg, queries, stats)
	if err != nil {
		return fmt.Errorf("lookup phase failed: %w", err)
	}

	if err := verifyBatchAgainstLookups(ctx, client, cfg, queries, outcomes, stats); err != nil {
		return fmt.Errorf("batch verification failed: %w", err)
	}

	if err := verifyRiskIndex(ctx, client, cfg, outcomes, stats); err != nil {
		return fmt.Errorf("risk index verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	log.Info(ctx, "smoke test finished",
		logger.Int("lookups", int(stats.Lookups)),
		logger.Int("matched", int(stats.Matched)),
		logger.Int("unmatched", int(stats.Unmatched)),
		logger.Int("failures", int(stats.Failures)),
		logger.Int("violations", int(stats.Violations)),
		logger.String("duration", stats.Duration.String()),
	)

	if stats.Failures > 0 || stats.Violations > 0 {
		return fmt.Errorf("smoke test found %d failures and %d violations", stats.Failures, stats.Violations)
	}
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, cfg *Config) error {
	resp, err := client.Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("unexpected health status %d", resp.StatusCode)
	}
	return nil
}

// runLookups fires the generated queries over a worker pool and checks each
// strict expectation.
func runLookups(ctx context.Context, client *HTTPClient, cfg *Config, queries []Query, stats *Stats) ([]lookupOutcome, error) {
	log := logger.Get().Named("smoketest")
	outcomes := make([]lookupOutcome, len(queries))

	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcome, err := doLookup(ctx, client, cfg, queries[i])
				if err != nil {
					atomic.AddInt64(&stats.Failures, 1)
					if cfg.Verbose {
						log.Warn(ctx, "lookup failed", logger.String("query", queries[i].Text), logger.Error(err))
					}
					continue
				}
				outcomes[i] = outcome
				atomic.AddInt64(&stats.Lookups, 1)
				if outcome.matched {
					atomic.AddInt64(&stats.Matched, 1)
				} else {
					atomic.AddInt64(&stats.Unmatched, 1)
				}
				if violation := checkExpectation(queries[i], outcome); violation != "" {
					atomic.AddInt64(&stats.Violations, 1)
					log.Warn(ctx, "expectation violated",
						logger.String("query", queries[i].Text),
						logger.String("violation", violation),
					)
				}
			}
		}()
	}

	for i := range queries {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	return outcomes, nil
}

// doLookup performs one GET /lookup and extracts the top candidate.
func doLookup(ctx context.Context, client *HTTPClient, cfg *Config, q Query) (lookupOutcome, error) {
	resp, err := client.Get(ctx, lookupURL(cfg.BaseURL, q.Text))
	if err != nil {
		return lookupOutcome{}, err
	}

	var body struct {
		Matched    bool `json:"matched"`
		Candidates []struct {
			MatchedID string   `json:"matched_id"`
			Score     *float64 `json:"score"`
		} `json:"candidates"`
	}
	if err := decodeResponse(resp, &body); err != nil {
		return lookupOutcome{}, err
	}
	if len(body.Candidates) == 0 {
		return lookupOutcome{}, fmt.Errorf("lookup returned no candidates")
	}

	return lookupOutcome{
		query:   q.Text,
		matched: body.Matched,
		id:      body.Candidates[0].MatchedID,
		score:   body.Candidates[0].Score,
	}, nil
}

// checkExpectation compares an outcome with its query's expectation and
// returns a description of the violation, or empty.
func checkExpectation(q Query, o lookupOutcome) string {
	if !q.Strict {
		return ""
	}
	if q.WantMatch != o.matched {
		return fmt.Sprintf("want matched=%v, got %v", q.WantMatch, o.matched)
	}
	if q.WantID != "" && o.id != q.WantID {
		return fmt.Sprintf("want id %q, got %q", q.WantID, o.id)
	}
	return ""
}

// verifyBatchAgainstLookups submits every query as one batch and checks the
// batch rows agree with the single-lookup outcomes row by row.
func verifyBatchAgainstLookups(ctx context.Context, client *HTTPClient, cfg *Config, queries []Query, outcomes []lookupOutcome, stats *Stats) error {
	log := logger.Get().Named("smoketest")

	identifiers := make([]string, len(queries))
	for i, q := range queries {
		identifiers[i] = q.Text
	}

	resp, err := client.Post(ctx, cfg.BaseURL+"/batch", map[string]any{"identifiers": identifiers})
	if err != nil {
		return err
	}

	var body struct {
		Matched   int `json:"matched"`
		Unmatched int `json:"unmatched"`
		Rows      []struct {
			Query     string `json:"query"`
			MatchedID string `json:"matched_id"`
			Method    string `json:"method"`
		} `json:"rows"`
	}
	if err := decodeResponse(resp, &body); err != nil {
		return err
	}

	if len(body.Rows) != len(queries) {
		return fmt.Errorf("batch returned %d rows for %d identifiers", len(body.Rows), len(queries))
	}
	for i, row := range body.Rows {
		if row.Query != queries[i].Text {
			atomic.AddInt64(&stats.Violations, 1)
			log.Warn(ctx, "batch row out of order",
				logger.Int("row", i),
				logger.String("want", queries[i].Text),
				logger.String("got", row.Query),
			)
			continue
		}
		// Rows for queries whose single lookup succeeded must agree.
		if outcomes[i].query == row.Query && outcomes[i].matched && row.MatchedID != outcomes[i].id {
			atomic.AddInt64(&stats.Violations, 1)
			log.Warn(ctx, "batch row disagrees with single lookup",
				logger.String("query", row.Query),
				logger.String("lookup", outcomes[i].id),
				logger.String("batch", row.MatchedID),
			)
		}
	}
	if body.Matched+body.Unmatched != len(queries) {
		atomic.AddInt64(&stats.Violations, 1)
		log.Warn(ctx, "batch summary counts do not add up",
			logger.Int("matched", body.Matched),
			logger.Int("unmatched", body.Unmatched),
			logger.Int("rows", len(queries)),
		)
	}
	return nil
}

// verifyRiskIndex computes a risk index over the matched lookups with unit
// abundance and checks the total equals the sum of the per-row products.
func verifyRiskIndex(ctx context.Context, client *HTTPClient, cfg *Config, outcomes []lookupOutcome, stats *Stats) error {
	log := logger.Get().Named("smoketest")

	items := make([]map[string]any, 0)
	for _, o := range outcomes {
		if o.matched && o.score != nil {
			items = append(items, map[string]any{"query": o.id, "abundance": 1.0})
		}
	}
	if len(items) == 0 {
		log.Warn(ctx, "no scored matches; skipping risk index verification")
		return nil
	}

	resp, err := client.Post(ctx, cfg.BaseURL+"/riskindex", map[string]any{"items": items})
	if err != nil {
		return err
	}

	var body struct {
		RiskIndex     float64 `json:"risk_index"`
		Contributions []struct {
			Product float64 `json:"product"`
		} `json:"contributions"`
	}
	if err := decodeResponse(resp, &body); err != nil {
		return err
	}

	sum := 0.0
	for _, c := range body.Contributions {
		sum += c.Product
	}
	if math.Abs(sum-body.RiskIndex) > 1e-9 {
		atomic.AddInt64(&stats.Violations, 1)
		log.Warn(ctx, "risk index does not equal the sum of its contributions",
			logger.Float64("riskIndex", body.RiskIndex),
			logger.Float64("sum", sum),
		)
	}
	return nil
}
