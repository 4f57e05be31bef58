package smoketest

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
)

// Query is one generated lookup with its expected outcome. Mutated
// spellings have no firm expectation; the fuzzy stage may or may not accept
// them depending on the identifier's length.
type Query struct {
	Text      string
	WantMatch bool
	WantID    string
	// Strict is false for mutated spellings where a miss is acceptable.
	Strict bool
}

// sampleIdentifiers pulls up to limit known identifiers from /suggest.
func sampleIdentifiers(ctx context.Context, client *HTTPClient, cfg *Config) ([]string, error) {
	u := fmt.Sprintf("%s/suggest?limit=%d", cfg.BaseURL, cfg.SampleSize)
	resp, err := client.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("suggest request failed: %w", err)
	}

	var body struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := decodeResponse(resp, &body); err != nil {
		return nil, err
	}
	if len(body.Suggestions) == 0 {
		return nil, fmt.Errorf("service returned no identifiers to sample")
	}
	return body.Suggestions, nil
}

// generateQueries builds n lookups over the sampled identifiers: exact
// spellings, case variants, truncated prefixes, single-character mutations
// and guaranteed junk.
func generateQueries(ids []string, n int, rng *rand.Rand) []Query {
	queries := make([]Query, 0, n)
	for i := 0; i < n; i++ {
		id := ids[rng.Intn(len(ids))]
		switch i % 5 {
		case 0: // exact
			queries = append(queries, Query{Text: id, WantMatch: true, WantID: id, Strict: true})
		case 1: // case variant normalizes to the same id
			queries = append(queries, Query{Text: strings.ToUpper(id), WantMatch: true, WantID: id, Strict: true})
		case 2: // truncated prefix still resolves when long enough
			if len(id) > 3 {
				cut := id[:len(id)-1]
				queries = append(queries, Query{Text: cut, WantMatch: true, Strict: true})
			} else {
				queries = append(queries, Query{Text: id, WantMatch: true, WantID: id, Strict: true})
			}
		case 3: // single-character mutation, best effort
			queries = append(queries, Query{Text: mutate(id, rng), WantMatch: true, Strict: false})
		default: // junk never matches
			queries = append(queries, Query{Text: fmt.Sprintf("zzqx%d", rng.Intn(1_000_000)), WantMatch: false, Strict: true})
		}
	}
	return queries
}

// mutate flips one character of id to a random lowercase letter.
func mutate(id string, rng *rand.Rand) string {
	if id == "" {
		return id
	}
	b := []byte(id)
	pos := rng.Intn(len(b))
	b[pos] = byte('a' + rng.Intn(26))
	return string(b)
}

// lookupURL builds the /lookup URL for a query.
func lookupURL(base, query string) string {
	return fmt.Sprintf("%s/lookup?q=%s", base, url.QueryEscape(query))
}
