// internal/service/suggest/aggregator.go

package suggest

import (
	"context"
	"log"
	"sync"

	"nearby/internal/domain/business"
	"nearby/internal/domain/suggest"
)

// AggregatorConfig tunes the suggestion fan-out.
type AggregatorConfig struct {
	// SourceLimit caps how many candidates one source may contribute.
	SourceLimit int

	// DefaultLimit is the final list size when the caller sets none.
	DefaultLimit int
}

// DefaultAggregatorConfig returns the stock fan-out tuning.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{SourceLimit: 5, DefaultLimit: 10}
}

// Aggregator fans an autocomplete request out to every enabled source in
// parallel, merges and dedupes the candidates, and hands them to the ranker.
// A failing source contributes zero candidates and is logged; it never aborts
// the request.
type Aggregator struct {
	sources []suggest.Source
	ranker  *Ranker
	cfg     AggregatorConfig
	logger  *log.Logger
}

// NewAggregator creates an Aggregator over the given sources.
func NewAggregator(sources []suggest.Source, ranker *Ranker, cfg AggregatorConfig, logger *log.Logger) *Aggregator {
	if cfg.SourceLimit <= 0 {
		cfg.SourceLimit = 5
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{sources: sources, ranker: ranker, cfg: cfg, logger: logger}
}

// Suggest returns the ranked, truncated suggestion list for a text fragment.
func (a *Aggregator) Suggest(ctx context.Context, text string, location *business.Coordinates, opts suggest.Options) ([]suggest.Ranked, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = a.cfg.DefaultLimit
	}

	candidates := a.collect(ctx, text, location, opts)
	merged := dedupe(candidates)

	ranked := a.ranker.Rank(merged, text, location)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// collect queries every enabled source concurrently, tolerating individual
// failures.
func (a *Aggregator) collect(ctx context.Context, text string, location *business.Coordinates, opts suggest.Options) []suggest.Candidate {
	enabled := a.enabledSources(opts)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	var all []suggest.Candidate

	for _, src := range enabled {
		wg.Add(1)
		go func(src suggest.Source) {
			defer wg.Done()

			found, err := src.FindCandidates(ctx, text, location, a.cfg.SourceLimit)
			if err != nil {
				a.logger.Printf("[suggest] source %s: %v", src.Name(), err)
				return
			}
			if len(found) > a.cfg.SourceLimit {
				found = found[:a.cfg.SourceLimit]
			}

			mu.Lock()
			all = append(all, found...)
			mu.Unlock()
		}(src)
	}

	wg.Wait()
	return all
}

func (a *Aggregator) enabledSources(opts suggest.Options) []suggest.Source {
	if len(opts.Sources) == 0 {
		return a.sources
	}

	wanted := make(map[string]struct{}, len(opts.Sources))
	for _, name := range opts.Sources {
		wanted[name] = struct{}{}
	}

	var enabled []suggest.Source
	for _, src := range a.sources {
		if _, ok := wanted[src.Name()]; ok {
			enabled = append(enabled, src)
		}
	}
	return enabled
}

// dedupe collapses candidates with identical normalized text, keeping the one
// with the highest base score.
func dedupe(candidates []suggest.Candidate) []suggest.Candidate {
	best := make(map[string]int, len(candidates))
	out := make([]suggest.Candidate, 0, len(candidates))

	for _, c := range candidates {
		key := normalizeText(c.Text)
		if key == "" {
			continue
		}
		if i, seen := best[key]; seen {
			if c.BaseScore > out[i].BaseScore {
				out[i] = c
			}
			continue
		}
		best[key] = len(out)
		out = append(out, c)
	}
	return out
}
