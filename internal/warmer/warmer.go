// Package warmer keeps the hottest grid cells cached. It is an external
// scheduling collaborator of the search engine: the engine exposes no timers
// of its own, so the cmd wiring owns this cron and points it at the
// orchestrator.
package warmer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"nearby/internal/domain/search"
)

// Searcher is the slice of the orchestrator the warmer needs.
type Searcher interface {
	Search(ctx context.Context, raw search.RawQuery) (*search.SearchResultPage, error)
}

// CellParser maps a grid key back to a representative coordinate.
type CellParser func(gridKey string) (lat, lng float64, err error)

// Config tunes the warming loop.
type Config struct {
	Interval    time.Duration
	TopCells    int
	RadiusKm    float64
	CallTimeout time.Duration
}

// Warmer re-issues default searches at the centers of recently hot grid
// cells shortly before their entries would expire.
type Warmer struct {
	cron     *cron.Cron
	clusters search.ClusterTracker
	searcher Searcher
	parse    CellParser
	cfg      Config
	logger   *log.Logger
}

// New creates a Warmer.
func New(clusters search.ClusterTracker, searcher Searcher, parse CellParser, cfg Config, logger *log.Logger) *Warmer {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.TopCells <= 0 {
		cfg.TopCells = 10
	}
	if cfg.RadiusKm <= 0 {
		cfg.RadiusKm = 5
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Warmer{
		cron:     cron.New(),
		clusters: clusters,
		searcher: searcher,
		parse:    parse,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start registers the warming job and starts the cron.
func (w *Warmer) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", w.cfg.Interval)
	if _, err := w.cron.AddFunc(spec, func() { w.warm(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	w.cron.Start()
	w.logger.Printf("[warmer] started, spec %s", spec)
	return nil
}

// Stop stops the cron and waits for a running pass to finish.
func (w *Warmer) Stop() {
	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
	w.logger.Printf("[warmer] stopped")
}

func (w *Warmer) warm(ctx context.Context) {
	cells, err := w.clusters.Hottest(ctx, w.cfg.TopCells)
	if err != nil {
		w.logger.Printf("[warmer] hottest cells: %v", err)
		return
	}

	for _, cell := range cells {
		lat, lng, err := w.parse(cell)
		if err != nil {
			w.logger.Printf("[warmer] skip cell %s: %v", cell, err)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, w.cfg.CallTimeout)
		page, err := w.searcher.Search(callCtx, search.RawQuery{
			Latitude:  lat,
			Longitude: lng,
			RadiusKm:  w.cfg.RadiusKm,
		})
		cancel()

		if err != nil {
			w.logger.Printf("[warmer] warm %s: %v", cell, err)
			continue
		}
		if !page.CacheHit {
			w.logger.Printf("[warmer] refreshed %s (%d items)", cell, len(page.Items))
		}
	}
}

// ParseGridKey decodes the key policy's "g{lat}_{lng}" format back into the
// cell's lower-edge coordinate.
func ParseGridKey(gridKey string) (float64, float64, error) {
	var lat, lng float64
	if _, err := fmt.Sscanf(gridKey, "g%f_%f", &lat, &lng); err != nil {
		return 0, 0, fmt.Errorf("malformed grid key %q: %w", gridKey, err)
	}
	return lat, lng, nil
}
