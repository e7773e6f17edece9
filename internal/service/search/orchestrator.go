// internal/service/search/orchestrator.go

package search

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"nearby/internal/domain/business"
	"nearby/internal/domain/search"
	"nearby/internal/geo"
)

// OrchestratorConfig tunes enrichment and the density-based TTL policy.
type OrchestratorConfig struct {
	// AvgSpeedKmh drives the travel-time estimate. This is a straight-line
	// approximation, not a routing engine.
	AvgSpeedKmh float64

	DenseTTL  time.Duration
	MediumTTL time.Duration
	SparseTTL time.Duration

	DenseThreshold  float64
	MediumThreshold float64

	// ClusterTTL bounds the per-cell warming/telemetry records.
	ClusterTTL time.Duration
}

// DefaultOrchestratorConfig returns the stock tuning: 30 km/h travel speed and
// 600/300/120 second TTLs at densities above 0.5 / 0.2 / otherwise.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		AvgSpeedKmh:     30,
		DenseTTL:        600 * time.Second,
		MediumTTL:       300 * time.Second,
		SparseTTL:       120 * time.Second,
		DenseThreshold:  0.5,
		MediumThreshold: 0.2,
		ClusterTTL:      10 * time.Minute,
	}
}

// Orchestrator is the search facade: normalize, cache lookup, concurrent
// store fetch on miss, enrichment, dynamic TTL, cache write. It owns no
// timers and no state beyond the bounded grid key index shared with the
// invalidation coordinator.
type Orchestrator struct {
	normalizer *Normalizer
	keys       *KeyPolicy
	store      search.SpatialStore
	cache      search.CacheStore
	index      *GridKeyIndex
	clusters   search.ClusterTracker
	cfg        OrchestratorConfig
	now        func() time.Time
	logger     *log.Logger
}

// NewOrchestrator wires the orchestrator with its collaborators. clusters may
// be nil, which disables warming telemetry. now may be nil for wall-clock
// time.
func NewOrchestrator(
	normalizer *Normalizer,
	keys *KeyPolicy,
	store search.SpatialStore,
	cache search.CacheStore,
	index *GridKeyIndex,
	clusters search.ClusterTracker,
	cfg OrchestratorConfig,
	now func() time.Time,
	logger *log.Logger,
) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}
	if cfg.AvgSpeedKmh <= 0 {
		cfg.AvgSpeedKmh = 30
	}
	return &Orchestrator{
		normalizer: normalizer,
		keys:       keys,
		store:      store,
		cache:      cache,
		index:      index,
		clusters:   clusters,
		cfg:        cfg,
		now:        now,
		logger:     logger,
	}
}

// Search runs one location query end to end. It returns a ValidationError for
// bad input, a SearchUnavailableError when the spatial store fails, a
// TimeoutError when the caller's deadline expires, and swallows every cache
// failure as a miss.
func (o *Orchestrator) Search(ctx context.Context, raw search.RawQuery) (*search.SearchResultPage, error) {
	start := o.now()

	q, err := o.normalizer.Normalize(raw)
	if err != nil {
		return nil, err
	}

	key := o.keys.SearchKey(q)
	gridKey := o.keys.GridKey(q.Latitude, q.Longitude)

	if page := o.readCache(ctx, key); page != nil {
		page.CacheHit = true
		page.TookMs = o.elapsedMs(start)
		page.Clamped = q.Clamped
		return page, nil
	}

	items, total, err := o.fetch(ctx, q)
	if err != nil {
		if isDeadline(ctx, err) {
			return nil, &search.TimeoutError{Elapsed: o.now().Sub(start)}
		}
		return nil, &search.SearchUnavailableError{Query: q, Elapsed: o.now().Sub(start), Err: err}
	}

	page := o.buildPage(q, items, total)

	// The cache write happens only after enrichment fully succeeded; an
	// abandoned call must never leave a partial entry behind.
	if ctx.Err() != nil {
		return nil, &search.TimeoutError{Elapsed: o.now().Sub(start)}
	}
	o.writeCache(ctx, key, gridKey, q, page)

	page.CacheHit = false
	page.TookMs = o.elapsedMs(start)
	return page, nil
}

// fetch runs the radius query and the predicate count concurrently; the two
// are independent and together dominate miss latency.
func (o *Orchestrator) fetch(ctx context.Context, q search.LocationQuery) ([]business.Business, int, error) {
	var (
		items []business.Business
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = o.store.FindWithinRadius(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = o.store.CountWithinRadius(gctx, q)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// buildPage enriches store rows with the per-query derived fields and applies
// the openOnly post-filter.
func (o *Orchestrator) buildPage(q search.LocationQuery, rows []business.Business, total int) *search.SearchResultPage {
	now := o.now()
	breakdown := make(map[string]int)
	items := make([]search.SearchResultItem, 0, len(rows))

	for _, biz := range rows {
		item := search.SearchResultItem{
			Business:       biz,
			DistanceKm:     geo.HaversineKm(q.Latitude, q.Longitude, biz.Location.Latitude, biz.Location.Longitude),
			BearingDegrees: geo.BearingDegrees(q.Latitude, q.Longitude, biz.Location.Latitude, biz.Location.Longitude),
			IsOpenNow:      biz.IsOpenAt(now),
		}
		item.EstimatedTravelMinutes = item.DistanceKm / o.cfg.AvgSpeedKmh * 60

		if q.OpenOnly && !item.IsOpenNow {
			continue
		}

		for _, c := range biz.Categories {
			breakdown[c]++
		}
		items = append(items, item)
	}

	if len(breakdown) == 0 {
		breakdown = nil
	}

	return &search.SearchResultPage{
		Items:             items,
		TotalCount:        total,
		RadiusKm:          q.RadiusKm,
		Center:            business.Coordinates{Latitude: q.Latitude, Longitude: q.Longitude},
		CategoryBreakdown: breakdown,
		Clamped:           q.Clamped,
	}
}

// ttlFor implements the density policy: dense, slow-changing areas tolerate
// longer staleness while sparse result sets refresh sooner.
func (o *Orchestrator) ttlFor(resultCount, totalCount int) time.Duration {
	denom := totalCount
	if denom < 1 {
		denom = 1
	}
	density := float64(resultCount) / float64(denom)

	switch {
	case density > o.cfg.DenseThreshold:
		return o.cfg.DenseTTL
	case density > o.cfg.MediumThreshold:
		return o.cfg.MediumTTL
	default:
		return o.cfg.SparseTTL
	}
}

func (o *Orchestrator) readCache(ctx context.Context, key string) *search.SearchResultPage {
	data, err := o.cache.Get(ctx, key)
	if err != nil {
		o.logger.Printf("[search] %v", &search.CacheError{Op: "get", Key: key, Err: err})
		return nil
	}
	if data == nil {
		return nil
	}

	var entry search.CachedPage
	if err := json.Unmarshal(data, &entry); err != nil {
		o.logger.Printf("[search] %v", &search.CacheError{Op: "decode", Key: key, Err: err})
		return nil
	}

	page := entry.Page
	return &page
}

func (o *Orchestrator) writeCache(ctx context.Context, key, gridKey string, q search.LocationQuery, page *search.SearchResultPage) {
	ttl := o.ttlFor(len(page.Items), page.TotalCount)

	stored := *page
	stored.CacheHit = false
	stored.TookMs = 0
	stored.Clamped = nil

	entry := search.CachedPage{
		Page:      stored,
		GridKey:   gridKey,
		TTL:       ttl,
		WrittenAt: o.now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		o.logger.Printf("[search] %v", &search.CacheError{Op: "encode", Key: key, Err: err})
		return
	}

	if err := o.cache.Set(ctx, key, data, ttl); err != nil {
		o.logger.Printf("[search] %v", &search.CacheError{Op: "set", Key: key, Err: err})
		return
	}

	// Record the key under every cell the page overlapped so a business move
	// in any of them can invalidate this entry precisely.
	o.index.Record(gridKey, key)
	for _, item := range page.Items {
		cell := o.keys.GridKey(item.Business.Location.Latitude, item.Business.Location.Longitude)
		if cell != gridKey {
			o.index.Record(cell, key)
		}
	}

	if o.clusters != nil {
		if err := o.clusters.Touch(ctx, gridKey, o.cfg.ClusterTTL); err != nil {
			o.logger.Printf("[search] cluster touch %s: %v", gridKey, err)
		}
	}
}

func (o *Orchestrator) elapsedMs(start time.Time) int64 {
	return o.now().Sub(start).Milliseconds()
}

func isDeadline(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}
