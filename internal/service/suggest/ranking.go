// internal/service/suggest/ranking.go

package suggest

import (
	"sort"
	"strings"
	"time"

	"nearby/internal/domain/business"
	"nearby/internal/domain/suggest"
	"nearby/internal/geo"
)

// RankerConfig tunes the composite suggestion score. Every weight table entry
// is overridable; omitted source types fall back to the defaults.
type RankerConfig struct {
	ExactMatchBonus  float64
	PrefixMatchBonus float64
	SourceWeights    map[suggest.SourceType]float64
	PopularityWeight float64
	RecencyWeight    float64
	RecencyWindow    time.Duration
	MinConfidence    float64
}

// DefaultRankerConfig returns the stock scoring table.
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		ExactMatchBonus:  0.5,
		PrefixMatchBonus: 0.3,
		SourceWeights: map[suggest.SourceType]float64{
			suggest.SourceHistory:  0.5,
			suggest.SourceBusiness: 0.4,
			suggest.SourceCategory: 0.3,
			suggest.SourceTrending: 0.2,
			suggest.SourceLocation: 0.2,
			suggest.SourceQuery:    0.1,
		},
		PopularityWeight: 0.2,
		RecencyWeight:    0.1,
		RecencyWindow:    30 * 24 * time.Hour,
		MinConfidence:    0.1,
	}
}

// Ranker assigns each candidate a composite relevance score. The function is
// deterministic: identical inputs produce identical scores and ordering, with
// ties broken by source priority and then candidate text.
type Ranker struct {
	cfg      RankerConfig
	priority map[suggest.SourceType]int
	now      func() time.Time
}

// NewRanker creates a Ranker. now may be nil for wall-clock time.
func NewRanker(cfg RankerConfig, now func() time.Time) *Ranker {
	if now == nil {
		now = time.Now
	}
	if cfg.SourceWeights == nil {
		cfg.SourceWeights = DefaultRankerConfig().SourceWeights
	}
	if cfg.RecencyWindow <= 0 {
		cfg.RecencyWindow = 30 * 24 * time.Hour
	}

	priority := make(map[suggest.SourceType]int, len(suggest.SourcePriority))
	for i, st := range suggest.SourcePriority {
		priority[st] = i
	}

	return &Ranker{cfg: cfg, priority: priority, now: now}
}

// Rank scores, filters and orders candidates for a query. Candidates scoring
// below MinConfidence are dropped. The final score is an open-ended sum; only
// relative order matters.
func (r *Ranker) Rank(candidates []suggest.Candidate, query string, location *business.Coordinates) []suggest.Ranked {
	normQuery := normalizeText(query)
	now := r.now()

	ranked := make([]suggest.Ranked, 0, len(candidates))
	for _, c := range candidates {
		score := r.score(c, normQuery, location, now)
		if score < r.cfg.MinConfidence {
			continue
		}
		ranked = append(ranked, suggest.Ranked{Candidate: c, FinalScore: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		pi, pj := r.priorityOf(ranked[i].SourceType), r.priorityOf(ranked[j].SourceType)
		if pi != pj {
			return pi < pj
		}
		return ranked[i].Text < ranked[j].Text
	})

	for i := range ranked {
		ranked[i].Position = i + 1
	}
	return ranked
}

// score sums the additive terms. Each raw signal is clamped to [0,1] before
// its weight applies so no single signal dominates unboundedly; the sum
// itself is not re-clamped.
func (r *Ranker) score(c suggest.Candidate, normQuery string, location *business.Coordinates, now time.Time) float64 {
	score := clamp01(c.BaseScore)

	normText := normalizeText(c.Text)
	if normQuery != "" {
		if normText == normQuery {
			score += r.cfg.ExactMatchBonus
		} else if strings.HasPrefix(normText, normQuery) {
			score += r.cfg.PrefixMatchBonus
		}
	}

	score += r.cfg.SourceWeights[c.SourceType]

	if location != nil && c.Location != nil {
		km := geo.HaversineKm(location.Latitude, location.Longitude, c.Location.Latitude, c.Location.Longitude)
		switch {
		case km < 1:
			score += 0.3
		case km < 5:
			score += 0.2
		case km < 10:
			score += 0.1
		}
	}

	score += r.cfg.PopularityWeight * clamp01(c.Popularity/100)

	if !c.LastSeen.IsZero() {
		age := now.Sub(c.LastSeen)
		freshness := 1 - float64(age)/float64(r.cfg.RecencyWindow)
		score += r.cfg.RecencyWeight * clamp01(freshness)
	}

	return score
}

func (r *Ranker) priorityOf(st suggest.SourceType) int {
	if p, ok := r.priority[st]; ok {
		return p
	}
	return len(r.priority)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// normalizeText lowercases and collapses whitespace for text comparison and
// deduplication.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
