package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"nearby/internal/domain/business"
	"nearby/internal/domain/suggest"
)

const trendingScanDepth = 200

// TrendingSource proposes terms that have been hot in the current time
// window. Terms live in an hourly-bucketed Redis sorted set so the signal
// decays naturally as buckets expire.
type TrendingSource struct {
	rdb    *redis.Client
	keyFmt string
	window time.Duration
	now    func() time.Time
}

// NewTrendingSource creates a TrendingSource. now may be nil for wall-clock
// time.
func NewTrendingSource(rdb *redis.Client, now func() time.Time) *TrendingSource {
	if now == nil {
		now = time.Now
	}
	return &TrendingSource{
		rdb:    rdb,
		keyFmt: "suggest:trending:%s",
		window: 2 * time.Hour,
		now:    now,
	}
}

func (s *TrendingSource) Name() string             { return "trending" }
func (s *TrendingSource) Type() suggest.SourceType { return suggest.SourceTrending }

// bucketKey returns the sorted-set key for the hour containing t.
func (s *TrendingSource) bucketKey(t time.Time) string {
	return fmt.Sprintf(s.keyFmt, t.UTC().Format("2006010215"))
}

// Observe bumps a term in the current hourly bucket. Called by whatever
// collaborator watches search traffic.
func (s *TrendingSource) Observe(ctx context.Context, term string) error {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	key := s.bucketKey(s.now())
	pipe := s.rdb.Pipeline()
	pipe.ZIncrBy(ctx, key, 1, term)
	pipe.Expire(ctx, key, s.window)
	_, err := pipe.Exec(ctx)
	return err
}

// FindCandidates returns hot terms matching the typed prefix from the current
// and previous hourly buckets.
func (s *TrendingSource) FindCandidates(ctx context.Context, text string, _ *business.Coordinates, limit int) ([]suggest.Candidate, error) {
	prefix := strings.ToLower(strings.TrimSpace(text))
	now := s.now()

	seen := make(map[string]struct{})
	var candidates []suggest.Candidate

	for _, key := range []string{s.bucketKey(now), s.bucketKey(now.Add(-time.Hour))} {
		entries, err := s.rdb.ZRevRangeWithScores(ctx, key, 0, trendingScanDepth-1).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("trending source %s: %w", key, err)
		}

		for _, e := range entries {
			term, _ := e.Member.(string)
			if term == "" {
				continue
			}
			if prefix != "" && !strings.HasPrefix(term, prefix) {
				continue
			}
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}

			// Saturate the hotness signal at 20 observations per window.
			score := e.Score / 20
			if score > 1 {
				score = 1
			}

			candidates = append(candidates, suggest.Candidate{
				ID:         "trending:" + term,
				SourceType: suggest.SourceTrending,
				Text:       term,
				BaseScore:  score,
				LastSeen:   now,
			})
			if len(candidates) >= limit {
				return candidates, nil
			}
		}
	}

	return candidates, nil
}
