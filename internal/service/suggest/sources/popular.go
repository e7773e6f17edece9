package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"nearby/internal/domain/business"
	"nearby/internal/domain/suggest"
)

const popularKey = "suggest:popular"

const popularScanDepth = 500

// PopularSource proposes past search queries by all-time frequency, held in a
// single Redis sorted set.
type PopularSource struct {
	rdb *redis.Client

	// MaxEntries caps the sorted set; the least popular tail is trimmed on
	// record so the set stays bounded.
	MaxEntries int64
}

// NewPopularSource creates a PopularSource.
func NewPopularSource(rdb *redis.Client) *PopularSource {
	return &PopularSource{rdb: rdb, MaxEntries: 10000}
}

func (s *PopularSource) Name() string             { return "popular" }
func (s *PopularSource) Type() suggest.SourceType { return suggest.SourceQuery }

// RecordQuery bumps a query's popularity counter and trims the tail.
func (s *PopularSource) RecordQuery(ctx context.Context, query string) error {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	pipe := s.rdb.Pipeline()
	pipe.ZIncrBy(ctx, popularKey, 1, query)
	pipe.ZRemRangeByRank(ctx, popularKey, 0, -(s.MaxEntries + 1))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *PopularSource) FindCandidates(ctx context.Context, text string, _ *business.Coordinates, limit int) ([]suggest.Candidate, error) {
	prefix := strings.ToLower(strings.TrimSpace(text))

	entries, err := s.rdb.ZRevRangeWithScores(ctx, popularKey, 0, popularScanDepth-1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("popular source: %w", err)
	}

	var candidates []suggest.Candidate
	for _, e := range entries {
		term, _ := e.Member.(string)
		if term == "" {
			continue
		}
		if prefix != "" && !strings.HasPrefix(term, prefix) {
			continue
		}

		score := e.Score / 100
		if score > 1 {
			score = 1
		}

		candidates = append(candidates, suggest.Candidate{
			ID:         "popular:" + term,
			SourceType: suggest.SourceQuery,
			Text:       term,
			BaseScore:  score,
			Popularity: clampPopularity(e.Score),
		})
		if len(candidates) >= limit {
			break
		}
	}

	return candidates, nil
}

func clampPopularity(score float64) float64 {
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}
