package suggest_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearby/internal/domain/business"
	"nearby/internal/domain/suggest"
	suggestsvc "nearby/internal/service/suggest"
)

type stubSource struct {
	name       string
	sourceType suggest.SourceType
	candidates []suggest.Candidate
	err        error
}

func (s *stubSource) Name() string             { return s.name }
func (s *stubSource) Type() suggest.SourceType { return s.sourceType }

func (s *stubSource) FindCandidates(ctx context.Context, text string, location *business.Coordinates, limit int) ([]suggest.Candidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.candidates, nil
}

func newAggregator(srcs ...suggest.Source) *suggestsvc.Aggregator {
	return suggestsvc.NewAggregator(
		srcs,
		suggestsvc.NewRanker(suggestsvc.DefaultRankerConfig(), func() time.Time { return fixedNow }),
		suggestsvc.DefaultAggregatorConfig(),
		log.New(io.Discard, "", 0),
	)
}

func stubCandidate(text string, st suggest.SourceType, base float64) suggest.Candidate {
	return suggest.Candidate{ID: string(st) + ":" + text, SourceType: st, Text: text, BaseScore: base}
}

func TestSuggest_MergesAllSources(t *testing.T) {
	a := newAggregator(
		&stubSource{name: "name", sourceType: suggest.SourceBusiness, candidates: []suggest.Candidate{
			stubCandidate("Pizza Palace", suggest.SourceBusiness, 0.8),
		}},
		&stubSource{name: "category", sourceType: suggest.SourceCategory, candidates: []suggest.Candidate{
			stubCandidate("pizza", suggest.SourceCategory, 0.6),
		}},
	)

	ranked, err := a.Suggest(context.Background(), "pizza", nil, suggest.Options{})
	require.NoError(t, err)
	assert.Len(t, ranked, 2)
}

func TestSuggest_PartialFailureTolerated(t *testing.T) {
	a := newAggregator(
		&stubSource{name: "broken", sourceType: suggest.SourceTrending, err: errors.New("redis down")},
		&stubSource{name: "name", sourceType: suggest.SourceBusiness, candidates: []suggest.Candidate{
			stubCandidate("pizza", suggest.SourceBusiness, 0.8),
		}},
	)

	ranked, err := a.Suggest(context.Background(), "pizza", nil, suggest.Options{})
	require.NoError(t, err, "one failing source must not abort the request")
	require.Len(t, ranked, 1)
	assert.Equal(t, "pizza", ranked[0].Text)
}

func TestSuggest_AllSourcesFailingYieldsEmpty(t *testing.T) {
	a := newAggregator(
		&stubSource{name: "a", sourceType: suggest.SourceTrending, err: errors.New("down")},
		&stubSource{name: "b", sourceType: suggest.SourceQuery, err: errors.New("down")},
	)

	ranked, err := a.Suggest(context.Background(), "pizza", nil, suggest.Options{})
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestSuggest_DedupesByNormalizedText(t *testing.T) {
	a := newAggregator(
		&stubSource{name: "name", sourceType: suggest.SourceBusiness, candidates: []suggest.Candidate{
			stubCandidate("Pizza  Palace", suggest.SourceBusiness, 0.9),
		}},
		&stubSource{name: "popular", sourceType: suggest.SourceQuery, candidates: []suggest.Candidate{
			stubCandidate("pizza palace", suggest.SourceQuery, 0.4),
		}},
	)

	ranked, err := a.Suggest(context.Background(), "pizza", nil, suggest.Options{})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, 0.9, ranked[0].BaseScore, "the higher-scored duplicate wins")
}

func TestSuggest_TruncatesToLimit(t *testing.T) {
	var candidates []suggest.Candidate
	for _, text := range []string{"aa", "bb", "cc", "dd", "ee"} {
		candidates = append(candidates, stubCandidate(text, suggest.SourceBusiness, 0.5))
	}
	a := newAggregator(&stubSource{name: "name", sourceType: suggest.SourceBusiness, candidates: candidates})

	ranked, err := a.Suggest(context.Background(), "", nil, suggest.Options{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, ranked, 3)
}

func TestSuggest_SourceLimitCapsContribution(t *testing.T) {
	var candidates []suggest.Candidate
	for _, text := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		candidates = append(candidates, stubCandidate(text, suggest.SourceBusiness, 0.5))
	}

	a := suggestsvc.NewAggregator(
		[]suggest.Source{&stubSource{name: "name", sourceType: suggest.SourceBusiness, candidates: candidates}},
		suggestsvc.NewRanker(suggestsvc.DefaultRankerConfig(), func() time.Time { return fixedNow }),
		suggestsvc.AggregatorConfig{SourceLimit: 2, DefaultLimit: 10},
		log.New(io.Discard, "", 0),
	)

	ranked, err := a.Suggest(context.Background(), "", nil, suggest.Options{})
	require.NoError(t, err)
	assert.Len(t, ranked, 2)
}

func TestSuggest_SourceSelection(t *testing.T) {
	a := newAggregator(
		&stubSource{name: "name", sourceType: suggest.SourceBusiness, candidates: []suggest.Candidate{
			stubCandidate("from name", suggest.SourceBusiness, 0.8),
		}},
		&stubSource{name: "trending", sourceType: suggest.SourceTrending, candidates: []suggest.Candidate{
			stubCandidate("from trending", suggest.SourceTrending, 0.8),
		}},
	)

	ranked, err := a.Suggest(context.Background(), "from", nil, suggest.Options{Sources: []string{"trending"}})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "from trending", ranked[0].Text)
}
