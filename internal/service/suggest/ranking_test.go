package suggest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearby/internal/domain/business"
	"nearby/internal/domain/suggest"
	suggestsvc "nearby/internal/service/suggest"
)

var fixedNow = time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

func newRanker() *suggestsvc.Ranker {
	return suggestsvc.NewRanker(suggestsvc.DefaultRankerConfig(), func() time.Time { return fixedNow })
}

func candidate(text string, st suggest.SourceType) suggest.Candidate {
	return suggest.Candidate{ID: string(st) + ":" + text, SourceType: st, Text: text}
}

func texts(ranked []suggest.Ranked) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Text
	}
	return out
}

func TestRank_ExactBeatsPrefixBeatsUnrelated(t *testing.T) {
	r := newRanker()

	ranked := r.Rank([]suggest.Candidate{
		candidate("sushi", suggest.SourceBusiness),
		candidate("pizza hut", suggest.SourceBusiness),
		candidate("pizza", suggest.SourceBusiness),
	}, "pizza", nil)

	assert.Equal(t, []string{"pizza", "pizza hut", "sushi"}, texts(ranked))
}

func TestRank_Deterministic(t *testing.T) {
	r := newRanker()

	candidates := []suggest.Candidate{
		candidate("coffee corner", suggest.SourceTrending),
		candidate("coffee house", suggest.SourceBusiness),
		candidate("coffee", suggest.SourceCategory),
		candidate("tea room", suggest.SourceQuery),
	}

	first := r.Rank(candidates, "coffee", nil)
	second := r.Rank(candidates, "coffee", nil)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Text, second[i].Text)
		assert.Equal(t, first[i].FinalScore, second[i].FinalScore)
		assert.Equal(t, first[i].Position, second[i].Position)
	}
}

func TestRank_SourcePriorityBreaksTies(t *testing.T) {
	cfg := suggestsvc.DefaultRankerConfig()
	// Equalize source weights so the only difference is the tie-break.
	cfg.SourceWeights = map[suggest.SourceType]float64{
		suggest.SourceHistory:  0.3,
		suggest.SourceTrending: 0.3,
	}
	tied := suggestsvc.NewRanker(cfg, func() time.Time { return fixedNow })

	ranked := tied.Rank([]suggest.Candidate{
		candidate("alpha", suggest.SourceTrending),
		candidate("alpha bar", suggest.SourceHistory),
	}, "", nil)

	require.Len(t, ranked, 2)
	assert.Equal(t, suggest.SourceHistory, ranked[0].SourceType, "history outranks trending on ties")
}

func TestRank_SourceWeightTable(t *testing.T) {
	r := newRanker()

	ranked := r.Rank([]suggest.Candidate{
		candidate("same", suggest.SourceQuery),
		candidate("same place", suggest.SourceHistory),
	}, "", nil)

	require.Len(t, ranked, 2)
	assert.Equal(t, suggest.SourceHistory, ranked[0].SourceType)
	assert.Greater(t, ranked[0].FinalScore, ranked[1].FinalScore)
}

func TestRank_ProximityBonusTiers(t *testing.T) {
	r := newRanker()
	here := &business.Coordinates{Latitude: 40.0, Longitude: -74.0}

	near := candidate("near", suggest.SourceBusiness)
	near.Location = &business.Coordinates{Latitude: 40.001, Longitude: -74.0} // ~0.1 km

	mid := candidate("mid", suggest.SourceBusiness)
	mid.Location = &business.Coordinates{Latitude: 40.03, Longitude: -74.0} // ~3.3 km

	far := candidate("far", suggest.SourceBusiness)
	far.Location = &business.Coordinates{Latitude: 40.07, Longitude: -74.0} // ~7.8 km

	none := candidate("none", suggest.SourceBusiness)
	none.Location = &business.Coordinates{Latitude: 41.0, Longitude: -74.0} // ~111 km

	ranked := r.Rank([]suggest.Candidate{none, far, mid, near}, "", here)
	require.Len(t, ranked, 4)
	assert.Equal(t, []string{"near", "mid", "far", "none"}, texts(ranked))

	assert.InDelta(t, 0.3, ranked[0].FinalScore-ranked[3].FinalScore, 1e-9)
	assert.InDelta(t, 0.2, ranked[1].FinalScore-ranked[3].FinalScore, 1e-9)
	assert.InDelta(t, 0.1, ranked[2].FinalScore-ranked[3].FinalScore, 1e-9)
}

func TestRank_PopularityBonus(t *testing.T) {
	r := newRanker()

	popular := candidate("popular", suggest.SourceBusiness)
	popular.Popularity = 100
	obscure := candidate("obscure", suggest.SourceBusiness)

	ranked := r.Rank([]suggest.Candidate{obscure, popular}, "", nil)
	require.Len(t, ranked, 2)
	assert.Equal(t, "popular", ranked[0].Text)
	assert.InDelta(t, 0.2, ranked[0].FinalScore-ranked[1].FinalScore, 1e-9)
}

func TestRank_RecencyBonusDecays(t *testing.T) {
	r := newRanker()

	fresh := candidate("fresh", suggest.SourceTrending)
	fresh.LastSeen = fixedNow

	stale := candidate("stale", suggest.SourceTrending)
	stale.LastSeen = fixedNow.Add(-60 * 24 * time.Hour) // past the 30-day window

	ranked := r.Rank([]suggest.Candidate{stale, fresh}, "", nil)
	require.Len(t, ranked, 2)
	assert.Equal(t, "fresh", ranked[0].Text)
	assert.InDelta(t, 0.1, ranked[0].FinalScore-ranked[1].FinalScore, 1e-9)
}

func TestRank_DropsBelowMinConfidence(t *testing.T) {
	cfg := suggestsvc.DefaultRankerConfig()
	cfg.SourceWeights = map[suggest.SourceType]float64{} // no source weight at all
	r := suggestsvc.NewRanker(cfg, func() time.Time { return fixedNow })

	ranked := r.Rank([]suggest.Candidate{
		candidate("worthless", suggest.SourceQuery),
	}, "", nil)

	assert.Empty(t, ranked)
}

func TestRank_BaseScoreClampedBeforeWeighting(t *testing.T) {
	r := newRanker()

	inflated := candidate("inflated", suggest.SourceQuery)
	inflated.BaseScore = 50 // clamped to 1

	honest := candidate("honest", suggest.SourceHistory)
	honest.BaseScore = 1

	ranked := r.Rank([]suggest.Candidate{inflated, honest}, "", nil)
	require.Len(t, ranked, 2)
	assert.Equal(t, "honest", ranked[0].Text, "an inflated base score cannot dominate")
}

func TestRank_PositionsAreSequential(t *testing.T) {
	r := newRanker()

	ranked := r.Rank([]suggest.Candidate{
		candidate("a", suggest.SourceBusiness),
		candidate("b", suggest.SourceCategory),
		candidate("c", suggest.SourceHistory),
	}, "", nil)

	require.Len(t, ranked, 3)
	for i, item := range ranked {
		assert.Equal(t, i+1, item.Position)
	}
}
