// internal/domain/suggest/model.go

package suggest

import (
	"context"
	"time"

	"nearby/internal/domain/business"
)

// SourceType identifies which kind of collaborator proposed a candidate. The
// ranking engine weighs and tie-breaks by it.
type SourceType string

const (
	SourceHistory  SourceType = "history"
	SourceBusiness SourceType = "business"
	SourceCategory SourceType = "category"
	SourceTrending SourceType = "trending"
	SourceLocation SourceType = "location"
	SourceQuery    SourceType = "query"
)

// SourcePriority is the fixed tie-break order for equal scores, highest first.
var SourcePriority = []SourceType{
	SourceHistory,
	SourceBusiness,
	SourceCategory,
	SourceTrending,
	SourceLocation,
	SourceQuery,
}

// Candidate is an unranked suggestion proposed by one source. Created per
// request, consumed by the ranking engine, then discarded.
type Candidate struct {
	ID         string
	SourceType SourceType
	Text       string
	BaseScore  float64
	Location   *business.Coordinates

	// Popularity is a 0-100 global popularity signal, when the source has one.
	Popularity float64

	// LastSeen is when the underlying signal was last observed; zero means
	// unknown and earns no recency bonus.
	LastSeen time.Time

	Metadata map[string]string
}

// Ranked is a candidate with its composite score and final position. This is
// the only suggestion shape callers ever see.
type Ranked struct {
	Candidate
	FinalScore float64 `json:"final_score"`
	Position   int     `json:"position"`
}

// Source is one pluggable suggestion collaborator. Sources run concurrently
// and independently; one failing source contributes zero candidates without
// aborting the request.
type Source interface {
	Name() string
	Type() SourceType
	FindCandidates(ctx context.Context, text string, location *business.Coordinates, limit int) ([]Candidate, error)
}

// Options tunes one suggest call.
type Options struct {
	// Limit caps the final ranked list. Zero means the configured default.
	Limit int

	// Sources restricts the fan-out to the named sources; empty means all
	// registered sources.
	Sources []string
}
