// internal/service/suggest/sources/name.go

package sources

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"nearby/internal/domain/business"
	"nearby/internal/domain/suggest"
)

// NameSource proposes business names matching the typed fragment, backed by
// the directory's Postgres store.
type NameSource struct {
	db *pgxpool.Pool
}

// NewNameSource creates a NameSource.
func NewNameSource(db *pgxpool.Pool) *NameSource {
	return &NameSource{db: db}
}

func (s *NameSource) Name() string             { return "name" }
func (s *NameSource) Type() suggest.SourceType { return suggest.SourceBusiness }

// FindCandidates matches business names by substring, most popular first.
func (s *NameSource) FindCandidates(ctx context.Context, text string, _ *business.Coordinates, limit int) ([]suggest.Candidate, error) {
	query := `
		SELECT id, name, popularity, rating,
		       ST_Y(location::geometry) AS lat, ST_X(location::geometry) AS lng,
		       updated_at
		FROM businesses
		WHERE active AND name ILIKE '%' || $1 || '%'
		ORDER BY popularity DESC, name ASC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, text, limit)
	if err != nil {
		return nil, fmt.Errorf("name source query: %w", err)
	}
	defer rows.Close()

	var candidates []suggest.Candidate
	for rows.Next() {
		var c suggest.Candidate
		var popularity, rating float64
		var lat, lng *float64

		if err := rows.Scan(&c.ID, &c.Text, &popularity, &rating, &lat, &lng, &c.LastSeen); err != nil {
			return nil, fmt.Errorf("name source scan: %w", err)
		}

		c.SourceType = suggest.SourceBusiness
		c.BaseScore = rating / 5
		c.Popularity = popularity
		if lat != nil && lng != nil {
			c.Location = &business.Coordinates{Latitude: *lat, Longitude: *lng}
		}

		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("name source rows: %w", err)
	}
	return candidates, nil
}
