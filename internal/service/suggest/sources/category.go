package sources

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"nearby/internal/domain/business"
	"nearby/internal/domain/suggest"
)

// CategorySource proposes directory categories whose name starts with the
// typed fragment, weighted by how many active listings carry them.
type CategorySource struct {
	db *pgxpool.Pool
}

// NewCategorySource creates a CategorySource.
func NewCategorySource(db *pgxpool.Pool) *CategorySource {
	return &CategorySource{db: db}
}

func (s *CategorySource) Name() string             { return "category" }
func (s *CategorySource) Type() suggest.SourceType { return suggest.SourceCategory }

func (s *CategorySource) FindCandidates(ctx context.Context, text string, _ *business.Coordinates, limit int) ([]suggest.Candidate, error) {
	query := `
		SELECT category, COUNT(*) AS listings
		FROM businesses, unnest(categories) AS category
		WHERE active AND category ILIKE $1 || '%'
		GROUP BY category
		ORDER BY listings DESC, category ASC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, text, limit)
	if err != nil {
		return nil, fmt.Errorf("category source query: %w", err)
	}
	defer rows.Close()

	var candidates []suggest.Candidate
	for rows.Next() {
		var name string
		var listings int
		if err := rows.Scan(&name, &listings); err != nil {
			return nil, fmt.Errorf("category source scan: %w", err)
		}

		// More listings means a more useful category; saturate at 50.
		score := float64(listings) / 50
		if score > 1 {
			score = 1
		}

		candidates = append(candidates, suggest.Candidate{
			ID:         "category:" + name,
			SourceType: suggest.SourceCategory,
			Text:       name,
			BaseScore:  score,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category source rows: %w", err)
	}
	return candidates, nil
}
