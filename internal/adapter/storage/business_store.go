// internal/adapter/storage/business_store.go

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"

	"nearby/internal/domain/business"
	"nearby/internal/domain/search"
)

// BusinessStore is the PostGIS-backed SpatialStore. Businesses live in a
// `businesses` table with a geography(Point) column; radius predicates use
// ST_DWithin so the spatial index applies.
type BusinessStore struct {
	db *pgxpool.Pool
}

// NewBusinessStore creates a BusinessStore.
func NewBusinessStore(db *pgxpool.Pool) *BusinessStore {
	return &BusinessStore{db: db}
}

// FindWithinRadius returns one page of active businesses matching the query
// predicate, ordered per q.SortBy.
func (s *BusinessStore) FindWithinRadius(ctx context.Context, q search.LocationQuery) ([]business.Business, error) {
	where, args := buildPredicate(q)

	query := fmt.Sprintf(`
		SELECT id, name, description, categories, amenities, price_range,
		       rating, review_count, popularity,
		       ST_Y(location::geometry) AS lat, ST_X(location::geometry) AS lng,
		       timezone, hours, active, created_at, updated_at
		FROM businesses
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, where, orderClause(q.SortBy), len(args)+1, len(args)+2)

	args = append(args, q.PageSize, q.Offset())

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("business query: %w", err)
	}
	defer rows.Close()

	var results []business.Business
	for rows.Next() {
		var b business.Business
		var description *string
		var hoursJSON []byte
		var timezone *string

		if err := rows.Scan(
			&b.ID, &b.Name, &description, &b.Categories, &b.Amenities, &b.PriceRange,
			&b.Rating, &b.ReviewCount, &b.Popularity,
			&b.Location.Latitude, &b.Location.Longitude,
			&timezone, &hoursJSON, &b.Active, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("business scan: %w", err)
		}

		if description != nil {
			b.Description = *description
		}
		if timezone != nil {
			b.Timezone = *timezone
		}
		if len(hoursJSON) > 0 {
			if err := json.Unmarshal(hoursJSON, &b.Hours); err != nil {
				return nil, fmt.Errorf("business %s hours: %w", b.ID, err)
			}
		}

		results = append(results, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("business rows: %w", err)
	}
	return results, nil
}

// CountWithinRadius returns the total number of businesses matching the same
// predicate, ignoring pagination.
func (s *BusinessStore) CountWithinRadius(ctx context.Context, q search.LocationQuery) (int, error) {
	where, args := buildPredicate(q)

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM businesses WHERE %s", where)
	if err := s.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("business count: %w", err)
	}
	return count, nil
}

// buildPredicate assembles the shared WHERE clause for find and count. The
// two must stay in lockstep or totalCount lies about the page's predicate.
func buildPredicate(q search.LocationQuery) (string, []interface{}) {
	args := []interface{}{q.Longitude, q.Latitude, q.RadiusKm * 1000}
	clauses := []string{
		"active",
		"ST_DWithin(geography(location), geography(ST_MakePoint($1, $2)), $3)",
	}

	if len(q.Categories) > 0 {
		args = append(args, toLower(q.Categories))
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM unnest(categories) c WHERE lower(c) = ANY($%d))", len(args)))
	}

	if q.Text != "" {
		args = append(args, q.Text)
		clauses = append(clauses, fmt.Sprintf(
			"(name ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')", len(args), len(args)))
	}

	if len(q.Amenities) > 0 {
		args = append(args, toLower(q.Amenities))
		clauses = append(clauses, fmt.Sprintf(
			"NOT EXISTS (SELECT 1 FROM unnest($%d::text[]) a WHERE a <> ALL (SELECT lower(x) FROM unnest(amenities) x))", len(args)))
	}

	if q.PriceRange != nil {
		if q.PriceRange.Min > 0 {
			args = append(args, q.PriceRange.Min)
			clauses = append(clauses, fmt.Sprintf("price_range >= $%d", len(args)))
		}
		if q.PriceRange.Max > 0 {
			args = append(args, q.PriceRange.Max)
			clauses = append(clauses, fmt.Sprintf("price_range <= $%d", len(args)))
		}
	}

	return strings.Join(clauses, " AND "), args
}

// orderClause maps a sort order onto a deterministic ORDER BY. Ordering is a
// store concern: re-sorting after pagination would be incorrect.
func orderClause(sortBy search.SortOrder) string {
	switch sortBy {
	case search.SortByRating:
		return "rating DESC, review_count DESC, id ASC"
	case search.SortByPopularity:
		return "popularity DESC, rating DESC, id ASC"
	case search.SortByPrice:
		return "price_range ASC, rating DESC, id ASC"
	default:
		return "ST_Distance(geography(location), geography(ST_MakePoint($1, $2))) ASC, id ASC"
	}
}

func toLower(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
