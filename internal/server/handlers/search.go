// internal/server/handlers/search.go

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"nearby/internal/domain/search"
)

// Searcher is the orchestrator surface the handler needs.
type Searcher interface {
	Search(ctx context.Context, raw search.RawQuery) (*search.SearchResultPage, error)
}

// QueryRecorder feeds searched text into the popular-query suggestion
// signal.
type QueryRecorder interface {
	RecordQuery(ctx context.Context, query string) error
}

// TermObserver feeds searched text into the trending suggestion signal.
type TermObserver interface {
	Observe(ctx context.Context, term string) error
}

// SearchHandler handles location search HTTP requests
type SearchHandler struct {
	searcher Searcher
	recorder QueryRecorder
	observer TermObserver
}

// NewSearchHandler creates a new search handler. recorder and observer feed
// the popular and trending suggestion signals; either may be nil.
func NewSearchHandler(searcher Searcher, recorder QueryRecorder, observer TermObserver) *SearchHandler {
	return &SearchHandler{searcher: searcher, recorder: recorder, observer: observer}
}

// Search runs a location query from URL parameters.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	raw, err := parseRawQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), err)
		return
	}

	page, err := h.searcher.Search(r.Context(), raw)
	if err != nil {
		respondWithSearchError(w, err)
		return
	}

	// Feed the typed text into the suggestion signals; best-effort only.
	if raw.Text != "" {
		if h.recorder != nil {
			_ = h.recorder.RecordQuery(r.Context(), raw.Text)
		}
		if h.observer != nil {
			_ = h.observer.Observe(r.Context(), raw.Text)
		}
	}

	respondWithJSON(w, http.StatusOK, page)
}

// respondWithSearchError maps the engine's error taxonomy onto HTTP statuses.
func respondWithSearchError(w http.ResponseWriter, err error) {
	var validation *search.ValidationError
	var unavailable *search.SearchUnavailableError
	var timeout *search.TimeoutError

	switch {
	case errors.As(err, &validation):
		respondWithError(w, http.StatusBadRequest, validation.Error(), nil)
	case errors.As(err, &timeout):
		respondWithError(w, http.StatusGatewayTimeout, "search timed out", err)
	case errors.As(err, &unavailable):
		respondWithError(w, http.StatusServiceUnavailable, "search is temporarily unavailable", err)
	default:
		respondWithError(w, http.StatusInternalServerError, "search failed", err)
	}
}

func parseRawQuery(r *http.Request) (search.RawQuery, error) {
	var raw search.RawQuery
	params := r.URL.Query()

	lat, err := strconv.ParseFloat(params.Get("lat"), 64)
	if err != nil {
		return raw, errors.New("missing or invalid lat")
	}
	lng, err := strconv.ParseFloat(params.Get("lng"), 64)
	if err != nil {
		return raw, errors.New("missing or invalid lng")
	}

	raw.Latitude = lat
	raw.Longitude = lng
	raw.Text = params.Get("text")
	raw.SortBy = params.Get("sort_by")
	raw.Categories = splitParam(params.Get("categories"))
	raw.Amenities = splitParam(params.Get("amenities"))

	if v := params.Get("radius_km"); v != "" {
		if raw.RadiusKm, err = strconv.ParseFloat(v, 64); err != nil {
			return raw, errors.New("invalid radius_km")
		}
	}
	if v := params.Get("page"); v != "" {
		if raw.Page, err = strconv.Atoi(v); err != nil {
			return raw, errors.New("invalid page")
		}
	}
	if v := params.Get("page_size"); v != "" {
		if raw.PageSize, err = strconv.Atoi(v); err != nil {
			return raw, errors.New("invalid page_size")
		}
	}
	if v := params.Get("open_only"); v != "" {
		if raw.OpenOnly, err = strconv.ParseBool(v); err != nil {
			return raw, errors.New("invalid open_only")
		}
	}

	minPrice, maxPrice := params.Get("price_min"), params.Get("price_max")
	if minPrice != "" || maxPrice != "" {
		pr := &search.PriceRange{}
		if minPrice != "" {
			if pr.Min, err = strconv.Atoi(minPrice); err != nil {
				return raw, errors.New("invalid price_min")
			}
		}
		if maxPrice != "" {
			if pr.Max, err = strconv.Atoi(maxPrice); err != nil {
				return raw, errors.New("invalid price_max")
			}
		}
		raw.PriceRange = pr
	}

	return raw, nil
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
