// internal/server/handlers/suggest.go

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"nearby/internal/domain/business"
	"nearby/internal/domain/suggest"
)

// Suggester is the aggregator surface the handler needs.
type Suggester interface {
	Suggest(ctx context.Context, text string, location *business.Coordinates, opts suggest.Options) ([]suggest.Ranked, error)
}

// SuggestHandler handles autocomplete HTTP requests
type SuggestHandler struct {
	suggester Suggester
}

// NewSuggestHandler creates a new suggest handler
func NewSuggestHandler(suggester Suggester) *SuggestHandler {
	return &SuggestHandler{suggester: suggester}
}

// Suggest returns ranked autocomplete suggestions for a text fragment.
func (h *SuggestHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	text := params.Get("q")
	if text == "" {
		respondWithError(w, http.StatusBadRequest, "missing q parameter", nil)
		return
	}

	var location *business.Coordinates
	latStr, lngStr := params.Get("lat"), params.Get("lng")
	if latStr != "" && lngStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		if latErr != nil || lngErr != nil {
			respondWithError(w, http.StatusBadRequest, "invalid lat/lng", nil)
			return
		}
		location = &business.Coordinates{Latitude: lat, Longitude: lng}
	}

	opts := suggest.Options{Sources: splitParam(params.Get("sources"))}
	if v := params.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			respondWithError(w, http.StatusBadRequest, "invalid limit", nil)
			return
		}
		opts.Limit = limit
	}

	ranked, err := h.suggester.Suggest(r.Context(), text, location, opts)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to build suggestions", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":       text,
		"suggestions": ranked,
	})
}
