// internal/server/handlers/invalidate.go

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"nearby/internal/domain/business"
)

// Invalidator is the coordinator surface the handler needs.
type Invalidator interface {
	OnBusinessLocationChanged(ctx context.Context, businessID string, oldCoords, newCoords *business.Coordinates) error
}

// InvalidateHandler exposes cache invalidation to the business-mutation
// collaborator for deployments that call back over HTTP instead of NATS.
type InvalidateHandler struct {
	invalidator Invalidator
}

// NewInvalidateHandler creates a new invalidate handler
func NewInvalidateHandler(invalidator Invalidator) *InvalidateHandler {
	return &InvalidateHandler{invalidator: invalidator}
}

type invalidateRequest struct {
	BusinessID string                `json:"business_id"`
	Old        *business.Coordinates `json:"old,omitempty"`
	New        *business.Coordinates `json:"new,omitempty"`
}

// Invalidate drops the cache entries affected by a business change.
func (h *InvalidateHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.BusinessID == "" {
		respondWithError(w, http.StatusBadRequest, "business_id is required", nil)
		return
	}

	if err := h.invalidator.OnBusinessLocationChanged(r.Context(), req.BusinessID, req.Old, req.New); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Invalidation failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}
