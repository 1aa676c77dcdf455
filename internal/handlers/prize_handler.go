package handlers

import (
	"net/http"

	"bookbuddy/internal/service"
)

// PrizeHandler handles the parent's prize list
type PrizeHandler struct {
	prizeService *service.PrizeService
}

// NewPrizeHandler creates a new prize handler
func NewPrizeHandler(prizeService *service.PrizeService) *PrizeHandler {
	return &PrizeHandler{prizeService: prizeService}
}

// ListPrizes returns the parent's prizes
func (h *PrizeHandler) ListPrizes(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	prizes, err := h.prizeService.List(parent.ID)
	if err != nil {
		writeServiceError(w, "Error listing prizes", err)
		return
	}
	respondJSON(w, http.StatusOK, prizes)
}

// CreatePrize adds a prize
func (h *PrizeHandler) CreatePrize(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	var req service.PrizeInput
	if !decodeJSON(w, r, &req) {
		return
	}

	prize, err := h.prizeService.Create(parent.ID, req)
	if err != nil {
		writeServiceError(w, "Error creating prize", err)
		return
	}
	respondJSON(w, http.StatusCreated, prize)
}

// UpdatePrize replaces a prize
func (h *PrizeHandler) UpdatePrize(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	prizeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req service.PrizeInput
	if !decodeJSON(w, r, &req) {
		return
	}

	prize, err := h.prizeService.Update(parent.ID, prizeID, req)
	if err != nil {
		writeServiceError(w, "Error updating prize", err)
		return
	}
	respondJSON(w, http.StatusOK, prize)
}

// DeletePrize removes a prize
func (h *PrizeHandler) DeletePrize(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	prizeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.prizeService.Delete(parent.ID, prizeID); err != nil {
		writeServiceError(w, "Error deleting prize", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleRedeemed marks a prize redeemed or available again
func (h *PrizeHandler) ToggleRedeemed(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	prizeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	prize, err := h.prizeService.ToggleRedeemed(parent.ID, prizeID)
	if err != nil {
		writeServiceError(w, "Error updating prize", err)
		return
	}
	respondJSON(w, http.StatusOK, prize)
}
