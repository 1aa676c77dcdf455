package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"bookbuddy/internal/service"
	"bookbuddy/internal/validation"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, ErrorResponse{Error: userMsg})
}

// writeServiceError maps service and validation errors onto HTTP statuses.
// logMsg describes the failed operation and is only logged for server-side
// failures.
func writeServiceError(w http.ResponseWriter, logMsg string, err error) {
	var vErr validation.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: vErr.Message, Field: vErr.Field})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionExpired):
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
	case errors.Is(err, service.ErrNotAuthorized):
		respondWithError(w, http.StatusForbidden, "Forbidden", "", nil)
	case errors.Is(err, service.ErrEmailNotVerified):
		respondWithError(w, http.StatusForbidden, "Email address is not verified", "", nil)
	case errors.Is(err, service.ErrChildNotFound),
		errors.Is(err, service.ErrBookNotFound),
		errors.Is(err, service.ErrPrizeNotFound),
		errors.Is(err, service.ErrParentNotFound):
		respondWithError(w, http.StatusNotFound, err.Error(), "", nil)
	case errors.Is(err, service.ErrEmailTaken):
		respondWithError(w, http.StatusConflict, "Email already registered", "", nil)
	case errors.Is(err, service.ErrInvalidState):
		respondWithError(w, http.StatusConflict, "Book has already been reviewed", logMsg, err)
	case errors.Is(err, service.ErrUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, "Service temporarily unavailable", logMsg, err)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name, "", nil)
		return 0, false
	}
	return id, true
}
