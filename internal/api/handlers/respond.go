package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/skillshare/skillshare-backend/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// writeServiceError maps a service error onto a status code and a plain-text
// body. Credential and token failures share one message per kind so the
// response never reveals which check failed.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrStaleToken),
		errors.Is(err, domain.ErrAccountDeactivated):
		http.Error(w, "Invalid token", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrWrongOldPassword):
		http.Error(w, "Old password is incorrect", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrUnauthorized):
		http.Error(w, "Not the owner of this resource", http.StatusForbidden)
	case errors.Is(err, domain.ErrUserNotFound):
		http.Error(w, "User not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrStoryNotFound):
		http.Error(w, "Story not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrEmailExists):
		http.Error(w, "Email already exists", http.StatusConflict)
	case errors.Is(err, domain.ErrMissingField):
		http.Error(w, "Missing required field", http.StatusBadRequest)
	case errors.Is(err, domain.ErrPasswordTooLong):
		http.Error(w, "Password must be at most 72 bytes", http.StatusBadRequest)
	case errors.Is(err, domain.ErrEmptyStory):
		http.Error(w, "Story needs text or media", http.StatusBadRequest)
	default:
		logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
