package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goalstash/goalstash/internal/repository"
	"github.com/goalstash/goalstash/internal/service"
	"github.com/goalstash/goalstash/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": message})
}

var errInvalidBody = errors.New("invalid request body")

// badRequestErrs are caller mistakes: reported back with their message,
// never logged as server failures.
var badRequestErrs = []error{
	errInvalidBody,
	service.ErrTargetNotPositive,
	service.ErrDatePast,
	service.ErrBadFrequency,
	service.ErrDepositNotDue,
	service.ErrNothingRecommended,
	service.ErrNothingToConfirm,
	validation.ErrAmountInvalid,
	validation.ErrAmountNotPositive,
	validation.ErrAmountNegative,
	validation.ErrDateInvalid,
	validation.ErrDatePast,
	validation.ErrNameRequired,
	validation.ErrNameTooLong,
}

// respondError maps core errors onto HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrGoalNotFound),
		errors.Is(err, repository.ErrNotificationNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	for _, known := range badRequestErrs {
		if errors.Is(err, known) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	slog.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "Something went wrong")
}
