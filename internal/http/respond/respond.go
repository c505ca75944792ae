// Package respond writes JSON bodies and maps domain errors to status codes.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/campusfin/internal/budget"
	"github.com/MrJamesThe3rd/campusfin/internal/importer"
	"github.com/MrJamesThe3rd/campusfin/internal/matching"
	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

var badRequest = []error{
	transaction.ErrInvalidType,
	transaction.ErrInvalidAmount,
	transaction.ErrMissingCategory,
	transaction.ErrMissingDescription,
	transaction.ErrMalformedDate,
	budget.ErrInvalidLimit,
	budget.ErrInvalidPeriod,
	budget.ErrMissingCategory,
	matching.ErrEmptyMapping,
	importer.ErrUnknownFormat,
}

var notFound = []error{
	transaction.ErrNotFound,
	budget.ErrNotFound,
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}

	for _, target := range notFound {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}

	return http.StatusInternalServerError
}

// Error writes err with its mapped status. Internal errors are logged and
// their text is not leaked to the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", status)

		return
	}

	http.Error(w, err.Error(), status)
}
