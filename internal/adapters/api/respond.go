package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/poyrazK/dnsaas/internal/core/domain"
)

type errorBody struct {
	Error          string   `json:"error"`
	Field          string   `json:"field,omitempty"`
	ConflictingIDs []string `json:"conflicting_ids,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// statusFor maps core errors to HTTP status codes.
func statusFor(err error) int {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
		body.ConflictingIDs = ve.ConflictingIDs
	}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		body.Error = "internal server error"
	}
	writeJSON(w, status, body)
}

// dispositionStatus is the HTTP status reported for each request outcome.
var dispositionStatus = map[domain.Disposition]int{
	domain.DispositionCreated: http.StatusCreated,
	domain.DispositionUpdated: http.StatusOK,
	domain.DispositionDeleted: http.StatusNoContent,
	domain.DispositionQueued:  http.StatusAccepted,
	domain.DispositionPending: http.StatusSeeOther,
	domain.DispositionClosed:  http.StatusOK,
}

func writeOutcome(w http.ResponseWriter, out *domain.Outcome) {
	status, ok := dispositionStatus[out.Disposition]
	if !ok {
		status = http.StatusOK
	}
	switch status {
	case http.StatusNoContent:
		w.WriteHeader(status)
		return
	case http.StatusSeeOther:
		if len(out.PendingRequestIDs) > 0 {
			w.Header().Set("Location", "/"+string(domain.KindRecordRequest)+"s/"+out.PendingRequestIDs[0])
		}
	}
	writeJSON(w, status, out)
}
