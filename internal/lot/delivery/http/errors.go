package http

import (
	"net/http"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/logger"
)

// errorStatus maps an engine error to its HTTP status.
// conflict is the status this endpoint answers conflicts with.
func errorStatus(err error, conflict int) int {
	switch domain.CodeOf(err) {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict:
		return conflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the {success:false, error, code} envelope for err
func respondError(w http.ResponseWriter, r *http.Request, err error, conflict int) {
	status := errorStatus(err, conflict)
	code := domain.CodeOf(err)

	event := logger.Warn(r.Context())
	if status >= http.StatusInternalServerError {
		event = logger.Error(r.Context())
	}
	event.Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("code", string(code)).
		Int("status", status).
		Msg("Request failed")

	message := domain.MessageOf(err)
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	respondJSON(w, status, Response{
		Success: false,
		Error:   message,
		Code:    string(code),
	})
}

func respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, Response{
		Success: false,
		Error:   message,
		Code:    string(domain.CodeValidation),
	})
}
