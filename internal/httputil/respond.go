package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/apperrors"
)

// RespondJSON writes payload as JSON with the given status code.
func RespondJSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}

// RespondError writes a {"error": msg} body with the given status code.
func RespondError(w http.ResponseWriter, code int, message string) {
	RespondJSON(w, code, map[string]string{"error": message})
}

// RespondAppError maps an engine error onto its HTTP status. Caller
// errors keep their message; infrastructure errors get a generic body.
func RespondAppError(w http.ResponseWriter, err error) {
	var (
		ve *apperrors.ValidationError
		pe *apperrors.PermissionError
		te *apperrors.InvalidTransitionError
		le *apperrors.PayloadTooLargeError
		se *apperrors.StorageError
	)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		RespondError(w, http.StatusNotFound, "not found")
	case errors.As(err, &ve):
		RespondError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &pe):
		RespondError(w, http.StatusForbidden, pe.Error())
	case errors.As(err, &te):
		RespondError(w, http.StatusConflict, te.Error())
	case errors.As(err, &le):
		RespondError(w, http.StatusRequestEntityTooLarge, le.Error())
	case errors.Is(err, apperrors.EmptyMessageError):
		RespondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &se):
		RespondError(w, http.StatusServiceUnavailable, "storage unavailable, retry later")
	default:
		RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
