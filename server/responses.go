package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/event-auth-server/internal/errors"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

var kindStatus = map[errors.Kind]int{
	errors.KindValidation:         http.StatusBadRequest,
	errors.KindBadCredentials:     http.StatusBadRequest,
	errors.KindBadState:           http.StatusBadRequest,
	errors.KindExpired:            http.StatusBadRequest,
	errors.KindUnauthorized:       http.StatusUnauthorized,
	errors.KindForbidden:          http.StatusForbidden,
	errors.KindNotFound:           http.StatusNotFound,
	errors.KindConflict:           http.StatusConflict,
	errors.KindServiceUnavailable: http.StatusServiceUnavailable,
	errors.KindInternal:           http.StatusInternalServerError,
}

type messageResponse struct {
	Message string `json:"message"`
}

type messagesResponse struct {
	Message []string `json:"message"`
}

type conflictResponse struct {
	Message string   `json:"message"`
	Fields  []string `json:"fields"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("writing response body failed")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// writeError maps err onto a status code and body. Internal failures are reported
// with a generic message only.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *errors.Error
	if !errors.As(err, &appErr) || appErr.Kind == errors.KindInternal {
		log.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status, ok := kindStatus[appErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	switch {
	case appErr.Kind == errors.KindValidation && len(appErr.Fields) > 0:
		writeJSON(w, status, messagesResponse{Message: appErr.Fields})
	case appErr.Kind == errors.KindConflict && len(appErr.Fields) > 0:
		writeJSON(w, status, conflictResponse{Message: appErr.Error(), Fields: appErr.Fields})
	default:
		writeMessage(w, status, appErr.Message)
	}
}

// decodeJSON reads a JSON body into v, answering 400 itself when it cannot
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "request body must be valid JSON")
		return false
	}
	return true
}
