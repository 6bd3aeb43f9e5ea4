package handler

import (
	"encoding/json"
	"net/http"

	"notebins/pkg/apperr"
	"notebins/pkg/logger"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Warnf("Failed to encode response: %v", err)
	}
}

// Error writes a JSON error body with the status mapped from err. Internal
// failures are logged and reported with a generic message.
func Error(w http.ResponseWriter, err error, message string) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Sugar.Errorf("%s: %v", message, err)
	} else {
		message = err.Error()
	}
	JSON(w, status, errorBody{Error: http.StatusText(status), Message: message})
}

// Decode reads a JSON request body into v.
func Decode(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}
