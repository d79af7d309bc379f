package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/citylens/citylens/internal/logx"
)

// RespondJSON writes v as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}

// RespondError writes a structured error body. The request id may be
// empty for failures before a pipeline run starts.
func RespondError(w http.ResponseWriter, status int, message, requestID string) {
	body := map[string]interface{}{
		"error": message,
		"code":  status,
	}
	if requestID != "" {
		body["request_id"] = requestID
	}
	RespondJSON(w, status, body)
}
