package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/logistiker/saleor-app/internal/logging"
)

// ErrorResponse is the body written for every rejected request.
type ErrorResponse struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	TraceID string                 `json:"traceId,omitempty"`
}

// WriteJSON writes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// WriteErrorResponse writes an ErrorResponse, echoing the request trace ID.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	resp := ErrorResponse{
		Success: false,
		Error:   code,
		Message: message,
		Details: details,
	}
	if r != nil {
		resp.TraceID = logging.GetTraceID(r.Context())
	}
	WriteJSON(w, status, resp)
}
