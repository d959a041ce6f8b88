package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Failure is the body of every non-2xx response.
type Failure struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("respond: encode payload failed", "err", err)
	}
}

// Error writes a failure body carrying only a message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Failure{Error: message})
}

// Fail writes a failure body with its kind and an optional detail message.
func Fail(w http.ResponseWriter, status int, f Failure) {
	JSON(w, status, f)
}
