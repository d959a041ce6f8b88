package handlers

import (
	"net/http"
	"time"

	"github.com/hongminglow/tasks-be/internal/http/respond"
)

// connector is implemented by stores that open their connection lazily.
type connector interface {
	Connected() bool
}

// HealthHandler returns uptime and whether the store has been reached yet.
type HealthHandler struct {
	startedAt time.Time
	store     any
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, store any) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, store: store}
}

// Register wires the handler into a ServeMux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	body := map[string]string{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Truncate(time.Second).String(),
	}
	if c, ok := h.store.(connector); ok {
		body["store"] = "idle"
		if c.Connected() {
			body["store"] = "connected"
		}
	}
	respond.JSON(w, http.StatusOK, body)
}
