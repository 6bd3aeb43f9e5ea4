package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	DB          Pinger
	Environment string
	Now         func() time.Time
}

func NewHealthHandler(db Pinger, environment string) *HealthHandler {
	return &HealthHandler{DB: db, Environment: environment, Now: time.Now}
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"message": "Welcome to NoteShare API"})
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"message":     "Server is running",
		"environment": h.Environment,
		"timestamp":   h.Now().UTC().Format(time.RFC3339),
	})
}

// DatabaseHealth pings the saved-note store.
func (h *HealthHandler) DatabaseHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		JSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "error",
			"message":   "Database health check failed",
			"connected": false,
			"error":     err.Error(),
		})
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   "Database health check",
		"connected": true,
	})
}
