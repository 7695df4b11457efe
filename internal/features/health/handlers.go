package health

import (
	"context"
	"net/http"
	"time"

	"gatehouse/internal/platform/core"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	db Pinger
}

// NewHandler builds a health handler backed by the database.
func NewHandler(db Pinger) Handler {
	return Handler{db: db}
}

// Health reports whether the database answers a ping.
func (h Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	status := map[string]interface{}{"status": "ok", "database": true}
	if err := h.db.PingContext(ctx); err != nil {
		status["status"] = "unavailable"
		status["database"] = false
		core.WriteJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	core.WriteJSON(w, http.StatusOK, status)
}
