package health

import (
	"net/http"

	"gatehouse/internal/platform/transport"

	"github.com/go-chi/chi/v5"
)

// Register wires health check endpoints.
func Register(r chi.Router, reg transport.Registrar, db Pinger) {
	handler := NewHandler(db)
	reg.RegisterRoute(r, http.MethodGet, "/healthz", http.HandlerFunc(handler.Health))
}
