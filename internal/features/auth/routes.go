package auth

import (
	"net/http"

	"gatehouse/internal/platform/transport"

	"github.com/go-chi/chi/v5"
)

// Register mounts the logout endpoint. The entry page itself is routed by the shell.
func Register(r chi.Router, reg transport.Registrar, handler Handler) {
	reg.RegisterRoute(r, http.MethodPost, "/logout", http.HandlerFunc(handler.Logout))
}
