package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Registrar abstracts route registration so the server can track mounted path segments.
type Registrar interface {
	RegisterRoute(r chi.Router, method, pattern string, handler http.Handler)
}
