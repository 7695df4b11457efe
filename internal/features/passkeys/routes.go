package passkeys

import (
	"net/http"

	"gatehouse/internal/platform/transport"

	"github.com/go-chi/chi/v5"
)

// Register mounts the WebAuthn ceremony endpoints. Deleting a passkey is a form action on /use.
func Register(r chi.Router, reg transport.Registrar, handler Handler) {
	reg.RegisterRoute(r, http.MethodPost, "/passkeys/register/begin", http.HandlerFunc(handler.RegisterBegin))
	reg.RegisterRoute(r, http.MethodPost, "/passkeys/register/finish", http.HandlerFunc(handler.RegisterFinish))
	reg.RegisterRoute(r, http.MethodPost, "/passkeys/login/begin", http.HandlerFunc(handler.LoginBegin))
	reg.RegisterRoute(r, http.MethodPost, "/passkeys/login/finish", http.HandlerFunc(handler.LoginFinish))
}
