package http

import (
	"fmt"
	"net/http"

	"gatehouse/internal/features/auth"
	"gatehouse/internal/features/health"
	"gatehouse/internal/features/layout"
	"gatehouse/internal/features/passkeys"
	"gatehouse/internal/features/shell"
	"gatehouse/internal/features/use"
	gateserver "gatehouse/internal/platform/server"
	"gatehouse/internal/platform/wiring"
	"gatehouse/web"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Shell route names, also used as navbar active markers.
const (
	RouteEntry = "entry"
	RouteUse   = "use"
)

// Routes builds the chi router: fixed endpoints first, everything else falls through to the root shell.
func Routes(s *gateserver.Server) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if s.Config().TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(s.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.GetHead)
	r.Use(s.WithSecurityHeaders)

	deps := wiring.NewDeps(s)
	s.RegisterRoute(r, http.MethodGet, "/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))
	s.RegisterRoute(r, http.MethodGet, "/metrics", s.Metrics().Handler())
	health.Register(r, s, s.DB())

	authHandler := auth.NewHandler(deps)
	auth.Register(r, s, authHandler)
	passkeys.Register(r, s, passkeys.NewHandler(deps))

	table, err := shell.NewTable(
		shell.Route{Name: RouteEntry, Pattern: "/", Page: authHandler.Page()},
		shell.Route{Name: RouteUse, Pattern: "/use", Page: use.NewHandler(deps).Guarded(s, "/")},
	)
	if err != nil {
		return nil, err
	}
	for _, route := range table.Routes() {
		if s.IsReserved(route.Pattern) {
			return nil, fmt.Errorf("shell route %q collides with a mounted endpoint", route.Pattern)
		}
	}

	sh, err := shell.New(shell.Options{
		Table:    table,
		Renderer: s,
		Chrome: layout.NewChrome(deps,
			layout.NavLink{Route: RouteEntry, Label: "Home", Href: "/"},
			layout.NavLink{Route: RouteUse, Label: "Use", Href: "/use"},
		),
		Logger:   s.Logger(),
		Recorder: s.Metrics(),
	})
	if err != nil {
		return nil, err
	}
	r.Handle("/*", sh)
	return r, nil
}
