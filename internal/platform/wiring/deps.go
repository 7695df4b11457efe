package wiring

import (
	"gatehouse/internal/contracts"
	platformserver "gatehouse/internal/platform/server"
)

// Deps satisfies every feature's Dependencies interface by delegating to the server and its repositories.
type Deps struct {
	srv   *platformserver.Server
	repos contracts.Repos
}

func NewDeps(srv *platformserver.Server) Deps {
	return Deps{srv: srv, repos: srv.Repos()}
}
