package contracts

import (
	"gatehouse/internal/contracts/audit"
	"gatehouse/internal/contracts/passkeys"
	"gatehouse/internal/contracts/settings"
	"gatehouse/internal/contracts/users"
)

// Repos groups feature-specific repositories for injection into services and handlers.
type Repos struct {
	Users    users.Repository
	Audit    audit.Repository
	Settings settings.Repository
	Passkeys passkeys.Repository
}
