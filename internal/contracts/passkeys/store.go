package passkeys

import (
	"context"
	"errors"

	"gatehouse/internal/domain"

	"github.com/go-webauthn/webauthn/webauthn"
)

// ErrNotFound is returned when no passkey matches the user and id.
var ErrNotFound = errors.New("passkey not found")

// Repository stores WebAuthn credentials per user.
type Repository interface {
	ListPasskeys(ctx context.Context, userID int) ([]domain.Passkey, error)
	LoadPasskeyCredentials(ctx context.Context, userID int) ([]webauthn.Credential, error)
	InsertPasskey(ctx context.Context, userID int, name string, credential webauthn.Credential) error
	TouchPasskey(ctx context.Context, userID int, credential webauthn.Credential) error
	DeletePasskey(ctx context.Context, userID, id int) error
}
