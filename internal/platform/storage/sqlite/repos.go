package sqlitestore

import (
	"context"
	"database/sql"

	"gatehouse/internal/contracts"
	"gatehouse/internal/domain"

	"github.com/go-webauthn/webauthn/webauthn"
)

type repos struct {
	db *sql.DB
}

// NewRepos wires sqlite-backed repositories for the app layer.
func NewRepos(db *sql.DB) contracts.Repos {
	r := repos{db: db}
	return contracts.Repos{
		Users:    r,
		Audit:    r,
		Settings: r,
		Passkeys: r,
	}
}

// Users
func (r repos) GetUserByID(ctx context.Context, id int) (domain.User, error) {
	return GetUserByID(ctx, r.db, id)
}

func (r repos) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return GetUserByUsername(ctx, r.db, username)
}

func (r repos) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	return CreateUser(ctx, r.db, username, passwordHash)
}

func (r repos) UpdateUserTOTP(ctx context.Context, userID int, secret string) error {
	return UpdateUserTOTP(ctx, r.db, userID, secret)
}

func (r repos) CountUsers(ctx context.Context) (int, error) {
	return CountUsers(ctx, r.db)
}

// Audit
func (r repos) WriteAuditLog(ctx context.Context, actorID int, action, target string, metadata map[string]string) error {
	return WriteAuditLog(ctx, r.db, actorID, action, target, metadata)
}

func (r repos) ListAuditLogsForActor(ctx context.Context, actorID, limit int) ([]domain.AuditLog, error) {
	return ListAuditLogsForActor(ctx, r.db, actorID, limit)
}

// Settings
func (r repos) GetSettings(ctx context.Context, keys ...string) (map[string]string, error) {
	return GetSettings(ctx, r.db, keys...)
}

func (r repos) SetSettings(ctx context.Context, values map[string]string) error {
	return SetSettings(ctx, r.db, values)
}

func (r repos) DeleteSetting(ctx context.Context, key string) error {
	return DeleteSetting(ctx, r.db, key)
}

// Passkeys
func (r repos) ListPasskeys(ctx context.Context, userID int) ([]domain.Passkey, error) {
	return ListPasskeys(ctx, r.db, userID)
}

func (r repos) LoadPasskeyCredentials(ctx context.Context, userID int) ([]webauthn.Credential, error) {
	return LoadPasskeyCredentials(ctx, r.db, userID)
}

func (r repos) InsertPasskey(ctx context.Context, userID int, name string, credential webauthn.Credential) error {
	return InsertPasskey(ctx, r.db, userID, name, credential)
}

func (r repos) TouchPasskey(ctx context.Context, userID int, credential webauthn.Credential) error {
	return TouchPasskey(ctx, r.db, userID, credential)
}

func (r repos) DeletePasskey(ctx context.Context, userID, id int) error {
	return DeletePasskey(ctx, r.db, userID, id)
}
