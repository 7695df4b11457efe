package wiring

import (
	"context"

	"gatehouse/internal/domain"
)

// Users.
func (d Deps) GetUserByID(ctx context.Context, id int) (domain.User, error) {
	return d.repos.Users.GetUserByID(ctx, id)
}

func (d Deps) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return d.repos.Users.GetUserByUsername(ctx, username)
}

func (d Deps) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	return d.repos.Users.CreateUser(ctx, username, passwordHash)
}

func (d Deps) UpdateUserTOTP(ctx context.Context, userID int, secret string) error {
	return d.repos.Users.UpdateUserTOTP(ctx, userID, secret)
}

func (d Deps) CountUsers(ctx context.Context) (int, error) {
	return d.repos.Users.CountUsers(ctx)
}

// Audit.
func (d Deps) ListAuditLogsForActor(ctx context.Context, actorID, limit int) ([]domain.AuditLog, error) {
	return d.repos.Audit.ListAuditLogsForActor(ctx, actorID, limit)
}
