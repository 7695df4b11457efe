package audit

import (
	"context"

	"gatehouse/internal/domain"
)

// Repository defines persistence operations for audit logs.
type Repository interface {
	WriteAuditLog(ctx context.Context, actorID int, action, target string, metadata map[string]string) error
	ListAuditLogsForActor(ctx context.Context, actorID, limit int) ([]domain.AuditLog, error)
}
