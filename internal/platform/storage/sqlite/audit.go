package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"gatehouse/internal/domain"
)

// WriteAuditLog stores an audit entry, snapshotting the actor's username.
func WriteAuditLog(ctx context.Context, db *sql.DB, actorID int, action, target string, metadata map[string]string) error {
	metaJSON := ""
	if metadata != nil {
		if raw, err := json.Marshal(metadata); err == nil {
			metaJSON = string(raw)
		}
	}
	var actor interface{}
	if actorID > 0 {
		actor = actorID
	}
	_, err := db.ExecContext(
		ctx,
		"INSERT INTO audit_log (actor_id, actor_name, action, target, metadata, created_at) VALUES (?, (SELECT username FROM user WHERE id = ?), ?, ?, ?, ?)",
		actor,
		actorID,
		action,
		target,
		metaJSON,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListAuditLogsForActor returns the newest entries for one actor.
func ListAuditLogsForActor(ctx context.Context, db *sql.DB, actorID, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.QueryContext(ctx, "SELECT id, COALESCE(actor_id, 0), COALESCE(actor_name,''), action, COALESCE(target,''), COALESCE(metadata,''), created_at FROM audit_log WHERE actor_id = ? ORDER BY id DESC LIMIT ?", actorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var logEntry domain.AuditLog
		var actor int64
		var created string
		if err := rows.Scan(&logEntry.ID, &actor, &logEntry.ActorName, &logEntry.Action, &logEntry.Target, &logEntry.Metadata, &created); err != nil {
			return nil, err
		}
		if actor > 0 {
			logEntry.ActorID = sql.NullInt64{Int64: actor, Valid: true}
		}
		logEntry.CreatedAt, _ = time.Parse(time.RFC3339, created)
		logs = append(logs, logEntry)
	}
	return logs, rows.Err()
}
