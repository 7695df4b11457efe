package sqlitestore

import (
	"context"
	"testing"
)

func TestAuditSnapshotsActorName(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := CreateUser(ctx, db, "actor", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := WriteAuditLog(ctx, db, int(id), "auth.login", "session", map[string]string{"status": "success"}); err != nil {
		t.Fatalf("write audit log: %v", err)
	}
	if err := WriteAuditLog(ctx, db, int(id), "auth.logout", "session", nil); err != nil {
		t.Fatalf("write audit log: %v", err)
	}
	if err := WriteAuditLog(ctx, db, 0, "auth.login", "session", map[string]string{"status": "failure"}); err != nil {
		t.Fatalf("write anonymous audit log: %v", err)
	}

	logs, err := ListAuditLogsForActor(ctx, db, int(id), 10)
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 audit logs, got %d", len(logs))
	}
	if logs[0].Action != "auth.logout" {
		t.Fatalf("expected newest first, got %q", logs[0].Action)
	}
	if logs[1].ActorName != "actor" || !logs[1].ActorID.Valid {
		t.Fatalf("expected actor snapshot, got %+v", logs[1])
	}
	if logs[1].Metadata != `{"status":"success"}` {
		t.Fatalf("unexpected metadata %q", logs[1].Metadata)
	}
}
