package sqlitestore

import (
	"context"
	"testing"
)

func TestSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := SetSettings(ctx, db, map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("set settings: %v", err)
	}
	if err := SetSettings(ctx, db, map[string]string{"a": "3"}); err != nil {
		t.Fatalf("overwrite setting: %v", err)
	}
	values, err := GetSettings(ctx, db, "a", "b", "missing")
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if values["a"] != "3" || values["b"] != "2" {
		t.Fatalf("unexpected values %v", values)
	}
	if _, ok := values["missing"]; ok {
		t.Fatalf("expected missing key to be absent")
	}

	if err := DeleteSetting(ctx, db, "b"); err != nil {
		t.Fatalf("delete setting: %v", err)
	}
	if err := DeleteSetting(ctx, db, "never-set"); err != nil {
		t.Fatalf("delete absent setting: %v", err)
	}
	values, err = GetSettings(ctx, db, "b")
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if _, ok := values["b"]; ok {
		t.Fatalf("expected b deleted, got %v", values)
	}
}

func TestGetSettingsNoKeys(t *testing.T) {
	db := openTestDB(t)
	values, err := GetSettings(context.Background(), db)
	if err != nil || len(values) != 0 {
		t.Fatalf("expected empty result, got %v %v", values, err)
	}
}
