package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
)

// GetSettings reads the requested keys in one query; keys are bound as a JSON array.
func GetSettings(ctx context.Context, db *sql.DB, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}
	wanted, err := json.Marshal(keys)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		"SELECT key, COALESCE(value, '') FROM settings WHERE key IN (SELECT value FROM json_each(?))",
		string(wanted),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[key] = value
	}
	return values, rows.Err()
}

// SetSettings writes every value or none.
func SetSettings(ctx context.Context, db *sql.DB, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
	)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for key, value := range values {
		if _, err := stmt.ExecContext(ctx, key, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteSetting removes key; deleting an absent key is not an error.
func DeleteSetting(ctx context.Context, db *sql.DB, key string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key)
	return err
}
