package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"gatehouse/internal/contracts/passkeys"
	"gatehouse/internal/domain"

	"github.com/go-webauthn/webauthn/webauthn"
)

// CredentialKey is the stored form of a WebAuthn credential id.
func CredentialKey(id []byte) string {
	return base64.RawURLEncoding.EncodeToString(id)
}

func ListPasskeys(ctx context.Context, db *sql.DB, userID int) ([]domain.Passkey, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, user_id, name, credential_id, credential_json, created_at, COALESCE(last_used_at, '') FROM passkey WHERE user_id = ? ORDER BY id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Passkey
	for rows.Next() {
		var pk domain.Passkey
		var created, lastUsed string
		if err := rows.Scan(&pk.ID, &pk.UserID, &pk.Name, &pk.CredentialID, &pk.CredentialJSON, &created, &lastUsed); err != nil {
			return nil, err
		}
		pk.CreatedAt, _ = time.Parse(time.RFC3339, created)
		if t, err := time.Parse(time.RFC3339, lastUsed); err == nil {
			pk.LastUsedAt = sql.NullTime{Time: t, Valid: true}
		}
		out = append(out, pk)
	}
	return out, rows.Err()
}

// LoadPasskeyCredentials decodes every credential of the user for a WebAuthn ceremony.
func LoadPasskeyCredentials(ctx context.Context, db *sql.DB, userID int) ([]webauthn.Credential, error) {
	keys, err := ListPasskeys(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	creds := make([]webauthn.Credential, 0, len(keys))
	for _, pk := range keys {
		var cred webauthn.Credential
		if err := json.Unmarshal([]byte(pk.CredentialJSON), &cred); err != nil {
			return nil, fmt.Errorf("passkey %d: %w", pk.ID, err)
		}
		creds = append(creds, cred)
	}
	return creds, nil
}

func InsertPasskey(ctx context.Context, db *sql.DB, userID int, name string, credential webauthn.Credential) error {
	payload, err := json.Marshal(credential)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO passkey (user_id, name, credential_id, credential_json, created_at) VALUES (?, ?, ?, ?, ?)",
		userID, name, CredentialKey(credential.ID), string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// TouchPasskey stores the credential state returned by a sign-in (sign count, flags) and its last use.
func TouchPasskey(ctx context.Context, db *sql.DB, userID int, credential webauthn.Credential) error {
	payload, err := json.Marshal(credential)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		"UPDATE passkey SET credential_json = ?, last_used_at = ? WHERE user_id = ? AND credential_id = ?",
		string(payload), time.Now().UTC().Format(time.RFC3339), userID, CredentialKey(credential.ID),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return passkeys.ErrNotFound
	}
	return nil
}

func DeletePasskey(ctx context.Context, db *sql.DB, userID, id int) error {
	res, err := db.ExecContext(ctx, "DELETE FROM passkey WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return passkeys.ErrNotFound
	}
	return nil
}
