package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"gatehouse/internal/contracts/users"
	"gatehouse/internal/domain"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const userColumns = "id, username, password_hash, COALESCE(totp_secret,''), created_at, COALESCE(updated_at,'')"

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var createdAt, updatedAt string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.TOTPSecret, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, users.ErrNotFound
		}
		return domain.User{}, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	u.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return u, nil
}

func GetUserByID(ctx context.Context, db *sql.DB, id int) (domain.User, error) {
	return scanUser(db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM user WHERE id = ?", id))
}

// GetUserByUsername looks the user up case-insensitively.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, users.ErrNotFound
	}
	return scanUser(db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM user WHERE username = ?", username))
}

func CreateUser(ctx context.Context, db *sql.DB, username, passwordHash string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(passwordHash) == "" {
		return 0, errors.New("username and password hash are required")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := db.ExecContext(
		ctx,
		`INSERT INTO user (username, password_hash, totp_secret, created_at, updated_at) VALUES (?, ?, '', ?, ?)`,
		username, passwordHash, now, now,
	)
	if isUniqueViolation(err) {
		return 0, users.ErrUsernameTaken
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateUserTOTP stores or clears (empty secret) the user's TOTP secret.
func UpdateUserTOTP(ctx context.Context, db *sql.DB, userID int, secret string) error {
	res, err := db.ExecContext(ctx, "UPDATE user SET totp_secret = ?, updated_at = ? WHERE id = ?", secret, time.Now().UTC().Format(time.RFC3339), userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func CountUsers(ctx context.Context, db *sql.DB) (int, error) {
	row := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user")
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure, so a racing insert maps to a sentinel.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
