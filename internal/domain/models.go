package domain

import (
	"database/sql"
	"time"
)

// User is an account that can sign in through the entry page.
type User struct {
	ID           int
	Username     string
	PasswordHash string
	TOTPSecret   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasTOTP reports whether the user enrolled a second factor.
func (u User) HasTOTP() bool {
	return u.TOTPSecret != ""
}

type AuditLog struct {
	ID        int
	ActorID   sql.NullInt64
	ActorName string
	Action    string
	Target    string
	Metadata  string
	CreatedAt time.Time
}

// Passkey is a WebAuthn credential registered by a user.
type Passkey struct {
	ID             int
	UserID         int
	Name           string
	CredentialID   string
	CredentialJSON string
	CreatedAt      time.Time
	LastUsedAt     sql.NullTime
}
