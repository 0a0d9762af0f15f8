package domain

import "time"

// Credential is the primary (first factor) credential of a user.
// Identifier is immutable once the user exists.
type Credential struct {
	Identifier   string // unique, e.g. email
	PasswordHash string // argon2id PHC string, never plaintext
}

type User struct {
	Credential
	TwoFactor TwoFactorState
	CreatedAt time.Time
	UpdatedAt time.Time
}
