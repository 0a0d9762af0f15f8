package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrUnavailable wraps every I/O failure of a driver. Callers treat it as
	// retryable and never as an authentication failure.
	ErrUnavailable = errors.New("store: unavailable")
)

// Store is the root data access interface. Concrete drivers (memory, sqlite,
// redis) implement this.
type Store interface {
	Users() Users

	// ApplyMigrations prepares the backing schema. No-op for schemaless drivers.
	ApplyMigrations() error

	// Ping verifies the backend is still reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

// UpdateFunc receives the currently persisted state and returns the state to
// persist. Returning an error aborts the update without writing.
type UpdateFunc func(current domain.TwoFactorState) (domain.TwoFactorState, error)

type Users interface {
	// GetUser returns the current user record by identifier.
	GetUser(ctx context.Context, identifier string) (domain.User, error)

	// CreateUser inserts a new user. The two-factor state of u is persisted as given.
	CreateUser(ctx context.Context, u domain.User) error

	// ReplaceTwoFactorState overwrites the two-factor state unconditionally.
	ReplaceTwoFactorState(ctx context.Context, identifier string, state domain.TwoFactorState) error

	// UpdateTwoFactorState runs fn on the persisted state under per-user mutual
	// exclusion and atomically persists its result, which is also returned.
	UpdateTwoFactorState(ctx context.Context, identifier string, fn UpdateFunc) (domain.TwoFactorState, error)
}
