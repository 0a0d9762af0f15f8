// Package memory is an in-process store driver. State is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/internal/twofa/store"
	"github.com/aussiebroadwan/twofa/pkg/clock"
)

type Store struct {
	mu    sync.RWMutex
	users map[string]domain.User

	// locks serializes read-modify-write per identifier; mu only guards the map.
	locks store.KeyedMutex
	clock clock.Clock
}

func NewStore(c clock.Clock) *Store {
	if c == nil {
		c = clock.New()
	}
	return &Store{users: make(map[string]domain.User), clock: c}
}

func (s *Store) Users() store.Users                     { return &usersRepo{s: s} }
func (s *Store) ApplyMigrations() error                 { return nil }
func (s *Store) Ping(ctx context.Context) error         { return ctx.Err() }
func (s *Store) Close() error                           { return nil }
func (s *Store) now() time.Time                         { return s.clock.Now() }
func (s *Store) lock(identifier string) (unlock func()) { return s.locks.Lock(identifier) }

type usersRepo struct {
	s *Store
}

func (r *usersRepo) GetUser(ctx context.Context, identifier string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[identifier]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := u.TwoFactor.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[u.Identifier]; ok {
		return store.ErrAlreadyExists
	}
	now := r.s.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	r.s.users[u.Identifier] = u
	return nil
}

func (r *usersRepo) ReplaceTwoFactorState(ctx context.Context, identifier string, state domain.TwoFactorState) error {
	_, err := r.UpdateTwoFactorState(ctx, identifier, func(domain.TwoFactorState) (domain.TwoFactorState, error) {
		return state, nil
	})
	return err
}

func (r *usersRepo) UpdateTwoFactorState(
	ctx context.Context,
	identifier string,
	fn store.UpdateFunc,
) (domain.TwoFactorState, error) {
	unlock := r.s.lock(identifier)
	defer unlock()

	u, err := r.GetUser(ctx, identifier)
	if err != nil {
		return domain.TwoFactorState{}, err
	}

	next, err := fn(u.TwoFactor)
	if err != nil {
		return domain.TwoFactorState{}, err
	}
	if err := next.Validate(); err != nil {
		return domain.TwoFactorState{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u.TwoFactor = next
	u.UpdatedAt = r.s.now()
	r.s.users[identifier] = u
	return next, nil
}
