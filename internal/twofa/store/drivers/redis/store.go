// Package redis is the store driver backed by Redis. Each user is one hash;
// read-modify-write cycles use WATCH/MULTI optimistic transactions.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/internal/twofa/store"
	"github.com/aussiebroadwan/twofa/pkg/clock"
	"github.com/aussiebroadwan/twofa/pkg/cryptox"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "twofa:user:"

	// maxTxRetries bounds how often a WATCH conflict is retried before the
	// update is reported as unavailable.
	maxTxRetries = 64
)

// Hash fields.
const (
	fieldIdentifier   = "identifier"
	fieldPasswordHash = "password_hash"
	fieldPhase        = "twofa_phase"
	fieldTempSecret   = "twofa_temp_secret"
	fieldURI          = "twofa_uri"
	fieldSecret       = "twofa_secret"
	fieldCreatedAt    = "created_at"
	fieldUpdatedAt    = "updated_at"
)

var ErrTooMuchContention = errors.New("redis: transaction retries exhausted")

type Store struct {
	rdb   redis.UniversalClient
	clock clock.Clock
}

func NewStore(rdb redis.UniversalClient, c clock.Clock) *Store {
	if c == nil {
		c = clock.New()
	}
	return &Store{rdb: rdb, clock: c}
}

func (s *Store) Users() store.Users     { return &usersRepo{s: s} }
func (s *Store) ApplyMigrations() error { return nil }
func (s *Store) Close() error           { return s.rdb.Close() }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// userKey keeps raw identifiers (emails) out of the keyspace.
func userKey(identifier string) string {
	return keyPrefix + cryptox.Fingerprint(identifier)
}

func unavailable(err error) error {
	if err == nil || errors.Is(err, store.ErrUnavailable) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
}

type usersRepo struct {
	s *Store
}

func (r *usersRepo) GetUser(ctx context.Context, identifier string) (domain.User, error) {
	fields, err := r.s.rdb.HGetAll(ctx, userKey(identifier)).Result()
	if err != nil {
		return domain.User{}, unavailable(err)
	}
	return decodeUser(identifier, fields)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	sealed, err := store.SealState(u.Identifier, u.TwoFactor)
	if err != nil {
		return err
	}

	now := r.s.clock.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	key := userKey(u.Identifier)
	values := encodeState(sealed, u.UpdatedAt)
	values[fieldIdentifier] = u.Identifier
	values[fieldPasswordHash] = u.PasswordHash
	values[fieldCreatedAt] = strconv.FormatInt(u.CreatedAt.UTC().UnixMilli(), 10)

	return r.s.watch(ctx, key, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return unavailable(err)
		}
		if n > 0 {
			return store.ErrAlreadyExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, values)
			return nil
		})
		return execErr(err)
	})
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
	key := userKey(identifier)

	var next domain.TwoFactorState
	err := r.s.watch(ctx, key, func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return unavailable(err)
		}
		u, err := decodeUser(identifier, fields)
		if err != nil {
			return err
		}

		next, err = fn(u.TwoFactor)
		if err != nil {
			return err
		}
		sealed, err := store.SealState(identifier, next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, encodeState(sealed, r.s.clock.Now()))
			return nil
		})
		return execErr(err)
	})
	if err != nil {
		return domain.TwoFactorState{}, err
	}
	return next, nil
}

// watch runs fn in a WATCH on key and retries when another client modified
// the key between the read and EXEC. Errors returned by fn pass through
// untouched; failures of WATCH itself are reported as unavailable.
func (s *Store) watch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for range maxTxRetries {
		var fnErr error
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			fnErr = fn(tx)
			return fnErr
		}, key)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case fnErr != nil:
			return err
		default:
			return unavailable(err)
		}
	}
	return unavailable(ErrTooMuchContention)
}

// execErr classifies the result of EXEC, keeping TxFailedErr visible to watch.
func execErr(err error) error {
	if err == nil || errors.Is(err, redis.TxFailedErr) {
		return err
	}
	return unavailable(err)
}

func encodeState(s store.SealedState, updatedAt time.Time) map[string]any {
	return map[string]any{
		fieldPhase:      s.Phase,
		fieldTempSecret: s.TempSecret,
		fieldURI:        s.URI,
		fieldSecret:     s.Secret,
		fieldUpdatedAt:  strconv.FormatInt(updatedAt.UTC().UnixMilli(), 10),
	}
}

func decodeUser(identifier string, fields map[string]string) (domain.User, error) {
	if len(fields) == 0 {
		return domain.User{}, store.ErrNotFound
	}
	if fields[fieldIdentifier] != identifier {
		return domain.User{}, fmt.Errorf("%w: hash belongs to another identifier", domain.ErrInconsistentState)
	}

	state, err := store.OpenState(identifier, store.SealedState{
		Phase:      fields[fieldPhase],
		TempSecret: fields[fieldTempSecret],
		URI:        fields[fieldURI],
		Secret:     fields[fieldSecret],
	})
	if err != nil {
		return domain.User{}, err
	}

	return domain.User{
		Credential: domain.Credential{
			Identifier:   identifier,
			PasswordHash: fields[fieldPasswordHash],
		},
		TwoFactor: state,
		CreatedAt: parseMillis(fields[fieldCreatedAt]),
		UpdatedAt: parseMillis(fields[fieldUpdatedAt]),
	}, nil
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
