package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/internal/twofa/store"
	"github.com/aussiebroadwan/twofa/pkg/clock"
)

const (
	selectUser = `
SELECT identifier, password_hash, twofa_phase, twofa_temp_secret, twofa_uri, twofa_secret, created_at, updated_at
FROM users WHERE identifier = ?`

	insertUser = `
INSERT INTO users (identifier, password_hash, twofa_phase, twofa_temp_secret, twofa_uri, twofa_secret, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	updateTwoFactor = `
UPDATE users
SET twofa_phase = ?, twofa_temp_secret = ?, twofa_uri = ?, twofa_secret = ?, updated_at = ?
WHERE identifier = ?`
)

type usersRepo struct {
	s *Store
}

// twoFactorRow is the sealed on-disk form of a domain.TwoFactorState.
type twoFactorRow struct {
	Phase      string
	TempSecret sql.NullString
	URI        sql.NullString
	Secret     sql.NullString
}

func (r *usersRepo) GetUser(ctx context.Context, identifier string) (domain.User, error) {
	return getUser(ctx, r.s.db, identifier)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	sealed, err := store.SealState(u.Identifier, u.TwoFactor)
	if err != nil {
		return err
	}
	row := toRow(sealed)

	now := r.s.clock.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	_, err = r.s.db.ExecContext(ctx, insertUser,
		u.Identifier,
		u.PasswordHash,
		row.Phase,
		row.TempSecret,
		row.URI,
		row.Secret,
		toMillis(u.CreatedAt),
		toMillis(u.UpdatedAt),
	)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *usersRepo) ReplaceTwoFactorState(ctx context.Context, identifier string, state domain.TwoFactorState) error {
	sealed, err := store.SealState(identifier, state)
	if err != nil {
		return err
	}
	return writeState(ctx, r.s.db, identifier, toRow(sealed), r.s.clock)
}

func (r *usersRepo) UpdateTwoFactorState(
	ctx context.Context,
	identifier string,
	fn store.UpdateFunc,
) (domain.TwoFactorState, error) {
	var next domain.TwoFactorState
	err := r.s.withTx(ctx, func(tx *sql.Tx) error {
		u, err := getUser(ctx, tx, identifier)
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
		return writeState(ctx, tx, identifier, toRow(sealed), r.s.clock)
	})
	if err != nil {
		return domain.TwoFactorState{}, err
	}
	return next, nil
}

func getUser(ctx context.Context, q querier, identifier string) (domain.User, error) {
	var (
		u         domain.User
		row       twoFactorRow
		createdAt int64
		updatedAt int64
	)
	err := q.QueryRowContext(ctx, selectUser, identifier).Scan(
		&u.Identifier,
		&u.PasswordHash,
		&row.Phase,
		&row.TempSecret,
		&row.URI,
		&row.Secret,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.TwoFactor, err = store.OpenState(identifier, fromRow(row))
	if err != nil {
		return domain.User{}, err
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func writeState(ctx context.Context, q querier, identifier string, row twoFactorRow, c clock.Clock) error {
	res, err := q.ExecContext(ctx, updateTwoFactor,
		row.Phase,
		row.TempSecret,
		row.URI,
		row.Secret,
		toMillis(c.Now()),
		identifier,
	)
	if err != nil {
		return unavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func toRow(s store.SealedState) twoFactorRow {
	return twoFactorRow{
		Phase:      s.Phase,
		TempSecret: mapStringNull(s.TempSecret),
		URI:        mapStringNull(s.URI),
		Secret:     mapStringNull(s.Secret),
	}
}

func fromRow(r twoFactorRow) store.SealedState {
	return store.SealedState{
		Phase:      r.Phase,
		TempSecret: mapNullString(r.TempSecret),
		URI:        mapNullString(r.URI),
		Secret:     mapNullString(r.Secret),
	}
}
