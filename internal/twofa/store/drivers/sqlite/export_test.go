package sqlite

import "context"

// RawColumn reads a users column without opening it.
func (s *Store) RawColumn(ctx context.Context, identifier, column string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(`+column+`, '') FROM users WHERE identifier = ?`, identifier).Scan(&v)
	return v, err
}

// ForceRawState bypasses the domain to exercise the table CHECK constraint.
func (s *Store) ForceRawState(ctx context.Context, identifier, phase, tempSecret, secret string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET twofa_phase = ?, twofa_temp_secret = ?, twofa_secret = ? WHERE identifier = ?`,
		phase, tempSecret, secret, identifier)
	return err
}
