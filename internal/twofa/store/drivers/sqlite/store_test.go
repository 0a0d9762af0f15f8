package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/internal/twofa/store"
	"github.com/aussiebroadwan/twofa/internal/twofa/store/drivers/sqlite"
	"github.com/aussiebroadwan/twofa/internal/twofa/store/storetest"
	"github.com/aussiebroadwan/twofa/pkg/clock"
	"github.com/aussiebroadwan/twofa/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "twofa.db"), clock.New())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestMain(m *testing.M) {
	// A fixed key keeps sealed values readable for the whole run.
	cryptox.SetMasterKeyPath("")
	if err := os.Setenv(cryptox.MasterKeyEnv, "sqlite-driver-test-key"); err != nil {
		panic(err)
	}
	m.Run()
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newStore(t) })
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.ApplyMigrations())
}

func TestSecretsAreSealedAtRest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "twofa.db")

	s, err := sqlite.NewStore(path, clock.New())
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	const secret = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
	require.NoError(t, s.Users().CreateUser(ctx, domain.User{
		Credential: domain.Credential{Identifier: "a@example.com", PasswordHash: "h"},
		TwoFactor:  domain.Enabled(secret),
	}))

	raw, err := s.RawColumn(ctx, "a@example.com", "twofa_secret")
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.NotContains(t, raw, secret)

	u, err := s.Users().GetUser(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, secret, u.TwoFactor.Secret())
}

func TestCheckConstraintRejectsMixedState(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Users().CreateUser(ctx, domain.User{
		Credential: domain.Credential{Identifier: "a@example.com", PasswordHash: "h"},
		TwoFactor:  domain.Disabled(),
	}))

	err := s.ForceRawState(ctx, "a@example.com", "enabled", "temp", "secret")
	require.Error(t, err)

	u, err := s.Users().GetUser(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, domain.Disabled(), u.TwoFactor)
}
