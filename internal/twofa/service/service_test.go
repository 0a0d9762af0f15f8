package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/internal/twofa/otpauth"
	"github.com/aussiebroadwan/twofa/internal/twofa/service"
	"github.com/aussiebroadwan/twofa/internal/twofa/store"
	"github.com/aussiebroadwan/twofa/internal/twofa/store/drivers/memory"
	"github.com/aussiebroadwan/twofa/pkg/clock"
	"github.com/aussiebroadwan/twofa/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

const (
	testUser     = "andrew@example.com"
	testPassword = "correct horse battery staple"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "service-pepper")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type fixture struct {
	clock    *clock.Fake
	store    store.Store
	verifier *otpauth.Verifier
	twofa    *service.TwoFactorService
	login    *service.LoginService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewFake(time.Unix(1_700_000_000, 0).UTC())
	st := memory.NewStore(clk)
	ver := otpauth.NewVerifier()

	hash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)
	require.NoError(t, st.Users().CreateUser(context.Background(), domain.User{
		Credential: domain.Credential{Identifier: testUser, PasswordHash: hash},
		TwoFactor:  domain.Disabled(),
	}))

	return &fixture{
		clock:    clk,
		store:    st,
		verifier: ver,
		twofa: &service.TwoFactorService{
			Store:     st,
			Generator: &otpauth.Generator{Issuer: "test"},
			Verifier:  ver,
			Clock:     clk,
		},
		login: &service.LoginService{Store: st, Verifier: ver, Clock: clk},
	}
}

func (f *fixture) state(t *testing.T) domain.TwoFactorState {
	t.Helper()
	u, err := f.store.Users().GetUser(context.Background(), testUser)
	require.NoError(t, err)
	return u.TwoFactor
}

func (f *fixture) code(t *testing.T, secret string) string {
	t.Helper()
	code, err := f.verifier.CodeAt(secret, f.clock.Now())
	require.NoError(t, err)
	return code
}

// enable runs setup and confirmation and returns the active secret.
func (f *fixture) enable(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	_, err := f.twofa.BeginSetup(ctx, testUser)
	require.NoError(t, err)

	out, err := f.twofa.ConfirmSetup(ctx, testUser, f.code(t, f.state(t).TempSecret()))
	require.NoError(t, err)
	require.Equal(t, domain.ConfirmEnabled, out)

	st := f.state(t)
	require.Equal(t, domain.PhaseEnabled, st.Phase())
	return st.Secret()
}
