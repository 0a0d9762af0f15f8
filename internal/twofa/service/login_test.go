package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/internal/twofa/service"
	"github.com/stretchr/testify/require"
)

func TestLoginWithoutTwoFactor(t *testing.T) {
	f := newFixture(t)

	res, err := f.login.Login(context.Background(), testUser, testPassword, "")
	require.NoError(t, err)
	require.Equal(t, domain.LoginSuccess, res.Outcome)
	require.Equal(t, testUser, res.Identifier)
	require.Equal(t, []string{domain.AMRPassword}, res.AMR)

	// An OTP is ignored while 2FA is off.
	res, err = f.login.Login(context.Background(), testUser, testPassword, "000000")
	require.NoError(t, err)
	require.Equal(t, domain.LoginSuccess, res.Outcome)
}

func TestLoginPendingDoesNotRequireOTP(t *testing.T) {
	f := newFixture(t)
	_, err := f.twofa.BeginSetup(context.Background(), testUser)
	require.NoError(t, err)

	res, err := f.login.Login(context.Background(), testUser, testPassword, "")
	require.NoError(t, err)
	require.Equal(t, domain.LoginSuccess, res.Outcome)
}

func TestLoginWithTwoFactor(t *testing.T) {
	f := newFixture(t)
	secret := f.enable(t)
	ctx := context.Background()

	t.Run("missing otp", func(t *testing.T) {
		for _, otp := range []string{"", "   "} {
			res, err := f.login.Login(ctx, testUser, testPassword, otp)
			require.NoError(t, err)
			require.Equal(t, domain.LoginOTPRequired, res.Outcome)
			require.Empty(t, res.AMR)
		}
	})

	t.Run("valid otp", func(t *testing.T) {
		res, err := f.login.Login(ctx, testUser, testPassword, f.code(t, secret))
		require.NoError(t, err)
		require.Equal(t, domain.LoginSuccess, res.Outcome)
		require.Equal(t, []string{domain.AMRPassword, domain.AMROTP, domain.AMRMFA}, res.AMR)
	})

	t.Run("expired otp", func(t *testing.T) {
		code := f.code(t, secret)
		f.clock.Advance(90 * time.Second)
		defer f.clock.Advance(-90 * time.Second)

		res, err := f.login.Login(ctx, testUser, testPassword, code)
		require.NoError(t, err)
		require.Equal(t, domain.LoginInvalidOTP, res.Outcome)
	})

	t.Run("malformed otp", func(t *testing.T) {
		res, err := f.login.Login(ctx, testUser, testPassword, "12ab56")
		require.NoError(t, err)
		require.Equal(t, domain.LoginInvalidOTP, res.Outcome)
	})
}

func TestLoginInvalidCredentialsComesFirst(t *testing.T) {
	f := newFixture(t)
	secret := f.enable(t)
	valid := f.code(t, secret)

	tests := []struct {
		name       string
		identifier string
		password   string
		otp        string
	}{
		{"wrong password no otp", testUser, "wrong", ""},
		{"wrong password valid otp", testUser, "wrong", valid},
		{"wrong password bad otp", testUser, "wrong", "000000"},
		{"unknown user no otp", "nobody@example.com", testPassword, ""},
		{"unknown user valid otp", "nobody@example.com", testPassword, valid},
		{"empty password", testUser, "", valid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.login.Login(context.Background(), tt.identifier, tt.password, tt.otp)
			require.NoError(t, err)
			require.Equal(t, domain.LoginResult{Outcome: domain.LoginInvalidCredentials}, res)
		})
	}
}

func TestLoginMalformedStoredSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Users().ReplaceTwoFactorState(ctx, testUser, domain.Enabled("%%%")))

	for _, otp := range []string{"123456", "12", "abc"} {
		res, err := f.login.Login(ctx, testUser, testPassword, otp)
		require.ErrorIs(t, err, service.ErrMalformedSecret, "otp %q", otp)
		require.NotEqual(t, domain.LoginInvalidOTP, res.Outcome)
		require.NotEqual(t, domain.LoginSuccess, res.Outcome)
	}

	// Without an OTP the secret is never touched.
	res, err := f.login.Login(ctx, testUser, testPassword, "")
	require.NoError(t, err)
	require.Equal(t, domain.LoginOTPRequired, res.Outcome)
}
