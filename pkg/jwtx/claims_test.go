package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/twofa/pkg/idx"
	"github.com/aussiebroadwan/twofa/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "proto-google-auth",
		},
	}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("proto-google-auth"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateIssuer("someone-else"), jwtx.ErrIssuer)
	})
}

func TestValidateAudience(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: []string{"twofa", "media"},
		},
	}

	require.NoError(t, c.ValidateAudience([]string{"twofa"}))
	require.NoError(t, c.ValidateAudience([]string{"foo", "media"}))
	require.NoError(t, c.ValidateAudience(nil))
	require.ErrorIs(t, c.ValidateAudience([]string{"admin"}), jwtx.ErrAudience)
}

func TestValidateExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		claims  jwtx.Claims
		leeway  time.Duration
		wantErr error
	}{
		{
			name:   "valid token",
			claims: jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))}},
		},
		{
			name:    "expired token",
			claims:  jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}},
			wantErr: jwtx.ErrExpired,
		},
		{
			name:    "not yet valid",
			claims:  jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{NotBefore: jwt.NewNumericDate(now.Add(time.Minute))}},
			wantErr: jwtx.ErrNotYetValid,
		},
		{
			name:   "expired within leeway",
			claims: jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-10 * time.Second))}},
			leeway: 30 * time.Second,
		},
		{
			name:   "no exp or nbf",
			claims: jwtx.Claims{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.claims.ValidateExpiry(now, tt.leeway)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAccessClaims(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := jwtx.Access{
		Subject:  "andrewthian@gmail.com",
		Session:  "sid-1",
		AMR:      []string{"pwd", "otp", "mfa"},
		Issuer:   "proto-google-auth",
		IssuedAt: now,
		TTL:      5 * time.Minute,
	}.Claims()

	require.Equal(t, "andrewthian@gmail.com", c.Subject)
	require.Equal(t, "sid-1", c.SID)
	require.Equal(t, now.Add(5*time.Minute), c.ExpiresAt.Time)
	require.Equal(t, now, c.NotBefore.Time)
	require.True(t, c.HasAMR("mfa"))
	require.False(t, c.HasAMR("hwk"))

	jtiTime, err := idx.Time(c.ID)
	require.NoError(t, err)
	require.Equal(t, now, jtiTime)

	dflt := jwtx.Access{Subject: "u", IssuedAt: now}.Claims()
	require.Equal(t, now.Add(jwtx.DefaultAccessTokenTTL), dflt.ExpiresAt.Time)
	require.NotEqual(t, c.ID, dflt.ID)
}
