package otpauth_test

import (
	"bytes"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/twofa/internal/twofa/otpauth"
	"github.com/stretchr/testify/require"
)

const testSecret = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

func TestGenerator_Generate(t *testing.T) {
	g := &otpauth.Generator{Issuer: "proto-google-auth", SecretLength: 20}

	key, err := g.Generate("andrewthian@gmail.com")
	require.NoError(t, err)
	require.Len(t, key.Secret, 32) // 20 bytes of base32 without padding

	u, err := url.Parse(key.URL)
	require.NoError(t, err)
	require.Equal(t, "otpauth", u.Scheme)
	require.Equal(t, "totp", u.Host)
	require.Equal(t, "/proto-google-auth:andrewthian@gmail.com", u.Path)
	require.Equal(t, key.Secret, u.Query().Get("secret"))
	require.Equal(t, "proto-google-auth", u.Query().Get("issuer"))

	other, err := g.Generate("andrewthian@gmail.com")
	require.NoError(t, err)
	require.NotEqual(t, key.Secret, other.Secret)
}

func TestGenerator_ShortLengthIsRaised(t *testing.T) {
	g := &otpauth.Generator{Issuer: "x", SecretLength: 10}

	key, err := g.Generate("acct")
	require.NoError(t, err)
	require.Len(t, key.Secret, 32)

	require.Equal(t, 20, otpauth.EffectiveSecretLength(0))
	require.Equal(t, 20, otpauth.EffectiveSecretLength(15))
	require.Equal(t, 16, otpauth.EffectiveSecretLength(16))
	require.Equal(t, 32, otpauth.EffectiveSecretLength(32))
}

func TestGenerator_DeterministicWithInjectedRand(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, 64)
	a, err := (&otpauth.Generator{Issuer: "x", Rand: bytes.NewReader(seed)}).Generate("acct")
	require.NoError(t, err)
	b, err := (&otpauth.Generator{Issuer: "x", Rand: bytes.NewReader(seed)}).Generate("acct")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestGenerator_RequiresAccount(t *testing.T) {
	_, err := (&otpauth.Generator{Issuer: "x"}).Generate("")
	require.Error(t, err)
}

func TestVerifier_WindowBoundary(t *testing.T) {
	v := otpauth.NewVerifier()
	times := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 15, 0, time.UTC),
		time.Date(2025, 6, 30, 12, 34, 0, 0, time.UTC),
		time.Unix(1_700_000_029, 0).UTC(),
	}

	for _, now := range times {
		code, err := v.CodeAt(testSecret, now)
		require.NoError(t, err)
		require.Len(t, code, 6)

		require.True(t, v.Verify(testSecret, code, now), "same step")
		require.True(t, v.Verify(testSecret, code, now.Add(30*time.Second)), "+30s")
		require.True(t, v.Verify(testSecret, code, now.Add(-30*time.Second)), "-30s")
		require.False(t, v.Verify(testSecret, code, now.Add(90*time.Second)), "+90s")
		require.False(t, v.Verify(testSecret, code, now.Add(-90*time.Second)), "-90s")
		require.False(t, v.Verify(testSecret, code, now.Add(10*time.Minute)), "+10m")
	}
}

func TestVerifier_CollisionResistance(t *testing.T) {
	g := &otpauth.Generator{Issuer: "x", SecretLength: 20}
	v := otpauth.NewVerifier()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	falseAccepts := 0
	for i := 0; i < 256; i++ {
		a, err := g.Generate("a")
		require.NoError(t, err)
		b, err := g.Generate("b")
		require.NoError(t, err)

		code, err := v.CodeAt(a.Secret, now)
		require.NoError(t, err)
		if v.Verify(b.Secret, code, now) {
			falseAccepts++
		}
	}
	// Three 6 digit codes per check give roughly 3e-6 per pair.
	require.Zero(t, falseAccepts)
}

func TestVerifier_MalformedInput(t *testing.T) {
	v := otpauth.NewVerifier()
	now := time.Unix(1_700_000_000, 0)
	code, err := v.CodeAt(testSecret, now)
	require.NoError(t, err)

	tests := []struct {
		name    string
		secret  string
		code    string
		wantErr error
	}{
		{"empty secret", "", code, otpauth.ErrMalformedSecret},
		{"non base32 secret", "not*base32!", code, otpauth.ErrMalformedSecret},
		{"malformed secret and code", "not*base32!", "12", otpauth.ErrMalformedSecret},
		{"empty secret and code", "", "", otpauth.ErrMalformedSecret},
		{"short code", testSecret, "12345", otpauth.ErrMalformedCode},
		{"long code", testSecret, "1234567", otpauth.ErrMalformedCode},
		{"letters", testSecret, "12a456", otpauth.ErrMalformedCode},
		{"empty code", testSecret, "", otpauth.ErrMalformedCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := v.Check(tt.secret, tt.code, now)
			require.False(t, ok)
			require.ErrorIs(t, err, tt.wantErr)
			require.False(t, v.Verify(tt.secret, tt.code, now))
		})
	}
}

func TestVerifier_WrongCodeIsNotAnError(t *testing.T) {
	v := otpauth.NewVerifier()
	now := time.Unix(1_700_000_000, 0)
	code, err := v.CodeAt(testSecret, now)
	require.NoError(t, err)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	ok, err := v.Check(testSecret, wrong, now)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifier_LowercaseSecret(t *testing.T) {
	v := otpauth.NewVerifier()
	now := time.Unix(1_700_000_000, 0)
	code, err := v.CodeAt(testSecret, now)
	require.NoError(t, err)
	require.True(t, v.Verify(strings.ToLower(testSecret), code, now))
}
