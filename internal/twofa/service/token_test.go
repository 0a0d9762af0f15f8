package service_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/internal/twofa/service"
	"github.com/aussiebroadwan/twofa/pkg/clock"
	"github.com/aussiebroadwan/twofa/pkg/cryptox"
	"github.com/aussiebroadwan/twofa/pkg/idx"
	"github.com/aussiebroadwan/twofa/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTokenService(t *testing.T, clk clock.Clock) (*service.TokenService, *jwtx.KeySet) {
	t.Helper()

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("test-key", pemKey)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	return &service.TokenService{Signer: signer, Issuer: "twofa-test", TTL: 5 * time.Minute, Clock: clk}, keys
}

func TestIssueToken(t *testing.T) {
	clk := clock.NewFake(time.Now().UTC().Truncate(time.Second))
	svc, keys := newTokenService(t, clk)

	tok, err := svc.Issue(domain.LoginResult{
		Outcome:    domain.LoginSuccess,
		Identifier: testUser,
		AMR:        []string{domain.AMRPassword, domain.AMROTP, domain.AMRMFA},
	})
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
	sidTime, err := idx.Time(tok.SessionID)
	require.NoError(t, err)
	require.Equal(t, clk.Now(), sidTime, "session ids are stamped by the injected clock")
	require.Equal(t, clk.Now().Add(5*time.Minute), tok.ExpiresAt)
	require.Equal(t, 5*time.Minute, tok.ExpiresIn)

	v := jwtx.NewVerifierEdDSA(keys, "twofa-test", []string{"twofa-test"})
	v.Now = clk.Now

	claims, err := v.Verify(tok.Token)
	require.NoError(t, err)
	require.Equal(t, testUser, claims.Subject)
	require.Equal(t, tok.SessionID, claims.SID)
	require.True(t, claims.HasAMR(domain.AMRMFA))

	clk.Advance(6 * time.Minute)
	_, err = v.Verify(tok.Token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestIssueTokenRequiresSuccess(t *testing.T) {
	svc, _ := newTokenService(t, clock.New())

	for _, out := range []domain.LoginOutcome{
		domain.LoginInvalidCredentials,
		domain.LoginOTPRequired,
		domain.LoginInvalidOTP,
	} {
		_, err := svc.Issue(domain.LoginResult{Outcome: out, Identifier: testUser})
		require.ErrorIs(t, err, service.ErrNotAuthenticated, out.String())
	}
}
