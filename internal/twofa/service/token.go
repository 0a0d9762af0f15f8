package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/pkg/clock"
	"github.com/aussiebroadwan/twofa/pkg/idx"
	"github.com/aussiebroadwan/twofa/pkg/jwtx"
)

var ErrNotAuthenticated = errors.New("login did not succeed")

type AccessToken struct {
	Token     string
	ExpiresAt time.Time
	ExpiresIn time.Duration
	SessionID string
}

// TokenService mints bearer tokens for successful logins. The audience is the
// issuer itself; the token is only ever presented back to this service.
type TokenService struct {
	Signer jwtx.Signer
	Issuer string
	TTL    time.Duration
	Clock  clock.Clock
}

func (s *TokenService) Issue(res domain.LoginResult) (AccessToken, error) {
	if res.Outcome != domain.LoginSuccess || res.Identifier == "" {
		return AccessToken{}, ErrNotAuthenticated
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}

	now := s.Clock.Now()
	sid := idx.NewAt(now)
	claims := jwtx.Access{
		Subject:  res.Identifier,
		Session:  sid,
		AMR:      res.AMR,
		Issuer:   s.Issuer,
		Audience: []string{s.Issuer},
		IssuedAt: now,
		TTL:      ttl,
	}.Claims()

	tok, err := s.Signer.Sign(claims)
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign access token: %w", err)
	}
	return AccessToken{
		Token:     tok,
		ExpiresAt: claims.ExpiresAt.Time,
		ExpiresIn: ttl,
		SessionID: sid,
	}, nil
}
