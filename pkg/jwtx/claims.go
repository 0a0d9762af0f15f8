package jwtx

import (
	"slices"
	"time"

	"github.com/aussiebroadwan/twofa/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is the default lifetime for access tokens.
const DefaultAccessTokenTTL = 15 * time.Minute

// Claims are the access-token claims issued after a successful login.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID, one per successful login.
	SID string `json:"sid,omitempty"`

	// Authentication Methods Reference
	// 		"pwd": Password-based Authentication
	//		"otp": One-time Password (TOTP)
	//		"mfa": Multi-factor Auth was used
	AMR []string `json:"amr,omitempty"`
}

// Access describes one access token. A zero TTL means DefaultAccessTokenTTL.
type Access struct {
	Subject  string // login identifier
	Session  string
	AMR      []string
	Issuer   string
	Audience []string
	IssuedAt time.Time
	TTL      time.Duration
}

// Claims stamps the registered claims. The jti is a ULID minted at IssuedAt,
// so an injected clock controls every timestamp in the token.
func (a Access) Claims() Claims {
	ttl := a.TTL
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.Issuer,
			Subject:   a.Subject,
			Audience:  jwt.ClaimStrings(a.Audience),
			IssuedAt:  jwt.NewNumericDate(a.IssuedAt),
			NotBefore: jwt.NewNumericDate(a.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(a.IssuedAt.Add(ttl)),
			ID:        idx.NewAt(a.IssuedAt),
		},
		SID: a.Session,
		AMR: a.AMR,
	}
}

// HasAMR reports whether the token was issued for the given method.
func (c *Claims) HasAMR(method string) bool {
	return slices.Contains(c.AMR, method)
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf
// at the given instant, allowing leeway either side for clock skew.
func (c *Claims) ValidateExpiry(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
