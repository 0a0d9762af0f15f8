package authsdk

import (
	"github.com/aussiebroadwan/twofa/pkg/jwtx"
)

// ============================================================================
// Login Types
// ============================================================================

// LoginRequest is the body of POST /login. The one-time password travels in
// the X-OTP header, not here. Email is accepted as an alias of Identifier.
type LoginRequest struct {
	Identifier string `json:"identifier,omitempty" validate:"required_without=Email,max=254"`
	Email      string `json:"email,omitempty"      validate:"required_without=Identifier,max=254"`
	Password   string `json:"password"             validate:"required,max=1024"`
}

// Login returns whichever of Identifier or Email was supplied.
func (r LoginRequest) Login() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	return r.Email
}

// LoginResponse is returned for 200 (signed in) and 206 (OTP required).
type LoginResponse struct {
	Message string `json:"message"`

	// OTPRequired is set with status 206: resend the request with an X-OTP
	// header.
	OTPRequired bool `json:"otp_required,omitempty"`

	AccessToken string   `json:"access_token,omitempty"`
	TokenType   string   `json:"token_type,omitempty"`
	ExpiresIn   int      `json:"expires_in,omitempty"`
	AMR         []string `json:"amr,omitempty"`
}

// ============================================================================
// Two-Factor Types
// ============================================================================

// SetupResponse is returned by POST /2fa/setup. The secret is only ever
// present inside OTPURL.
type SetupResponse struct {
	Message string `json:"message"`

	// OTPURL is the otpauth:// provisioning URI.
	OTPURL string `json:"otp_url"`

	// DataURL is a PNG QR code of OTPURL as a data URI.
	DataURL string `json:"data_url"`
}

// VerifyRequest is the body of POST /2fa/verify. Code is accepted as an alias
// of Token.
type VerifyRequest struct {
	Token string `json:"token,omitempty" validate:"required_without=Code,max=16"`
	Code  string `json:"code,omitempty"  validate:"required_without=Token,max=16"`
}

// OTP returns whichever of Token or Code was supplied.
func (r VerifyRequest) OTP() string {
	if r.Token != "" {
		return r.Token
	}
	return r.Code
}

type VerifyResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// StatusResponse is the redacted two-factor state returned by GET /2fa/setup.
type StatusResponse struct {
	// Status is "pending" or "enabled".
	Status     string `json:"status"`
	Configured bool   `json:"configured"`
	Pending    bool   `json:"pending"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Store indicates the credential store status
	Store string `json:"store"`

	// Signer indicates the JWT signing capability status
	Signer string `json:"signer"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse contains the public keys that verify access tokens.
type JWKSResponse jwtx.JWKS
