package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// OTPHeader carries the one-time password on POST /login.
const OTPHeader = "X-OTP"

// Client talks to the two-factor authentication service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client with a 10 second request timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login signs in with a password and, when two-factor authentication is
// enabled, an OTP. An empty otp omits the header; if the account needs one
// the response has OTPRequired set instead of an access token.
func (c *Client) Login(ctx context.Context, identifier, password, otp string) (*LoginResponse, error) {
	var headers map[string]string
	if otp != "" {
		headers = map[string]string{OTPHeader: otp}
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/login", "",
		LoginRequest{Identifier: identifier, Password: password}, headers)
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeJSON(resp, &out, http.StatusOK, http.StatusPartialContent); err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusPartialContent {
		out.OTPRequired = true
	}
	return &out, nil
}

// BeginSetup starts (or restarts) two-factor setup. Any enabled secret is
// discarded immediately.
func (c *Client) BeginSetup(ctx context.Context, accessToken string) (*SetupResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/2fa/setup", accessToken, nil, nil)
	if err != nil {
		return nil, err
	}

	var out SetupResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmSetup submits a code from the authenticator app.
func (c *Client) ConfirmSetup(ctx context.Context, accessToken, code string) (*VerifyResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/2fa/verify", accessToken, VerifyRequest{Token: code}, nil)
	if err != nil {
		return nil, err
	}

	var out VerifyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status returns the redacted two-factor state. It fails with an *APIError
// matching ErrNotConfigured when two-factor authentication is off.
func (c *Client) Status(ctx context.Context, accessToken string) (*StatusResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/2fa/setup", accessToken, nil, nil)
	if err != nil {
		return nil, err
	}

	var out StatusResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Disable turns two-factor authentication off. It is idempotent.
func (c *Client) Disable(ctx context.Context, accessToken string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/2fa/setup", accessToken, nil, nil)
	if err != nil {
		return err
	}

	var out MessageResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// GetJWKS fetches the keys that verify access tokens.
func (c *Client) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/.well-known/jwks.json", "", nil, nil)
	if err != nil {
		return nil, err
	}

	var out JWKSResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
