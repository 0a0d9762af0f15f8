package http

import (
	"net/http"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/internal/twofa/metrics"
	"github.com/aussiebroadwan/twofa/internal/twofa/service"
	"github.com/aussiebroadwan/twofa/pkg/authsdk"
	"github.com/aussiebroadwan/twofa/pkg/httpx"
	"github.com/aussiebroadwan/twofa/pkg/slogx"
	"github.com/aussiebroadwan/twofa/pkg/validatex"
)

type LoginHandler struct {
	LoginService *service.LoginService
	TokenService *service.TokenService
	Validator    *validatex.Validator
	Metrics      *metrics.Metrics
}

// ServeHTTP handles POST /login
//
//	@Summary		Sign in
//	@Description	Checks the password first. If two-factor authentication is enabled a one-time password is then required in the X-OTP header; without it the response is 206.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Param			X-OTP	header		string					false	"One-time password"
//	@Success		200		{object}	authsdk.LoginResponse	"Signed in"
//	@Success		206		{object}	authsdk.LoginResponse	"One-time password required"
//	@Failure		400		{object}	authsdk.APIError		"invalid_credentials, invalid_otp or invalid request"
//	@Failure		500		{object}	authsdk.APIError		"Internal server error"
//	@Failure		503		{object}	authsdk.APIError		"Store temporarily unavailable"
//	@Router			/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if !decodeAndValidate(w, r, h.Validator, &req) {
		return
	}

	res, err := h.LoginService.Login(ctx, req.Login(), req.Password, r.Header.Get(authsdk.OTPHeader))
	if err != nil {
		h.Metrics.LoginAttempts.WithLabelValues(metrics.OutcomeError).Inc()
		writeServiceError(ctx, w, "login", err)
		return
	}
	h.Metrics.LoginAttempts.WithLabelValues(res.Outcome.String()).Inc()

	switch res.Outcome {
	case domain.LoginInvalidCredentials:
		log.Info("login rejected", "outcome", res.Outcome.String())
		authsdk.ErrInvalidCredentials.WriteError(w)

	case domain.LoginOTPRequired:
		httpx.WriteJSON(w, http.StatusPartialContent, authsdk.LoginResponse{
			Message:     "one-time password required",
			OTPRequired: true,
		})

	case domain.LoginInvalidOTP:
		log.Info("login rejected", "outcome", res.Outcome.String())
		authsdk.ErrInvalidOTP.WriteError(w)

	case domain.LoginSuccess:
		tok, err := h.TokenService.Issue(res)
		if err != nil {
			log.Error("failed to issue access token", "err", err)
			authsdk.ErrServerError.WriteError(w)
			return
		}
		log.Info("login succeeded", "sid", tok.SessionID, "amr", res.AMR)
		httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
			Message:     "logged in",
			AccessToken: tok.Token,
			TokenType:   "Bearer",
			ExpiresIn:   int(tok.ExpiresIn.Seconds()),
			AMR:         res.AMR,
		})

	default:
		log.Error("unknown login outcome", "outcome", int(res.Outcome))
		authsdk.ErrServerError.WriteError(w)
	}
}
