package http

import (
	"net/http"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/internal/twofa/metrics"
	"github.com/aussiebroadwan/twofa/internal/twofa/service"
	"github.com/aussiebroadwan/twofa/pkg/authsdk"
	"github.com/aussiebroadwan/twofa/pkg/httpx"
	"github.com/aussiebroadwan/twofa/pkg/qrx"
	"github.com/aussiebroadwan/twofa/pkg/slogx"
	"github.com/aussiebroadwan/twofa/pkg/validatex"
)

// TwoFactorHandler serves the setup lifecycle for the authenticated user.
type TwoFactorHandler struct {
	TwoFactorService *service.TwoFactorService
	Validator        *validatex.Validator
	Metrics          *metrics.Metrics
}

// HandleSetup handles POST /2fa/setup
//
//	@Summary		Begin two-factor setup
//	@Description	Generates a new pending secret and returns its provisioning URI and a QR code of it. Any enabled secret is discarded immediately.
//	@Tags			Two-Factor
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.SetupResponse	"Provisioning data"
//	@Failure		401	{object}	authsdk.APIError		"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.APIError		"Internal server error"
//	@Failure		503	{object}	authsdk.APIError		"Store temporarily unavailable"
//	@Router			/2fa/setup [post].
func (h *TwoFactorHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserID(ctx)

	res, err := h.TwoFactorService.BeginSetup(ctx, userID)
	if err != nil {
		h.Metrics.TwoFactorOps.WithLabelValues(metrics.OpSetup, metrics.OutcomeError).Inc()
		writeServiceError(ctx, w, metrics.OpSetup, err)
		return
	}
	h.Metrics.TwoFactorOps.WithLabelValues(metrics.OpSetup, domain.PhasePending.String()).Inc()

	// The URI alone is enough to finish setup, so a QR failure is not fatal.
	dataURL, err := qrx.DataURI(res.QRPayload, qrx.DefaultSize)
	if err != nil {
		log.Warn("failed to render QR code", "err", err)
	}

	log.Info("two-factor setup started")
	httpx.WriteJSON(w, http.StatusOK, authsdk.SetupResponse{
		Message: "scan the QR code with an authenticator app, then confirm with a code from it",
		OTPURL:  res.ProvisioningURI,
		DataURL: dataURL,
	})
}

// HandleVerify handles POST /2fa/verify
//
//	@Summary		Confirm two-factor setup
//	@Description	Checks a code against the pending secret and enables two-factor authentication on a match. On an enabled account the code is checked against the enabled secret.
//	@Tags			Two-Factor
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyRequest	true	"Code from the authenticator app"
//	@Success		200		{object}	authsdk.VerifyResponse	"Enabled"
//	@Failure		400		{object}	authsdk.APIError		"invalid_code, not_configured or invalid request"
//	@Failure		401		{object}	authsdk.APIError		"Invalid or missing access token"
//	@Failure		500		{object}	authsdk.APIError		"Internal server error"
//	@Failure		503		{object}	authsdk.APIError		"Store temporarily unavailable"
//	@Router			/2fa/verify [post].
func (h *TwoFactorHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserID(ctx)

	var req authsdk.VerifyRequest
	if !decodeAndValidate(w, r, h.Validator, &req) {
		return
	}

	out, err := h.TwoFactorService.ConfirmSetup(ctx, userID, req.OTP())
	if err != nil {
		h.Metrics.TwoFactorOps.WithLabelValues(metrics.OpConfirm, metrics.OutcomeError).Inc()
		writeServiceError(ctx, w, metrics.OpConfirm, err)
		return
	}
	h.Metrics.TwoFactorOps.WithLabelValues(metrics.OpConfirm, out.String()).Inc()

	switch out {
	case domain.ConfirmEnabled:
		log.Info("two-factor confirmed")
		httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyResponse{
			Message: "two-factor authentication enabled",
			Status:  domain.PhaseEnabled.String(),
		})
	case domain.ConfirmNotConfigured:
		authsdk.ErrSetupNotStarted.WriteError(w)
	default:
		log.Info("two-factor confirmation rejected")
		authsdk.ErrInvalidCode.WriteError(w)
	}
}

// HandleStatus handles GET /2fa/setup
//
//	@Summary		Two-factor status
//	@Description	Returns whether two-factor authentication is pending or enabled. Secrets are never returned.
//	@Tags			Two-Factor
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.StatusResponse	"Pending or enabled"
//	@Failure		401	{object}	authsdk.APIError		"Invalid or missing access token"
//	@Failure		404	{object}	authsdk.APIError		"not_configured"
//	@Failure		503	{object}	authsdk.APIError		"Store temporarily unavailable"
//	@Router			/2fa/setup [get].
func (h *TwoFactorHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserID(ctx)

	status, err := h.TwoFactorService.CurrentStatus(ctx, userID)
	if err != nil {
		h.Metrics.TwoFactorOps.WithLabelValues(metrics.OpStatus, metrics.OutcomeError).Inc()
		writeServiceError(ctx, w, metrics.OpStatus, err)
		return
	}
	h.Metrics.TwoFactorOps.WithLabelValues(metrics.OpStatus, status.Phase.String()).Inc()

	if status.Phase == domain.PhaseDisabled {
		authsdk.ErrNotConfigured.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.StatusResponse{
		Status:     status.Phase.String(),
		Configured: status.Configured,
		Pending:    status.Pending,
	})
}

// HandleDisable handles DELETE /2fa/setup
//
//	@Summary		Disable two-factor authentication
//	@Description	Discards all secret material. Succeeds whatever the current state.
//	@Tags			Two-Factor
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse	"Disabled"
//	@Failure		401	{object}	authsdk.APIError		"Invalid or missing access token"
//	@Failure		503	{object}	authsdk.APIError		"Store temporarily unavailable"
//	@Router			/2fa/setup [delete].
func (h *TwoFactorHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserID(ctx)

	if err := h.TwoFactorService.Disable(ctx, userID); err != nil {
		h.Metrics.TwoFactorOps.WithLabelValues(metrics.OpDisable, metrics.OutcomeError).Inc()
		writeServiceError(ctx, w, metrics.OpDisable, err)
		return
	}
	h.Metrics.TwoFactorOps.WithLabelValues(metrics.OpDisable, domain.PhaseDisabled.String()).Inc()

	slogx.FromContext(ctx).Info("two-factor disabled")
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Message: "two-factor authentication disabled",
	})
}
