package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/twofa/internal/twofa/service"
	"github.com/aussiebroadwan/twofa/pkg/authsdk"
	"github.com/aussiebroadwan/twofa/pkg/httpx"
	"github.com/aussiebroadwan/twofa/pkg/slogx"
	"github.com/aussiebroadwan/twofa/pkg/validatex"
)

// writeServiceError maps hard service failures onto API errors. Expected
// outcomes (wrong code, wrong password) never reach here.
func writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	log := slogx.FromContext(ctx)

	switch {
	case errors.Is(err, service.ErrUserNotFound):
		// The token outlived its subject.
		log.Warn("token subject not found", "op", op)
		authsdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		log.Warn("store unavailable", "op", op, "err", err)
		authsdk.ErrTemporarilyUnavailable.WriteError(w)
	case errors.Is(err, service.ErrMalformedSecret):
		log.Error("stored two-factor secret is unusable", "op", op, "err", err)
		authsdk.ErrServerError.WriteError(w)
	default:
		log.Error("request failed", "op", op, "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

// decodeAndValidate reads a JSON body into dst and validates it, writing the
// error response itself. It reports whether the handler should continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validatex.Validator, dst any) bool {
	log := slogx.FromContext(r.Context())

	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		log.Warn("failed to parse request", "err", err)
		authsdk.ErrInvalidRequest.WithDescription("invalid JSON body").WriteError(w)
		return false
	}

	err := v.Struct(dst)
	if err == nil {
		return true
	}

	var fe validatex.FieldErrors
	if errors.As(err, &fe) {
		authsdk.NewValidationError(fe).WriteError(w)
		return false
	}
	log.Error("validation failed", "err", err)
	authsdk.ErrServerError.WriteError(w)
	return false
}
