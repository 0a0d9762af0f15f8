package service

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/twofa/internal/twofa/otpauth"
	"github.com/aussiebroadwan/twofa/internal/twofa/store"
	"github.com/aussiebroadwan/twofa/pkg/cryptox"
)

// Hard failures. Wrong codes and wrong passwords are outcomes, not errors.
var (
	ErrUserNotFound = errors.New("user not found")

	// ErrMalformedSecret means a stored secret cannot be used. It is a
	// configuration fault and must not be retried.
	ErrMalformedSecret = errors.New("malformed two-factor secret")

	// ErrStoreUnavailable is retryable.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// mapStoreErr translates driver errors into the service taxonomy while
// keeping the original in the chain.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, store.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	case errors.Is(err, cryptox.ErrSealedSecret), errors.Is(err, otpauth.ErrMalformedSecret):
		return fmt.Errorf("%w: %w", ErrMalformedSecret, err)
	default:
		return err
	}
}
