package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/internal/twofa/otpauth"
	"github.com/aussiebroadwan/twofa/internal/twofa/store"
	"github.com/aussiebroadwan/twofa/pkg/clock"
)

// errUnchanged aborts an update without writing.
var errUnchanged = errors.New("unchanged")

// TwoFactorService drives the per-user two-factor lifecycle:
//
//	Disabled --setup--> Pending --confirm ok--> Enabled
//	Pending/Enabled --setup--> Pending (new secret, old one discarded)
//	any --disable--> Disabled
//
// Every transition is a read-modify-write under the store's per-user lock.
type TwoFactorService struct {
	Store     store.Store
	Generator *otpauth.Generator
	Verifier  *otpauth.Verifier
	Clock     clock.Clock
}

// BeginSetup provisions a new pending secret. Re-running it while enabled
// discards the enabled secret immediately: until the new one is confirmed the
// user has no usable second factor and logs in with the password alone.
func (s *TwoFactorService) BeginSetup(ctx context.Context, identifier string) (domain.SetupResult, error) {
	key, err := s.Generator.Generate(identifier)
	if err != nil {
		return domain.SetupResult{}, fmt.Errorf("generate secret: %w", err)
	}

	_, err = s.Store.Users().UpdateTwoFactorState(ctx, identifier, func(domain.TwoFactorState) (domain.TwoFactorState, error) {
		return domain.Pending(key.Secret, key.URL), nil
	})
	if err != nil {
		return domain.SetupResult{}, mapStoreErr(err)
	}

	return domain.SetupResult{
		ProvisioningURI: key.URL,
		QRPayload:       key.URL,
	}, nil
}

// ConfirmSetup checks code against the pending secret and promotes it on a
// match. On an already enabled user the code is checked against the enabled
// secret, so replaying the confirming code succeeds only while it is still
// inside the verification window.
func (s *TwoFactorService) ConfirmSetup(ctx context.Context, identifier, code string) (domain.ConfirmOutcome, error) {
	code = strings.TrimSpace(code)
	now := s.Clock.Now()
	outcome := domain.ConfirmInvalidCode

	_, err := s.Store.Users().UpdateTwoFactorState(ctx, identifier, func(cur domain.TwoFactorState) (domain.TwoFactorState, error) {
		switch cur.Phase() {
		case domain.PhasePending:
			ok, err := s.check(cur.TempSecret(), code, now)
			if err != nil {
				return cur, err
			}
			if !ok {
				return cur, errUnchanged
			}
			outcome = domain.ConfirmEnabled
			return cur.Promote(), nil

		case domain.PhaseEnabled:
			ok, err := s.check(cur.Secret(), code, now)
			if err != nil {
				return cur, err
			}
			if ok {
				outcome = domain.ConfirmEnabled
			}
			return cur, errUnchanged

		default:
			outcome = domain.ConfirmNotConfigured
			return cur, errUnchanged
		}
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return domain.ConfirmInvalidCode, mapStoreErr(err)
	}
	return outcome, nil
}

// CurrentStatus returns the redacted view. Secrets never leave the service.
func (s *TwoFactorService) CurrentStatus(ctx context.Context, identifier string) (domain.Status, error) {
	u, err := s.Store.Users().GetUser(ctx, identifier)
	if err != nil {
		return domain.Status{}, mapStoreErr(err)
	}
	return u.TwoFactor.Redact(), nil
}

// Disable discards all secret material. Idempotent.
func (s *TwoFactorService) Disable(ctx context.Context, identifier string) error {
	return mapStoreErr(s.Store.Users().ReplaceTwoFactorState(ctx, identifier, domain.Disabled()))
}

// check folds malformed codes into a plain mismatch and reports malformed
// secrets as a hard error.
func (s *TwoFactorService) check(secret, code string, now time.Time) (bool, error) {
	ok, err := s.Verifier.Check(secret, code, now)
	switch {
	case errors.Is(err, otpauth.ErrMalformedSecret):
		return false, fmt.Errorf("%w: %w", ErrMalformedSecret, err)
	case err != nil:
		return false, nil
	}
	return ok, nil
}
