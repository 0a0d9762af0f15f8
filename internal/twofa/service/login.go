package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/internal/twofa/otpauth"
	"github.com/aussiebroadwan/twofa/internal/twofa/store"
	"github.com/aussiebroadwan/twofa/pkg/clock"
	"github.com/aussiebroadwan/twofa/pkg/cryptox"
)

type LoginService struct {
	Store    store.Store
	Verifier *otpauth.Verifier
	Clock    clock.Clock
}

// Login decides the outcome of a sign-in attempt. The primary credential is
// always checked first; nothing about the second factor is disclosed to a
// caller that fails it. An empty otp counts as not supplied.
func (s *LoginService) Login(ctx context.Context, identifier, password, otp string) (domain.LoginResult, error) {
	res := domain.LoginResult{Outcome: domain.LoginInvalidCredentials}

	u, err := s.Store.Users().GetUser(ctx, identifier)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if err := cryptox.VerifyDummyPassword(password); err != nil && !errors.Is(err, cryptox.ErrPasswordMismatch) {
			return res, fmt.Errorf("verify password: %w", err)
		}
		return res, nil
	case err != nil:
		return res, mapStoreErr(err)
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return res, nil
		}
		return res, fmt.Errorf("verify password: %w", err)
	}

	res.Identifier = u.Identifier
	if !u.TwoFactor.IsEnabled() {
		res.Outcome = domain.LoginSuccess
		res.AMR = []string{domain.AMRPassword}
		return res, nil
	}

	otp = strings.TrimSpace(otp)
	if otp == "" {
		res.Outcome = domain.LoginOTPRequired
		return res, nil
	}

	ok, err := s.Verifier.Check(u.TwoFactor.Secret(), otp, s.Clock.Now())
	if errors.Is(err, otpauth.ErrMalformedSecret) {
		return domain.LoginResult{Outcome: domain.LoginInvalidCredentials}, fmt.Errorf("%w: %w", ErrMalformedSecret, err)
	}
	if !ok {
		res.Outcome = domain.LoginInvalidOTP
		return res, nil
	}

	res.Outcome = domain.LoginSuccess
	res.AMR = []string{domain.AMRPassword, domain.AMROTP, domain.AMRMFA}
	return res, nil
}
