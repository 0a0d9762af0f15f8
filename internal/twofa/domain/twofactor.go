package domain

import (
	"errors"
	"fmt"
)

// Phase is the discriminant of TwoFactorState.
type Phase int

const (
	PhaseDisabled Phase = iota // no secret material held
	PhasePending               // temp secret generated, awaiting confirmation
	PhaseEnabled               // confirmed secret usable at login
)

var ErrInconsistentState = errors.New("domain: inconsistent two-factor state")

func (p Phase) String() string {
	switch p {
	case PhaseDisabled:
		return "disabled"
	case PhasePending:
		return "pending"
	case PhaseEnabled:
		return "enabled"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ParsePhase is the inverse of Phase.String.
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "disabled", "":
		return PhaseDisabled, nil
	case "pending":
		return PhasePending, nil
	case "enabled":
		return PhaseEnabled, nil
	default:
		return PhaseDisabled, fmt.Errorf("%w: unknown phase %q", ErrInconsistentState, s)
	}
}

// TwoFactorState is a tagged variant: Disabled, Pending{tempSecret, uri} or
// Enabled{secret}. Fields are unexported so a value can only be built through
// the constructors below, which keeps tempSecret and secret mutually exclusive.
type TwoFactorState struct {
	phase      Phase
	tempSecret string
	uri        string
	secret     string
}

func Disabled() TwoFactorState {
	return TwoFactorState{phase: PhaseDisabled}
}

func Pending(tempSecret, provisioningURI string) TwoFactorState {
	return TwoFactorState{phase: PhasePending, tempSecret: tempSecret, uri: provisioningURI}
}

func Enabled(secret string) TwoFactorState {
	return TwoFactorState{phase: PhaseEnabled, secret: secret}
}

func (s TwoFactorState) Phase() Phase { return s.phase }

// TempSecret is only meaningful while pending.
func (s TwoFactorState) TempSecret() string { return s.tempSecret }

// ProvisioningURI is only meaningful while pending.
func (s TwoFactorState) ProvisioningURI() string { return s.uri }

// Secret is only meaningful while enabled.
func (s TwoFactorState) Secret() string { return s.secret }

func (s TwoFactorState) IsEnabled() bool { return s.phase == PhaseEnabled }

// Promote turns a pending state into an enabled one holding the former temp
// secret. Any other phase is returned unchanged.
func (s TwoFactorState) Promote() TwoFactorState {
	if s.phase != PhasePending {
		return s
	}
	return Enabled(s.tempSecret)
}

// Validate reports whether s is one of the three legal shapes. Drivers call it
// after rebuilding a state from storage.
func (s TwoFactorState) Validate() error {
	switch s.phase {
	case PhaseDisabled:
		if s.tempSecret != "" || s.secret != "" || s.uri != "" {
			return fmt.Errorf("%w: disabled state holds secret material", ErrInconsistentState)
		}
	case PhasePending:
		if s.tempSecret == "" || s.secret != "" {
			return fmt.Errorf("%w: pending state must hold only a temp secret", ErrInconsistentState)
		}
	case PhaseEnabled:
		if s.secret == "" || s.tempSecret != "" || s.uri != "" {
			return fmt.Errorf("%w: enabled state must hold only a secret", ErrInconsistentState)
		}
	default:
		return fmt.Errorf("%w: unknown phase %d", ErrInconsistentState, int(s.phase))
	}
	return nil
}

// Redact returns the externally visible view of s.
func (s TwoFactorState) Redact() Status {
	return Status{
		Phase:      s.phase,
		Configured: s.phase == PhaseEnabled,
		Pending:    s.phase == PhasePending,
	}
}

// String never includes secret material.
func (s TwoFactorState) String() string { return s.phase.String() }
