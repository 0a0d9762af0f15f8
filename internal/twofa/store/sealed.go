package store

import (
	"fmt"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/pkg/cryptox"
)

// SealedState is the at-rest form of a domain.TwoFactorState used by the
// persistent drivers. Secret fields hold cryptox sealed values and are empty
// when the phase carries no such value.
type SealedState struct {
	Phase      string
	TempSecret string
	URI        string
	Secret     string
}

// Each field gets its own scope so sealed values cannot be swapped between
// users or between fields.
func sealScope(identifier, field string) string {
	return "twofa:" + field + ":" + identifier
}

func sealField(identifier, field, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	sealed, err := cryptox.SealSecret(value, sealScope(identifier, field))
	if err != nil {
		return "", fmt.Errorf("seal %s: %w", field, err)
	}
	return sealed, nil
}

func openField(identifier, field, sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	value, err := cryptox.OpenSecret(sealed, sealScope(identifier, field))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", field, err)
	}
	return value, nil
}

// SealState validates s and seals its secret material for identifier.
func SealState(identifier string, s domain.TwoFactorState) (SealedState, error) {
	if err := s.Validate(); err != nil {
		return SealedState{}, err
	}

	out := SealedState{Phase: s.Phase().String()}
	var err error
	if out.TempSecret, err = sealField(identifier, "temp_secret", s.TempSecret()); err != nil {
		return SealedState{}, err
	}
	if out.URI, err = sealField(identifier, "uri", s.ProvisioningURI()); err != nil {
		return SealedState{}, err
	}
	if out.Secret, err = sealField(identifier, "secret", s.Secret()); err != nil {
		return SealedState{}, err
	}
	return out, nil
}

// OpenState rebuilds the tagged variant from its sealed form. Rows whose
// fields do not match their phase are rejected with domain.ErrInconsistentState
// rather than silently repaired.
func OpenState(identifier string, in SealedState) (domain.TwoFactorState, error) {
	phase, err := domain.ParsePhase(in.Phase)
	if err != nil {
		return domain.TwoFactorState{}, err
	}

	tempSecret, err := openField(identifier, "temp_secret", in.TempSecret)
	if err != nil {
		return domain.TwoFactorState{}, err
	}
	uri, err := openField(identifier, "uri", in.URI)
	if err != nil {
		return domain.TwoFactorState{}, err
	}
	secret, err := openField(identifier, "secret", in.Secret)
	if err != nil {
		return domain.TwoFactorState{}, err
	}

	var state domain.TwoFactorState
	switch phase {
	case domain.PhasePending:
		if secret != "" {
			return domain.TwoFactorState{}, fmt.Errorf("%w: pending row holds a secret", domain.ErrInconsistentState)
		}
		state = domain.Pending(tempSecret, uri)
	case domain.PhaseEnabled:
		if tempSecret != "" || uri != "" {
			return domain.TwoFactorState{}, fmt.Errorf("%w: enabled row holds a temp secret", domain.ErrInconsistentState)
		}
		state = domain.Enabled(secret)
	default:
		if tempSecret != "" || uri != "" || secret != "" {
			return domain.TwoFactorState{}, fmt.Errorf("%w: disabled row holds secret material", domain.ErrInconsistentState)
		}
		state = domain.Disabled()
	}

	if err := state.Validate(); err != nil {
		return domain.TwoFactorState{}, err
	}
	return state, nil
}
