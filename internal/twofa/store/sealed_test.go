package store_test

import (
	"testing"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/internal/twofa/store"
	"github.com/aussiebroadwan/twofa/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestSealOpenState(t *testing.T) {
	t.Setenv(cryptox.MasterKeyEnv, "sealed-state-test-key")
	cryptox.SetMasterKeyPath("")
	t.Cleanup(func() { cryptox.SetMasterKeyPath("") })

	for _, s := range []domain.TwoFactorState{
		domain.Disabled(),
		domain.Pending("TEMPSECRET", "otpauth://totp/x"),
		domain.Enabled("SECRET"),
	} {
		sealed, err := store.SealState("a@example.com", s)
		require.NoError(t, err)
		require.Equal(t, s.Phase().String(), sealed.Phase)
		require.NotContains(t, sealed.TempSecret+sealed.URI+sealed.Secret, "SECRET")

		opened, err := store.OpenState("a@example.com", sealed)
		require.NoError(t, err)
		require.Equal(t, s, opened)

		if s.Phase() != domain.PhaseDisabled {
			_, err = store.OpenState("b@example.com", sealed)
			require.ErrorIs(t, err, cryptox.ErrSealedSecret, "sealed values are bound to their user")
		}
	}
}

func TestOpenStateRejectsStrayFields(t *testing.T) {
	t.Setenv(cryptox.MasterKeyEnv, "sealed-state-test-key")
	cryptox.SetMasterKeyPath("")
	t.Cleanup(func() { cryptox.SetMasterKeyPath("") })

	pending, err := store.SealState("a@example.com", domain.Pending("TEMP", "uri"))
	require.NoError(t, err)
	enabled, err := store.SealState("a@example.com", domain.Enabled("SECRET"))
	require.NoError(t, err)

	tests := []struct {
		name string
		in   store.SealedState
	}{
		{"enabled with temp secret", store.SealedState{Phase: "enabled", TempSecret: pending.TempSecret, Secret: enabled.Secret}},
		{"disabled with secret", store.SealedState{Phase: "disabled", Secret: enabled.Secret}},
		{"pending with secret", store.SealedState{Phase: "pending", TempSecret: pending.TempSecret, Secret: enabled.Secret}},
		{"enabled without secret", store.SealedState{Phase: "enabled"}},
		{"unknown phase", store.SealedState{Phase: "half-enabled"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.OpenState("a@example.com", tt.in)
			require.ErrorIs(t, err, domain.ErrInconsistentState)
		})
	}
}
