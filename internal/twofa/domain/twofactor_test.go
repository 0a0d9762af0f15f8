package domain_test

import (
	"testing"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/stretchr/testify/require"
)

func TestTwoFactorState_Constructors(t *testing.T) {
	d := domain.Disabled()
	require.Equal(t, domain.PhaseDisabled, d.Phase())
	require.Empty(t, d.TempSecret())
	require.Empty(t, d.Secret())
	require.NoError(t, d.Validate())

	p := domain.Pending("JBSWY3DPEHPK3PXP", "otpauth://totp/x")
	require.Equal(t, domain.PhasePending, p.Phase())
	require.Equal(t, "JBSWY3DPEHPK3PXP", p.TempSecret())
	require.Empty(t, p.Secret())
	require.NoError(t, p.Validate())

	e := domain.Enabled("JBSWY3DPEHPK3PXP")
	require.True(t, e.IsEnabled())
	require.Empty(t, e.TempSecret())
	require.Empty(t, e.ProvisioningURI())
	require.NoError(t, e.Validate())
}

func TestTwoFactorState_Promote(t *testing.T) {
	p := domain.Pending("TEMPSECRET", "otpauth://totp/x")
	e := p.Promote()
	require.Equal(t, domain.PhaseEnabled, e.Phase())
	require.Equal(t, "TEMPSECRET", e.Secret())
	require.Empty(t, e.TempSecret())
	require.NoError(t, e.Validate())

	// Promote is a no-op outside the pending phase.
	require.Equal(t, domain.Disabled(), domain.Disabled().Promote())
	require.Equal(t, domain.Enabled("S"), domain.Enabled("S").Promote())
}

func TestTwoFactorState_ValidateRejectsBrokenShapes(t *testing.T) {
	tests := []struct {
		name  string
		state domain.TwoFactorState
	}{
		{"pending without secret", domain.Pending("", "otpauth://totp/x")},
		{"enabled without secret", domain.Enabled("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.state.Validate(), domain.ErrInconsistentState)
		})
	}
}

func TestTwoFactorState_Redact(t *testing.T) {
	require.Equal(t, domain.Status{Phase: domain.PhaseDisabled}, domain.Disabled().Redact())
	require.Equal(t, domain.Status{Phase: domain.PhasePending, Pending: true},
		domain.Pending("S", "u").Redact())
	require.Equal(t, domain.Status{Phase: domain.PhaseEnabled, Configured: true},
		domain.Enabled("S").Redact())

	// Secrets never leak through fmt.
	require.Equal(t, "enabled", domain.Enabled("SUPERSECRET").String())
}

func TestParsePhase(t *testing.T) {
	for _, p := range []domain.Phase{domain.PhaseDisabled, domain.PhasePending, domain.PhaseEnabled} {
		got, err := domain.ParsePhase(p.String())
		require.NoError(t, err)
		require.Equal(t, p, got)
	}

	_, err := domain.ParsePhase("bogus")
	require.ErrorIs(t, err, domain.ErrInconsistentState)
}
