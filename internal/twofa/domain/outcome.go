package domain

// Status is the redacted two-factor view handed to external callers.
type Status struct {
	Phase      Phase
	Configured bool // enabled and usable at login
	Pending    bool // setup started, not confirmed
}

// SetupResult is returned once, from the setup call only. QRPayload is the
// raw content an external collaborator renders as a QR image.
type SetupResult struct {
	ProvisioningURI string
	QRPayload       string
}

type ConfirmOutcome int

const (
	ConfirmEnabled       ConfirmOutcome = iota // code matched, two-factor is enabled
	ConfirmInvalidCode                         // code rejected, state unchanged
	ConfirmNotConfigured                       // nothing to confirm (disabled)
)

func (o ConfirmOutcome) String() string {
	switch o {
	case ConfirmEnabled:
		return "enabled"
	case ConfirmInvalidCode:
		return "invalid_code"
	case ConfirmNotConfigured:
		return "not_configured"
	default:
		return "unknown"
	}
}

type LoginOutcome int

const (
	LoginSuccess LoginOutcome = iota
	LoginInvalidCredentials
	LoginOTPRequired
	LoginInvalidOTP
)

func (o LoginOutcome) String() string {
	switch o {
	case LoginSuccess:
		return "success"
	case LoginInvalidCredentials:
		return "invalid_credentials"
	case LoginOTPRequired:
		return "otp_required"
	case LoginInvalidOTP:
		return "invalid_otp"
	default:
		return "unknown"
	}
}

// Authentication Method References carried into issued tokens.
const (
	AMRPassword = "pwd"
	AMROTP      = "otp"
	AMRMFA      = "mfa"
)

type LoginResult struct {
	Outcome    LoginOutcome
	Identifier string   // set on LoginSuccess only
	AMR        []string // set on LoginSuccess only
}
