// Package otpauth generates TOTP shared secrets and verifies submitted codes
// against them (RFC 6238, HMAC-SHA1, 6 digits, 30 second steps).
package otpauth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	DefaultSecretLength = 20 // bytes, 160 bits
	MinSecretLength     = 16 // bytes, anything shorter is raised to DefaultSecretLength
	DefaultPeriod       = 30 * time.Second
	DefaultSkew         = 1
	DefaultDigits       = otp.DigitsSix
)

var (
	ErrMalformedSecret = errors.New("otpauth: malformed secret")
	ErrMalformedCode   = errors.New("otpauth: malformed code")
)

// Key is a freshly generated shared secret and its provisioning URI.
type Key struct {
	Secret string // base32, no padding
	URL    string // otpauth://totp/<issuer>:<account>?...
}

type Generator struct {
	Issuer       string
	SecretLength int       // bytes of entropy; see MinSecretLength
	Rand         io.Reader // nil means crypto/rand
}

// Generate creates a new random secret for account.
func (g *Generator) Generate(account string) (Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      g.Issuer,
		AccountName: account,
		Period:      uint(DefaultPeriod / time.Second),
		SecretSize:  uint(EffectiveSecretLength(g.SecretLength)),
		Digits:      DefaultDigits,
		Algorithm:   otp.AlgorithmSHA1,
		Rand:        g.Rand,
	})
	if err != nil {
		return Key{}, fmt.Errorf("generate totp key: %w", err)
	}
	return Key{Secret: key.Secret(), URL: key.URL()}, nil
}

// EffectiveSecretLength applies the minimum entropy rule to a configured length.
func EffectiveSecretLength(n int) int {
	if n < MinSecretLength {
		return DefaultSecretLength
	}
	return n
}

// Verifier checks codes against a secret, accepting Skew steps either side of
// the step containing now.
type Verifier struct {
	Period time.Duration
	Skew   uint
	Digits otp.Digits
}

func NewVerifier() *Verifier {
	return &Verifier{Period: DefaultPeriod, Skew: DefaultSkew, Digits: DefaultDigits}
}

func (v *Verifier) opts() totp.ValidateOpts {
	period := v.Period
	if period <= 0 {
		period = DefaultPeriod
	}
	digits := v.Digits
	if digits == 0 {
		digits = DefaultDigits
	}
	return totp.ValidateOpts{
		Period:    uint(period / time.Second),
		Digits:    digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// CodeAt derives the code for secret in the time step containing t.
func (v *Verifier) CodeAt(secret string, t time.Time) (string, error) {
	if secret == "" {
		return "", ErrMalformedSecret
	}
	code, err := totp.GenerateCodeCustom(secret, t, v.opts())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedSecret, err)
	}
	return code, nil
}

// Check reports whether code is valid for secret at now. The error is only
// set for structurally invalid input and is never returned alongside true.
// A bad secret is reported ahead of a bad code, whatever the code holds.
//
// Every step in the window is computed and compared even after a match, so the
// time taken does not depend on which step matched.
func (v *Verifier) Check(secret, code string, now time.Time) (bool, error) {
	opts := v.opts()
	step := time.Duration(opts.Period) * time.Second
	skew := int(v.Skew)

	window := make([]string, 0, 2*skew+1)
	for i := -skew; i <= skew; i++ {
		expected, err := v.CodeAt(secret, now.Add(time.Duration(i)*step))
		if err != nil {
			return false, err
		}
		window = append(window, expected)
	}

	if err := checkCode(code, opts.Digits); err != nil {
		return false, err
	}

	match := 0
	for _, expected := range window {
		match |= subtle.ConstantTimeCompare([]byte(expected), []byte(code))
	}
	return match == 1, nil
}

// Verify is Check without the diagnostic channel.
func (v *Verifier) Verify(secret, code string, now time.Time) bool {
	ok, _ := v.Check(secret, code, now)
	return ok
}

func checkCode(code string, digits otp.Digits) error {
	if len(code) != digits.Length() {
		return ErrMalformedCode
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return ErrMalformedCode
		}
	}
	return nil
}
