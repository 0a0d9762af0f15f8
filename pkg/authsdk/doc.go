/*
Package authsdk is a client for the two-factor authentication service, and the
home of the request, response and error types the service writes.

# Signing In

	client := authsdk.NewClient("http://localhost:8080")

	res, err := client.Login(ctx, "user@example.com", password, "")
	if err != nil {
		return err
	}
	if res.OTPRequired {
		// Two-factor authentication is on: ask for a code and retry.
		res, err = client.Login(ctx, "user@example.com", password, code)
	}

The one-time password is sent in the X-OTP header. Wrong passwords and unknown
identifiers both fail with ErrInvalidCredentials, and no OTP is ever checked
before the password has been accepted.

# Two-Factor Setup

	setup, err := client.BeginSetup(ctx, res.AccessToken)
	// Render setup.DataURL (a PNG QR code) or hand setup.OTPURL to an
	// authenticator app, then confirm with a code it shows.
	_, err = client.ConfirmSetup(ctx, res.AccessToken, code)

	status, err := client.Status(ctx, res.AccessToken)
	err = client.Disable(ctx, res.AccessToken)

Running BeginSetup again while enabled discards the enabled secret straight
away. Until the new secret is confirmed the account signs in with the password
alone.

# Errors

Non-success responses are returned as *APIError and can be matched against the
predefined values with errors.Is:

	if errors.Is(err, authsdk.ErrNotConfigured) { ... }

ErrTemporarilyUnavailable (503) is the only error worth retrying.
*/
package authsdk
