package portal

import "errors"

var (
	// ErrBusy is returned when a login is attempted while another one still
	// owns the browser.
	ErrBusy = errors.New("another login attempt is in progress")

	// ErrVerificationTimeout means the form was submitted but success could
	// not be confirmed. The login may or may not have worked.
	ErrVerificationTimeout = errors.New("login could not be verified")

	// ErrUnexpected wraps a panic recovered during a login attempt.
	ErrUnexpected = errors.New("unexpected error during login")
)
