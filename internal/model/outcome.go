package model

import "fmt"

// Outcome classifies how a login attempt ended.
// Only OutcomeSuccess means the network is usable; every other value is a
// failure and only changes what the monitor logs and notifies.
type Outcome int

const (
	// OutcomeSuccess means the login was verified, either by the portal's
	// own status object or by an independent connectivity probe.
	OutcomeSuccess Outcome = iota

	// OutcomeMissingCredentials means the attempt was refused before any
	// browser was launched because the username or password is empty.
	OutcomeMissingCredentials

	// OutcomeDriverError means no browser session could be acquired:
	// every acquisition tier failed, or the browser failed to launch.
	OutcomeDriverError

	// OutcomeNavigationError means the portal page could not be loaded.
	OutcomeNavigationError

	// OutcomeFormError means the login form could not be filled or submitted.
	OutcomeFormError

	// OutcomeVerificationTimeout means the form was submitted but neither
	// the portal status nor the connectivity probe confirmed success.
	// Whether the login actually worked is unknown.
	OutcomeVerificationTimeout

	// OutcomeUnexpectedError means the attempt was aborted by an
	// unclassified failure.
	OutcomeUnexpectedError
)

// outcomeNames holds the stable identifiers used in logs and the journal.
var outcomeNames = map[Outcome]string{
	OutcomeSuccess:             "success",
	OutcomeMissingCredentials:  "missing-credentials",
	OutcomeDriverError:         "driver-error",
	OutcomeNavigationError:     "navigation-error",
	OutcomeFormError:           "form-error",
	OutcomeVerificationTimeout: "verification-timeout",
	OutcomeUnexpectedError:     "unexpected-error",
}

// String returns the stable identifier of the outcome.
func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Succeeded reports whether the outcome means the network is usable.
func (o Outcome) Succeeded() bool {
	return o == OutcomeSuccess
}

// ParseOutcome converts an identifier produced by String back to an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	for o, name := range outcomeNames {
		if name == s {
			return o, nil
		}
	}
	return OutcomeUnexpectedError, fmt.Errorf("unknown outcome %q", s)
}

// MarshalText encodes the outcome by its identifier.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an identifier produced by MarshalText.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Outcomes returns every outcome in declaration order.
func Outcomes() []Outcome {
	return []Outcome{
		OutcomeSuccess,
		OutcomeMissingCredentials,
		OutcomeDriverError,
		OutcomeNavigationError,
		OutcomeFormError,
		OutcomeVerificationTimeout,
		OutcomeUnexpectedError,
	}
}

// Verification names the signal that confirmed a successful login.
type Verification string

const (
	// VerifiedNone is used for failed attempts.
	VerifiedNone Verification = ""

	// VerifiedAlreadyAuthenticated means the portal reported success before
	// any credentials were submitted.
	VerifiedAlreadyAuthenticated Verification = "already-authenticated"

	// VerifiedPageStatus means the portal reported success after submission.
	VerifiedPageStatus Verification = "page-status"

	// VerifiedConnectivity means the connectivity probe succeeded after
	// submission although the portal status was not conclusive.
	VerifiedConnectivity Verification = "connectivity"
)
