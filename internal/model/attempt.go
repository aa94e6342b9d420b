package model

import "time"

// Attempt is the record of a single login attempt.
// It is produced by the portal package, consumed by the monitor to decide
// what to notify, and persisted by the attempt journal.
type Attempt struct {
	// ID is the journal row ID. Zero until the attempt is recorded.
	ID int64 `json:"id,omitempty"`

	// StartedAt is when the attempt began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall-clock time the attempt took, including the
	// settle delays and verification pauses.
	Duration time.Duration `json:"duration"`

	// Outcome classifies how the attempt ended.
	Outcome Outcome `json:"outcome"`

	// VerifiedBy names the success signal. Empty for failures.
	VerifiedBy Verification `json:"verified_by,omitempty"`

	// VersionMismatch is set when the browser launch failed because the
	// driver and the installed browser disagree on versions.
	VersionMismatch bool `json:"version_mismatch,omitempty"`

	// ProbeAttempts counts the connectivity probes issued during
	// post-submission verification.
	ProbeAttempts int `json:"probe_attempts,omitempty"`

	// DriverSource names the acquisition tier that produced the browser
	// binary (auto-update, cache, search-path).
	DriverSource string `json:"driver_source,omitempty"`

	// Account is the credentials fingerprint, never the raw username.
	Account string `json:"account,omitempty"`

	// Err is the failure cause. It is not serialized; ErrorMessage is.
	Err error `json:"-"`

	// ErrorMessage is Err rendered as text.
	ErrorMessage string `json:"error,omitempty"`
}

// NewAttempt starts a record for the given account.
func NewAttempt(creds Credentials, now time.Time) *Attempt {
	return &Attempt{
		StartedAt: now,
		Account:   creds.Fingerprint(),
	}
}

// Fail marks the attempt failed with the given outcome and cause.
func (a *Attempt) Fail(outcome Outcome, err error) {
	a.Outcome = outcome
	a.VerifiedBy = VerifiedNone
	a.Err = err
	if err != nil {
		a.ErrorMessage = err.Error()
	}
}

// Succeed marks the attempt successful, verified by the given signal.
func (a *Attempt) Succeed(by Verification) {
	a.Outcome = OutcomeSuccess
	a.VerifiedBy = by
	a.Err = nil
	a.ErrorMessage = ""
}

// Succeeded reports whether the attempt ended in success.
func (a *Attempt) Succeeded() bool {
	return a.Outcome.Succeeded()
}
