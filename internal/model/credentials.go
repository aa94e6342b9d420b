package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Credentials is the campus network account used to authenticate against
// the captive portal. It is loaded once at startup and never mutated.
type Credentials struct {
	// Username is the student or staff ID.
	Username string

	// Password is the portal password.
	Password string
}

// Empty reports whether either half of the account is missing.
// Whitespace-only values count as missing.
func (c Credentials) Empty() bool {
	return strings.TrimSpace(c.Username) == "" || strings.TrimSpace(c.Password) == ""
}

// String never prints the password, so Credentials can be passed to
// fmt or slog without leaking it.
func (c Credentials) String() string {
	if c.Username == "" {
		return "<unset>"
	}
	return c.Username + ":***"
}

// Fingerprint returns a short stable identifier for the account.
// The attempt journal stores this instead of the raw username.
func (c Credentials) Fingerprint() string {
	if c.Username == "" {
		return ""
	}
	sum := sha3.Sum256([]byte(c.Username))
	return hex.EncodeToString(sum[:6])
}
