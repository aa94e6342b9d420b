package browser

import (
	"errors"
	"fmt"
	"strings"
)

// Browser session errors.
// Callers map these to login outcomes with errors.Is; the underlying cause
// from the launcher or the DevTools connection stays wrapped.
var (
	// ErrDriverUnavailable is returned when every acquisition strategy failed
	// to produce a browser binary. This is the only condition under which
	// acquisition itself fails.
	ErrDriverUnavailable = errors.New("browser driver unavailable")

	// ErrLaunch is returned when a binary was found but the browser process
	// could not be started or connected to.
	ErrLaunch = errors.New("failed to launch browser")

	// ErrVersionMismatch is returned when the launch failure message says the
	// driver and the installed browser disagree on versions. It always comes
	// wrapped together with ErrLaunch.
	ErrVersionMismatch = errors.New("browser driver version mismatch")

	// ErrHandleReleased is returned by Handle methods after Close.
	ErrHandleReleased = errors.New("browser handle already released")
)

// IsVersionMismatch reports whether err is a launch failure caused by a
// driver/browser version mismatch.
func IsVersionMismatch(err error) bool {
	return errors.Is(err, ErrVersionMismatch)
}

// classifyLaunchError wraps a launch or connect failure. When the message
// contains marker the error also matches ErrVersionMismatch.
func classifyLaunchError(err error, marker string) error {
	if err == nil {
		return nil
	}
	if marker != "" && strings.Contains(err.Error(), marker) {
		return fmt.Errorf("%w: %w: %w", ErrLaunch, ErrVersionMismatch, err)
	}
	return fmt.Errorf("%w: %w", ErrLaunch, err)
}
