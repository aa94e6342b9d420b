package service

import "errors"

var (
	// ErrUnsupportedPlatform is returned on platforms without a supported
	// service manager (anything but macOS launchd and Linux systemd).
	ErrUnsupportedPlatform = errors.New("background service is not supported on this platform")

	// ErrProgramNotFound is returned when the executable to register does not exist.
	ErrProgramNotFound = errors.New("program not found")

	// ErrServiceManager is returned when launchctl or systemctl fails.
	ErrServiceManager = errors.New("service manager command failed")
)
