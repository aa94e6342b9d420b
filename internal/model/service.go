package model

import "time"

// ServiceRegistration describes the OS-level background task that keeps the
// monitor running. It is generated by the service installer and rendered
// into a launchd plist or a systemd unit; the monitor never reads it.
type ServiceRegistration struct {
	// Label is the service identifier (launchd label / systemd unit name).
	Label string

	// Program is the absolute path of the hitsz-autonet executable.
	Program string

	// Arguments are passed to Program, e.g. --daemon --config <path>.
	Arguments []string

	// WorkingDirectory is the process working directory.
	WorkingDirectory string

	// Home is exported as HOME for the service process.
	Home string

	// Path is exported as PATH for the service process.
	Path string

	// StdoutPath receives the process standard output.
	StdoutPath string

	// StderrPath receives the process standard error.
	StderrPath string

	// StartInterval asks the service manager to start the program
	// periodically even when it is not running.
	StartInterval time.Duration

	// ThrottleInterval is the minimum time between restarts.
	ThrottleInterval time.Duration
}
