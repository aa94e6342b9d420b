package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Title is the title of every notification.
const Title = "HITSZ Net"

// Notification messages.
const (
	MsgNetworkLost          = "Network lost. Attempting login..."
	MsgLoginSucceeded       = "Login successful. You are back online."
	MsgLoginFailed          = "Login failed. Will retry."
	MsgDriverMismatch       = "Driver Mismatch! Check logs."
	MsgConfigureCredentials = "Please configure credentials"
	MsgMissingCredentials   = "Configuration error: Missing credentials"
)

// runTimeout bounds a single notification command.
const runTimeout = 5 * time.Second

// Notifier sends fire-and-forget notifications.
// Implementations never return errors; failures are logged.
type Notifier interface {
	Notify(ctx context.Context, title, message string)
}

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec // Fixed notification tools
}

// Desktop shows notifications through the platform's notification tool:
// osascript on macOS and notify-send on Linux. Other platforms are a no-op.
type Desktop struct {
	goos     string
	run      Runner
	lookPath func(string) (string, error)
	logger   *slog.Logger
}

// Option configures a Desktop notifier.
type Option func(*Desktop)

// WithGOOS overrides the detected platform.
func WithGOOS(goos string) Option {
	return func(d *Desktop) {
		d.goos = goos
	}
}

// WithRunner replaces the command runner.
func WithRunner(run Runner) Option {
	return func(d *Desktop) {
		d.run = run
	}
}

// WithLookPath replaces exec.LookPath.
func WithLookPath(lookPath func(string) (string, error)) Option {
	return func(d *Desktop) {
		d.lookPath = lookPath
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Desktop) {
		d.logger = logger
	}
}

// NewDesktop creates a Desktop notifier for the current platform.
func NewDesktop(opts ...Option) *Desktop {
	d := &Desktop{
		goos:     runtime.GOOS,
		run:      ExecRunner,
		lookPath: exec.LookPath,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify implements Notifier.
func (d *Desktop) Notify(ctx context.Context, title, message string) {
	name, args, ok := d.command(title, message)
	if !ok {
		return
	}

	if _, err := d.lookPath(name); err != nil {
		d.logger.Debug("notification tool not available", "tool", name, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	if out, err := d.run(ctx, name, args...); err != nil {
		d.logger.Error("failed to send notification",
			"error", err,
			"output", strings.TrimSpace(string(out)),
		)
	}
}

// command returns the notification command for the platform.
func (d *Desktop) command(title, message string) (string, []string, bool) {
	switch d.goos {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s",
			appleScriptString(message), appleScriptString(title))
		return "osascript", []string{"-e", script}, true
	case "linux":
		return "notify-send", []string{"--app-name=hitsz-autonet", title, message}, true
	default:
		return "", nil, false
	}
}

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// Discard is a Notifier that drops every notification.
type Discard struct{}

// Notify implements Notifier.
func (Discard) Notify(context.Context, string, string) {}
