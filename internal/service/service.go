package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/hitsz-autonet/internal/model"
)

const (
	// Label is the launchd label of the LaunchAgent.
	Label = "com.github.hitsz.autonet"

	// UnitName is the systemd user unit name.
	UnitName = "hitsz-autonet.service"

	// appName names the log directories.
	appName = "hitsz-autonet"

	// servicePath is the PATH exported to the service process.
	servicePath = "/usr/local/bin:/usr/bin:/bin:/usr/sbin:/sbin"

	// startInterval asks launchd to start the monitor periodically.
	startInterval = 60 * time.Second

	// throttleInterval is the minimum time between restarts.
	throttleInterval = 30 * time.Second
)

// launchdPID matches the PID entry of `launchctl list <label>`.
var launchdPID = regexp.MustCompile(`"PID"\s*=\s*(\d+);`)

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec // Fixed service manager tools
}

// Manager installs, removes and inspects the background service.
type Manager struct {
	goos     string
	home     string
	stateDir string
	run      Runner
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithGOOS overrides the detected platform.
func WithGOOS(goos string) Option {
	return func(m *Manager) {
		m.goos = goos
	}
}

// WithHome overrides the user's home directory.
func WithHome(home string) Option {
	return func(m *Manager) {
		m.home = home
	}
}

// WithStateDir overrides the systemd log directory base ($XDG_STATE_HOME).
func WithStateDir(dir string) Option {
	return func(m *Manager) {
		m.stateDir = dir
	}
}

// WithRunner replaces the command runner.
func WithRunner(run Runner) Option {
	return func(m *Manager) {
		m.run = run
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager for the current user and platform.
func NewManager(opts ...Option) *Manager {
	home, err := os.UserHomeDir()
	if err != nil {
		home = xdg.Home
	}

	m := &Manager{
		goos:     runtime.GOOS,
		home:     home,
		stateDir: xdg.StateHome,
		run:      ExecRunner,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// InstallResult describes a completed installation.
type InstallResult struct {
	// DescriptorPath is the written plist or unit file.
	DescriptorPath string

	// LogDir holds the service's stdout and stderr logs.
	LogDir string

	// ConfigMissing is set when the config file did not exist yet.
	// The service is installed anyway.
	ConfigMissing bool
}

// Status describes the installed service.
type Status struct {
	// Installed reports whether the descriptor file exists.
	Installed bool

	// Running reports whether the service manager runs the monitor.
	Running bool

	// PID is the process ID when known, otherwise zero.
	PID int

	// LogDir holds the service's stdout and stderr logs.
	LogDir string
}

// supported returns ErrUnsupportedPlatform unless the platform has a
// service manager.
func (m *Manager) supported() error {
	switch m.goos {
	case "darwin", "linux":
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, m.goos)
	}
}

// DescriptorPath returns the path of the plist or unit file.
func (m *Manager) DescriptorPath() (string, error) {
	if err := m.supported(); err != nil {
		return "", err
	}
	if m.goos == "darwin" {
		return filepath.Join(m.home, "Library", "LaunchAgents", Label+".plist"), nil
	}
	return filepath.Join(m.home, ".config", "systemd", "user", UnitName), nil
}

// LogDir returns the directory of the service's stdout and stderr logs.
func (m *Manager) LogDir() (string, error) {
	if err := m.supported(); err != nil {
		return "", err
	}
	if m.goos == "darwin" {
		return filepath.Join(m.home, "Library", "Logs", appName), nil
	}
	return filepath.Join(m.stateDir, appName), nil
}

// Registration builds the descriptor that runs program as a daemon with
// configPath. Both paths should be absolute.
func (m *Manager) Registration(program, configPath string) (model.ServiceRegistration, error) {
	logDir, err := m.LogDir()
	if err != nil {
		return model.ServiceRegistration{}, err
	}

	label := Label
	if m.goos == "linux" {
		label = UnitName
	}

	return model.ServiceRegistration{
		Label:            label,
		Program:          program,
		Arguments:        []string{"--daemon", "--config", configPath},
		WorkingDirectory: filepath.Dir(program),
		Home:             m.home,
		Path:             servicePath,
		StdoutPath:       filepath.Join(logDir, "service.log"),
		StderrPath:       filepath.Join(logDir, "error.log"),
		StartInterval:    startInterval,
		ThrottleInterval: throttleInterval,
	}, nil
}

// Render returns the descriptor file content for reg.
func (m *Manager) Render(reg model.ServiceRegistration) ([]byte, error) {
	if err := m.supported(); err != nil {
		return nil, err
	}
	if m.goos == "darwin" {
		return render(plist, reg)
	}
	return render(unit, reg)
}

// Install writes the descriptor for program and loads it.
// A missing config file is reported in the result, not as an error.
func (m *Manager) Install(ctx context.Context, program, configPath string) (*InstallResult, error) {
	if err := m.supported(); err != nil {
		return nil, err
	}

	program, err := filepath.Abs(program)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve program path: %w", err)
	}
	if _, err := os.Stat(program); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProgramNotFound, program)
	}

	configPath, err = filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	result := &InstallResult{}
	if _, err := os.Stat(configPath); err != nil {
		m.logger.Warn("config file not found, create it before the service runs", "path", configPath)
		result.ConfigMissing = true
	}

	reg, err := m.Registration(program, configPath)
	if err != nil {
		return nil, err
	}
	content, err := m.Render(reg)
	if err != nil {
		return nil, err
	}

	if result.LogDir, err = m.LogDir(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(result.LogDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if result.DescriptorPath, err = m.DescriptorPath(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(result.DescriptorPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create service directory: %w", err)
	}
	if err := os.WriteFile(result.DescriptorPath, content, 0600); err != nil {
		return nil, fmt.Errorf("failed to write service descriptor: %w", err)
	}
	m.logger.Info("service descriptor written", "path", result.DescriptorPath)

	if err := m.load(ctx, result.DescriptorPath); err != nil {
		return nil, err
	}
	m.logger.Info("service loaded", "label", reg.Label)
	return result, nil
}

// load hands the descriptor to the service manager, replacing a loaded copy.
func (m *Manager) load(ctx context.Context, descriptor string) error {
	if m.goos == "darwin" {
		m.unload(ctx, descriptor)
		return m.command(ctx, "launchctl", "load", "-w", descriptor)
	}
	if err := m.command(ctx, "systemctl", "--user", "daemon-reload"); err != nil {
		return err
	}
	return m.command(ctx, "systemctl", "--user", "enable", "--now", UnitName)
}

// unload stops the service. Failures mean it was not loaded and are ignored.
func (m *Manager) unload(ctx context.Context, descriptor string) {
	var err error
	if m.goos == "darwin" {
		err = m.command(ctx, "launchctl", "unload", descriptor)
	} else {
		err = m.command(ctx, "systemctl", "--user", "disable", "--now", UnitName)
	}
	if err != nil {
		m.logger.Debug("service was not loaded", "error", err)
	}
}

// Uninstall stops the service and removes its descriptor.
// removed is false when no descriptor was installed.
func (m *Manager) Uninstall(ctx context.Context) (removed bool, err error) {
	descriptor, err := m.DescriptorPath()
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(descriptor); errors.Is(err, os.ErrNotExist) {
		m.logger.Info("service descriptor not found", "path", descriptor)
		return false, nil
	}

	m.unload(ctx, descriptor)
	if err := os.Remove(descriptor); err != nil {
		return false, fmt.Errorf("failed to remove service descriptor: %w", err)
	}
	if m.goos == "linux" {
		if err := m.command(ctx, "systemctl", "--user", "daemon-reload"); err != nil {
			m.logger.Warn("failed to reload systemd", "error", err)
		}
	}
	m.logger.Info("service descriptor removed", "path", descriptor)
	return true, nil
}

// Status reports whether the service is installed and running.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	descriptor, err := m.DescriptorPath()
	if err != nil {
		return Status{}, err
	}
	logDir, err := m.LogDir()
	if err != nil {
		return Status{}, err
	}

	st := Status{LogDir: logDir}
	if _, err := os.Stat(descriptor); err == nil {
		st.Installed = true
	}

	if m.goos == "darwin" {
		out, err := m.run(ctx, "launchctl", "list", Label)
		if err != nil {
			return st, nil
		}
		st.Running = true
		if match := launchdPID.FindSubmatch(out); match != nil {
			st.PID, _ = strconv.Atoi(string(match[1]))
		}
		return st, nil
	}

	out, err := m.run(ctx, "systemctl", "--user", "is-active", UnitName)
	if err != nil || strings.TrimSpace(string(out)) != "active" {
		return st, nil
	}
	st.Running = true
	if out, err := m.run(ctx, "systemctl", "--user", "show", "--property=MainPID", "--value", UnitName); err == nil {
		st.PID, _ = strconv.Atoi(strings.TrimSpace(string(out)))
	}
	return st, nil
}

// command runs a service manager command, wrapping failures with its output.
func (m *Manager) command(ctx context.Context, name string, args ...string) error {
	out, err := m.run(ctx, name, args...)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v: %s", ErrServiceManager,
			name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}
