package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// closeTimeout bounds the DevTools close request during release.
const closeTimeout = 5 * time.Second

// Driver acquires browser binaries and launches headless sessions.
// Launch configuration is fixed apart from the options below: headless,
// no sandbox, GPU disabled and /dev/shm usage disabled.
type Driver struct {
	// userAgent is sent by every page of the session.
	userAgent string

	// pageLoadTimeout bounds Navigate.
	pageLoadTimeout time.Duration

	// elementTimeout bounds element lookups in Fill and ScriptClick.
	elementTimeout time.Duration

	// cacheDir is both the download root and the cache scan root.
	// Empty uses the launcher's default directory.
	cacheDir string

	// mismatchMarker identifies a version mismatch in launch errors.
	mismatchMarker string

	// strategies overrides the acquisition chain. Used by tests.
	strategies []Strategy

	logger *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithUserAgent sets the browser user agent.
func WithUserAgent(ua string) Option {
	return func(d *Driver) {
		d.userAgent = ua
	}
}

// WithPageLoadTimeout sets the navigation timeout.
func WithPageLoadTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		d.pageLoadTimeout = timeout
	}
}

// WithElementTimeout sets the element lookup timeout used when filling and clicking.
func WithElementTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		d.elementTimeout = timeout
	}
}

// WithCacheDir sets the browser download and cache directory.
func WithCacheDir(dir string) Option {
	return func(d *Driver) {
		d.cacheDir = dir
	}
}

// WithVersionMismatchMarker sets the substring that marks a version mismatch.
func WithVersionMismatchMarker(marker string) Option {
	return func(d *Driver) {
		d.mismatchMarker = marker
	}
}

// WithStrategies replaces the acquisition chain.
func WithStrategies(strategies ...Strategy) Option {
	return func(d *Driver) {
		d.strategies = strategies
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// New creates a Driver.
func New(opts ...Option) *Driver {
	d := &Driver{
		pageLoadTimeout: 30 * time.Second,
		elementTimeout:  10 * time.Second,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Strategies returns the acquisition chain. A forced update runs the
// download strategy alone so that a stale cached binary cannot mask a
// failed download.
func (d *Driver) Strategies(forceUpdate bool) []Strategy {
	if d.strategies != nil {
		return d.strategies
	}
	if forceUpdate {
		return []Strategy{AutoUpdate(d.cacheDir, true, d.logger)}
	}

	cacheDir := d.cacheDir
	if cacheDir == "" {
		cacheDir = DefaultCacheDir()
	}
	return []Strategy{
		AutoUpdate(d.cacheDir, false, d.logger),
		Cache(cacheDir),
		SearchPath(),
	}
}

// AcquireBinary obtains a browser binary. The returned error matches
// ErrDriverUnavailable when every strategy failed.
func (d *Driver) AcquireBinary(ctx context.Context, forceUpdate bool) (Binary, error) {
	return Acquire(ctx, d.logger, d.Strategies(forceUpdate)...)
}

// Launch acquires a binary and starts a session with it.
func (d *Driver) Launch(ctx context.Context) (Handle, Binary, error) {
	bin, err := d.AcquireBinary(ctx, false)
	if err != nil {
		return nil, Binary{}, err
	}

	h, err := d.LaunchSession(ctx, bin)
	if err != nil {
		return nil, bin, err
	}
	return h, bin, nil
}

// LaunchSession starts a headless browser from bin and opens a blank page.
// Launch and connect failures match ErrLaunch; those whose message carries
// the version mismatch marker also match ErrVersionMismatch.
func (d *Driver) LaunchSession(ctx context.Context, bin Binary) (Handle, error) {
	l := d.newLauncher(bin.Path).Context(ctx)

	controlURL, err := l.Launch()
	if err != nil {
		// The process never started, so Cleanup would block on its exit.
		_ = os.RemoveAll(l.Get(flags.UserDataDir))
		return nil, classifyLaunchError(err, d.mismatchMarker)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, classifyLaunchError(fmt.Errorf("connect: %w", err), d.mismatchMarker)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		l.Cleanup()
		return nil, classifyLaunchError(fmt.Errorf("open page: %w", err), d.mismatchMarker)
	}

	d.logger.Debug("browser session started", "source", bin.Source, "pid", l.PID())

	return &rodHandle{
		launcher:        l,
		browser:         b.Context(context.Background()),
		page:            page,
		pageLoadTimeout: d.pageLoadTimeout,
		elementTimeout:  d.elementTimeout,
	}, nil
}

// newLauncher builds the fixed launch configuration for bin.
func (d *Driver) newLauncher(bin string) *launcher.Launcher {
	l := launcher.New().
		Bin(bin).
		Headless(true).
		NoSandbox(true).
		Set(flags.Flag("disable-gpu")).
		Set(flags.Flag("disable-dev-shm-usage"))

	if d.userAgent != "" {
		l = l.Set(flags.Flag("user-agent"), d.userAgent)
	}
	return l
}
