package portal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nao1215/hitsz-autonet/internal/browser"
	"github.com/nao1215/hitsz-autonet/internal/config"
	"github.com/nao1215/hitsz-autonet/internal/log"
	"github.com/nao1215/hitsz-autonet/internal/model"
)

// statusQuery reads the page field of the portal's client-side CONFIG object.
// It yields null when the object is missing.
const statusQuery = `() => {
	const c = window.CONFIG;
	return (c && typeof c === "object" && "page" in c) ? c.page : null;
}`

// statusSuccess is the CONFIG.page value of an authenticated session.
const statusSuccess = "success"

// mismatchAdvice is logged at CRITICAL level on a driver version mismatch.
// The auto-update strategy cannot run while the portal blocks traffic.
const mismatchAdvice = "browser driver version mismatch: the driver cannot be refreshed while offline. " +
	"Connect to another network (for example a mobile hotspot) and run with --update-driver, " +
	"or install a browser matching the driver version on the search path"

// Launcher starts a browser session.
type Launcher interface {
	Launch(ctx context.Context) (browser.Handle, browser.Binary, error)
}

// Checker reports internet connectivity.
type Checker interface {
	Probe(ctx context.Context) bool
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Machine is the login state machine.
//
// A login runs Start, Navigate, AlreadyAuthenticated, FormSubmission,
// VerifySuccess and VerifyByConnectivity in order, stopping at the first
// terminal state. The browser handle acquired in Start is released exactly
// once on every path, including panics.
type Machine struct {
	launcher Launcher
	checker  Checker

	portalURL        string
	usernameSelector string
	passwordSelector string
	submitSelector   string

	elementTimeout   time.Duration
	navigationSettle time.Duration
	submitSettle     time.Duration
	verifyAttempts   int
	verifyPause      time.Duration

	sleep  Sleeper
	now    func() time.Time
	logger *slog.Logger

	// handles admits at most one open browser handle.
	handles *semaphore.Weighted
}

// Option configures a Machine.
type Option func(*Machine)

// WithPortalURL sets the login page URL.
func WithPortalURL(url string) Option {
	return func(m *Machine) {
		m.portalURL = url
	}
}

// WithSelectors sets the CSS selectors of the username input, the password
// input and the login button.
func WithSelectors(username, password, submit string) Option {
	return func(m *Machine) {
		m.usernameSelector = username
		m.passwordSelector = password
		m.submitSelector = submit
	}
}

// WithElementTimeout sets how long to wait for the username input.
func WithElementTimeout(d time.Duration) Option {
	return func(m *Machine) {
		m.elementTimeout = d
	}
}

// WithSettleDelays sets the waits after navigation and after submission.
func WithSettleDelays(navigation, submit time.Duration) Option {
	return func(m *Machine) {
		m.navigationSettle = navigation
		m.submitSettle = submit
	}
}

// WithVerification sets the number of connectivity probes after an
// inconclusive page status and the pause between them.
func WithVerification(attempts int, pause time.Duration) Option {
	return func(m *Machine) {
		m.verifyAttempts = attempts
		m.verifyPause = pause
	}
}

// WithSleeper replaces the pause function. Tests use it to count pauses.
func WithSleeper(s Sleeper) Option {
	return func(m *Machine) {
		m.sleep = s
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// New creates a Machine that launches browsers with l and verifies
// connectivity with c. Defaults match the HITSZ portal.
func New(l Launcher, c Checker, opts ...Option) *Machine {
	m := &Machine{
		launcher:         l,
		checker:          c,
		portalURL:        config.DefaultPortalURL,
		usernameSelector: config.DefaultUsernameSelector,
		passwordSelector: config.DefaultPasswordSelector,
		submitSelector:   config.DefaultSubmitSelector,
		elementTimeout:   config.DefaultElementTimeout,
		navigationSettle: config.DefaultNavigationSettle,
		submitSettle:     config.DefaultSubmitSettle,
		verifyAttempts:   config.DefaultVerifyAttempts,
		verifyPause:      config.DefaultVerifyPause,
		sleep:            sleepContext,
		now:              time.Now,
		logger:           slog.Default(),
		handles:          semaphore.NewWeighted(1),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.verifyAttempts < 1 {
		m.verifyAttempts = 1
	}
	return m
}

// Login performs one login attempt and returns its record.
// It never panics and never returns a nil Attempt; every failure is
// converted into the Attempt's outcome.
func (m *Machine) Login(ctx context.Context, creds model.Credentials) (attempt *model.Attempt) {
	start := m.now()
	attempt = model.NewAttempt(creds, start)
	defer func() {
		attempt.Duration = m.now().Sub(start)
	}()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("unexpected error during login", "panic", r)
			attempt.Fail(model.OutcomeUnexpectedError, fmt.Errorf("%w: %v", ErrUnexpected, r))
		}
	}()

	if creds.Empty() {
		m.logger.Error("username or password not set")
		attempt.Fail(model.OutcomeMissingCredentials, config.ErrMissingCredentials)
		return attempt
	}

	if !m.handles.TryAcquire(1) {
		m.logger.Warn("login skipped", "error", ErrBusy)
		attempt.Fail(model.OutcomeUnexpectedError, ErrBusy)
		return attempt
	}
	defer m.handles.Release(1)

	m.logger.Info("attempting to login", "account", attempt.Account)

	h, bin, err := m.launcher.Launch(ctx)
	attempt.DriverSource = bin.Source
	if err != nil {
		if browser.IsVersionMismatch(err) {
			attempt.VersionMismatch = true
			log.Critical(ctx, m.logger, mismatchAdvice, "error", err)
		} else {
			m.logger.Error("failed to start browser", "error", err)
		}
		attempt.Fail(model.OutcomeDriverError, err)
		return attempt
	}
	defer m.release(h)

	m.run(ctx, h, creds, attempt)
	return attempt
}

// run drives an acquired session from Navigate to a terminal state.
func (m *Machine) run(ctx context.Context, h browser.Handle, creds model.Credentials, attempt *model.Attempt) {
	if err := h.Navigate(ctx, m.portalURL); err != nil {
		m.logger.Error("failed to load portal page", "url", m.portalURL, "error", err)
		attempt.Fail(model.OutcomeNavigationError, err)
		return
	}
	if err := m.sleep(ctx, m.navigationSettle); err != nil {
		attempt.Fail(model.OutcomeUnexpectedError, err)
		return
	}

	if m.pageSucceeded(ctx, h) {
		m.logger.Info("already logged in (page status)")
		attempt.Succeed(model.VerifiedAlreadyAuthenticated)
		return
	}

	if err := m.submit(ctx, h, creds); err != nil {
		m.logger.Error("error interacting with login form", "error", err)
		attempt.Fail(model.OutcomeFormError, err)
		return
	}

	if m.pageSucceeded(ctx, h) {
		m.logger.Info("login successful (page status)")
		attempt.Succeed(model.VerifiedPageStatus)
		return
	}

	m.logger.Warn("page status verification failed, checking actual connectivity")
	for i := 1; i <= m.verifyAttempts; i++ {
		attempt.ProbeAttempts = i
		if m.checker.Probe(ctx) {
			m.logger.Info("login successful (connectivity verified)", "probes", i)
			attempt.Succeed(model.VerifiedConnectivity)
			return
		}
		if i == m.verifyAttempts {
			break
		}
		if err := m.sleep(ctx, m.verifyPause); err != nil {
			attempt.Fail(model.OutcomeUnexpectedError, err)
			return
		}
	}

	m.logger.Error("login failed: page status not success and connectivity check failed",
		"probes", attempt.ProbeAttempts)
	attempt.Fail(model.OutcomeVerificationTimeout, ErrVerificationTimeout)
}

// submit fills the form and clicks the login button from script.
func (m *Machine) submit(ctx context.Context, h browser.Handle, creds model.Credentials) error {
	if err := h.WaitElement(ctx, m.usernameSelector, m.elementTimeout); err != nil {
		return err
	}
	if err := h.Fill(ctx, m.usernameSelector, creds.Username); err != nil {
		return err
	}
	if err := h.Fill(ctx, m.passwordSelector, creds.Password); err != nil {
		return err
	}
	if err := h.ScriptClick(ctx, m.submitSelector); err != nil {
		return err
	}
	return m.sleep(ctx, m.submitSettle)
}

// pageSucceeded reports whether the portal status is "success".
// An undetermined status is not success, and is not an error either.
func (m *Machine) pageSucceeded(ctx context.Context, h browser.Handle) bool {
	status, ok := m.queryStatus(ctx, h)
	return ok && status == statusSuccess
}

// queryStatus runs the status query. ok is false when the status could not
// be determined: the script failed, panicked or CONFIG.page is missing.
func (m *Machine) queryStatus(ctx context.Context, h browser.Handle) (status string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Debug("page status query panicked", "panic", r)
			status, ok = "", false
		}
	}()

	v, err := h.Evaluate(ctx, statusQuery)
	if err != nil {
		m.logger.Debug("page status undetermined", "error", err)
		return "", false
	}
	s, isString := v.(string)
	if !isString {
		return "", false
	}
	return s, true
}

// release closes h. Its failures, panics included, are logged and swallowed.
func (m *Machine) release(h browser.Handle) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("browser release panicked", "panic", r)
		}
	}()

	if err := h.Close(); err != nil {
		m.logger.Warn("failed to release browser", "error", err)
	}
}

// sleepContext waits for d unless ctx is done first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
