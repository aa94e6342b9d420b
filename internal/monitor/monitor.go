package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/hitsz-autonet/internal/config"
	"github.com/nao1215/hitsz-autonet/internal/model"
	"github.com/nao1215/hitsz-autonet/internal/notify"
)

// ErrIteration wraps a panic recovered at the iteration boundary.
var ErrIteration = errors.New("unexpected error in monitor iteration")

// Checker reports internet connectivity.
type Checker interface {
	Probe(ctx context.Context) bool
}

// Loginer performs one login attempt. It must never return nil.
type Loginer interface {
	Login(ctx context.Context, creds model.Credentials) *model.Attempt
}

// Recorder persists finished login attempts.
type Recorder interface {
	RecordAttempt(ctx context.Context, a *model.Attempt) (int64, error)
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Monitor is the top-level polling loop.
type Monitor struct {
	checker  Checker
	loginer  Loginer
	creds    model.Credentials
	notifier notify.Notifier
	recorder Recorder

	interval time.Duration
	once     bool

	sleep  Sleeper
	logger *slog.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		m.interval = d
	}
}

// WithOnce makes Run stop after a single iteration.
func WithOnce(once bool) Option {
	return func(m *Monitor) {
		m.once = once
	}
}

// WithNotifier sets the notification sink.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Monitor) {
		m.notifier = n
	}
}

// WithRecorder stores every login attempt in r.
func WithRecorder(r Recorder) Option {
	return func(m *Monitor) {
		m.recorder = r
	}
}

// WithSleeper replaces the interval wait. Tests use it to drive the loop.
func WithSleeper(s Sleeper) Option {
	return func(m *Monitor) {
		m.sleep = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// New creates a Monitor that probes with c and logs in with l using creds.
func New(c Checker, l Loginer, creds model.Credentials, opts ...Option) *Monitor {
	m := &Monitor{
		checker:  c,
		loginer:  l,
		creds:    creds,
		notifier: notify.Discard{},
		interval: config.DefaultInterval,
		sleep:    sleepContext,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run polls until ctx is cancelled, or after one iteration in single-shot
// mode. Cancellation is a clean stop and returns nil.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("network monitor started", "interval", m.interval, "once", m.once)
	defer m.logger.Info("network monitor stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := m.Iterate(ctx); err != nil {
			m.logger.Error("iteration failed, continuing", "error", err)
		}

		if m.once {
			return nil
		}

		if err := m.sleep(ctx, m.interval); err != nil {
			return nil
		}
	}
}

// Iterate runs one probe and, when offline, one login attempt.
// A panic anywhere in the iteration is recovered and returned as an error
// wrapping ErrIteration.
func (m *Monitor) Iterate(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrIteration, r)
		}
	}()

	if m.checker.Probe(ctx) {
		m.logger.Debug("network is online")
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}

	m.logger.Warn("network disconnected, attempting login")
	m.notifier.Notify(ctx, notify.Title, notify.MsgNetworkLost)

	attempt := m.loginer.Login(ctx, m.creds)
	if attempt == nil {
		return fmt.Errorf("%w: login returned no result", ErrIteration)
	}
	m.record(ctx, attempt)

	if ctx.Err() != nil {
		m.logger.Info("login interrupted", "outcome", attempt.Outcome)
		return nil
	}

	m.logger.Info("login attempt finished",
		"outcome", attempt.Outcome,
		"verified_by", attempt.VerifiedBy,
		"duration", attempt.Duration,
	)

	if attempt.Succeeded() {
		m.notifier.Notify(ctx, notify.Title, notify.MsgLoginSucceeded)
		if m.checker.Probe(ctx) {
			m.logger.Info("connectivity verified")
		} else {
			m.logger.Warn("login reported success but connectivity check failed")
		}
		return nil
	}

	if attempt.VersionMismatch {
		m.notifier.Notify(ctx, notify.Title, notify.MsgDriverMismatch)
	}
	if attempt.Outcome == model.OutcomeMissingCredentials {
		m.notifier.Notify(ctx, notify.Title, notify.MsgMissingCredentials)
	}
	m.notifier.Notify(ctx, notify.Title, notify.MsgLoginFailed)
	return nil
}

// record stores a in the journal. Journal failures are logged only.
func (m *Monitor) record(ctx context.Context, a *model.Attempt) {
	if m.recorder == nil {
		return
	}
	// An interrupted attempt is still written.
	if _, err := m.recorder.RecordAttempt(context.WithoutCancel(ctx), a); err != nil {
		m.logger.Warn("failed to record login attempt", "error", err)
	}
}

// sleepContext waits for d unless ctx is done first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
