package browser

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher/flags"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixed(name, path string, err error, calls *[]string) Strategy {
	return Strategy{
		Name: name,
		Resolve: func(context.Context) (string, error) {
			*calls = append(*calls, name)
			return path, err
		},
	}
}

// TestAcquire verifies first-success ordering across the strategy chain.
func TestAcquire(t *testing.T) {
	t.Parallel()

	t.Run("first strategy wins", func(t *testing.T) {
		t.Parallel()

		var calls []string
		bin, err := Acquire(context.Background(), quietLogger(),
			fixed(SourceAutoUpdate, "/opt/rod/chrome", nil, &calls),
			fixed(SourceCache, "/cache/chrome", nil, &calls),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bin.Path != "/opt/rod/chrome" || bin.Source != SourceAutoUpdate {
			t.Errorf("unexpected binary %+v", bin)
		}
		if len(calls) != 1 {
			t.Errorf("expected later strategies to be skipped, calls = %v", calls)
		}
	})

	t.Run("falls through to cache then search path", func(t *testing.T) {
		t.Parallel()

		var calls []string
		bin, err := Acquire(context.Background(), quietLogger(),
			fixed(SourceAutoUpdate, "", errors.New("offline"), &calls),
			fixed(SourceCache, "", errors.New("empty cache"), &calls),
			fixed(SourceSearchPath, "/usr/bin/chromium", nil, &calls),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bin.Source != SourceSearchPath {
			t.Errorf("expected search-path, got %q", bin.Source)
		}
		want := []string{SourceAutoUpdate, SourceCache, SourceSearchPath}
		if len(calls) != len(want) {
			t.Fatalf("expected calls %v, got %v", want, calls)
		}
		for i := range want {
			if calls[i] != want[i] {
				t.Errorf("call %d: expected %q, got %q", i, want[i], calls[i])
			}
		}
	})

	t.Run("empty path counts as failure", func(t *testing.T) {
		t.Parallel()

		var calls []string
		bin, err := Acquire(context.Background(), quietLogger(),
			fixed(SourceAutoUpdate, "", nil, &calls),
			fixed(SourceCache, "/cache/chrome", nil, &calls),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bin.Source != SourceCache {
			t.Errorf("expected cache, got %q", bin.Source)
		}
	})

	t.Run("all strategies fail", func(t *testing.T) {
		t.Parallel()

		offline := errors.New("offline")
		var calls []string
		_, err := Acquire(context.Background(), quietLogger(),
			fixed(SourceAutoUpdate, "", offline, &calls),
			fixed(SourceCache, "", errors.New("empty cache"), &calls),
			fixed(SourceSearchPath, "", errors.New("not installed"), &calls),
		)
		if !errors.Is(err, ErrDriverUnavailable) {
			t.Fatalf("expected ErrDriverUnavailable, got %v", err)
		}
		if !errors.Is(err, offline) {
			t.Errorf("expected the tier errors to be joined, got %v", err)
		}
	})

	t.Run("no strategies", func(t *testing.T) {
		t.Parallel()

		if _, err := Acquire(context.Background(), nil); !errors.Is(err, ErrDriverUnavailable) {
			t.Errorf("expected ErrDriverUnavailable, got %v", err)
		}
	})

	t.Run("cancelled context stops the chain", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var calls []string
		_, err := Acquire(ctx, quietLogger(), fixed(SourceAutoUpdate, "/x", nil, &calls))
		if !errors.Is(err, ErrDriverUnavailable) || !errors.Is(err, context.Canceled) {
			t.Errorf("expected cancellation inside ErrDriverUnavailable, got %v", err)
		}
		if len(calls) != 0 {
			t.Errorf("expected no strategy to run, calls = %v", calls)
		}
	})
}

// TestCache verifies the recursive newest-executable scan.
func TestCache(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bits are not meaningful on windows")
	}
	t.Parallel()

	t.Run("picks the most recently modified executable", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		older := writeBinary(t, filepath.Join(dir, "chromium-1000", "chrome-linux"), "chrome", 0o755)
		newer := writeBinary(t, filepath.Join(dir, "chromium-1100", "chrome-linux"), "chrome", 0o755)
		// Not executable, newest of all.
		notExec := writeBinary(t, filepath.Join(dir, "chromium-1200"), "chrome", 0o644)
		// Wrong name.
		other := writeBinary(t, filepath.Join(dir, "tools"), "chromedriver-helper", 0o755)

		base := time.Now().Add(-time.Hour)
		setModTime(t, older, base)
		setModTime(t, newer, base.Add(10*time.Minute))
		setModTime(t, notExec, base.Add(20*time.Minute))
		setModTime(t, other, base.Add(30*time.Minute))

		path, err := Cache(dir, "chrome").Resolve(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != newer {
			t.Errorf("expected %q, got %q", newer, path)
		}
	})

	t.Run("empty directory fails", func(t *testing.T) {
		t.Parallel()

		if _, err := Cache(t.TempDir(), "chrome").Resolve(context.Background()); err == nil {
			t.Error("expected error for empty cache")
		}
	})

	t.Run("missing directory fails", func(t *testing.T) {
		t.Parallel()

		missing := filepath.Join(t.TempDir(), "does-not-exist")
		if _, err := Cache(missing, "chrome").Resolve(context.Background()); err == nil {
			t.Error("expected error for missing cache")
		}
	})

	t.Run("unset directory fails", func(t *testing.T) {
		t.Parallel()

		if _, err := Cache("", "chrome").Resolve(context.Background()); err == nil {
			t.Error("expected error for unset cache")
		}
	})
}

// TestDriver_Strategies verifies the chain shape for normal and forced acquisition.
func TestDriver_Strategies(t *testing.T) {
	t.Parallel()

	d := New(WithCacheDir(t.TempDir()), WithLogger(quietLogger()))

	normal := d.Strategies(false)
	want := []string{SourceAutoUpdate, SourceCache, SourceSearchPath}
	if len(normal) != len(want) {
		t.Fatalf("expected %d strategies, got %d", len(want), len(normal))
	}
	for i, s := range normal {
		if s.Name != want[i] {
			t.Errorf("strategy %d: expected %q, got %q", i, want[i], s.Name)
		}
	}

	forced := d.Strategies(true)
	if len(forced) != 1 || forced[0].Name != SourceAutoUpdate {
		t.Errorf("forced update must only download, got %v", forced)
	}
}

// TestDriver_LaunchWithoutBinary verifies that exhausting the chain is
// reported as ErrDriverUnavailable before any process is started.
func TestDriver_LaunchWithoutBinary(t *testing.T) {
	t.Parallel()

	var calls []string
	d := New(
		WithLogger(quietLogger()),
		WithStrategies(fixed(SourceCache, "", errors.New("empty"), &calls)),
	)

	h, _, err := d.Launch(context.Background())
	if h != nil {
		t.Error("expected no handle")
	}
	if !errors.Is(err, ErrDriverUnavailable) {
		t.Errorf("expected ErrDriverUnavailable, got %v", err)
	}
	if errors.Is(err, ErrLaunch) {
		t.Error("acquisition failure must not be reported as a launch failure")
	}
}

// TestDriver_LaunchFlags verifies the fixed launch configuration.
func TestDriver_LaunchFlags(t *testing.T) {
	t.Parallel()

	const ua = "Mozilla/5.0 test"
	d := New(WithUserAgent(ua))
	l := d.newLauncher("/opt/chrome/chrome")

	if got := l.Get(flags.Bin); got != "/opt/chrome/chrome" {
		t.Errorf("expected bin flag, got %q", got)
	}
	for _, f := range []flags.Flag{
		flags.Headless,
		flags.NoSandbox,
		flags.Flag("disable-gpu"),
		flags.Flag("disable-dev-shm-usage"),
	} {
		if !l.Has(f) {
			t.Errorf("expected launch flag %q", f)
		}
	}
	if got := l.Get(flags.Flag("user-agent")); got != ua {
		t.Errorf("expected user agent %q, got %q", ua, got)
	}
}

// TestClassifyLaunchError verifies version mismatch detection by marker.
func TestClassifyLaunchError(t *testing.T) {
	t.Parallel()

	const marker = "only supports Chrome version"

	tests := []struct {
		name         string
		err          error
		marker       string
		wantMismatch bool
	}{
		{
			name:         "mismatch message",
			err:          errors.New("session not created: This version of ChromeDriver only supports Chrome version 114"),
			marker:       marker,
			wantMismatch: true,
		},
		{
			name:   "generic launch failure",
			err:    errors.New("fork/exec /opt/chrome: no such file or directory"),
			marker: marker,
		},
		{
			name:   "empty marker never matches",
			err:    errors.New("only supports Chrome version 114"),
			marker: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := classifyLaunchError(tt.err, tt.marker)
			if !errors.Is(err, ErrLaunch) {
				t.Errorf("expected ErrLaunch, got %v", err)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("expected the cause to stay wrapped, got %v", err)
			}
			if got := IsVersionMismatch(err); got != tt.wantMismatch {
				t.Errorf("IsVersionMismatch() = %v, want %v", got, tt.wantMismatch)
			}
		})
	}

	if classifyLaunchError(nil, marker) != nil {
		t.Error("expected nil for nil error")
	}
}

// TestRodLogger verifies launcher progress is forwarded at debug level.
func TestRodLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	rodLogger{logger: logger}.Println("Download:", "https://example.com/chromium.zip")

	if got := buf.String(); !strings.Contains(got, "level=DEBUG") || !strings.Contains(got, "chromium.zip") {
		t.Errorf("unexpected log output: %s", got)
	}
}

func writeBinary(t *testing.T, dir, name string, mode os.FileMode) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), mode); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	if err := os.Chmod(path, mode); err != nil {
		t.Fatalf("failed to chmod %s: %v", path, err)
	}
	return path
}

func setModTime(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("failed to set mtime on %s: %v", path, err)
	}
}
