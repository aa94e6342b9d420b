package browser

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
)

// Source names the acquisition strategy that produced a binary.
const (
	SourceAutoUpdate = "auto-update"
	SourceCache      = "cache"
	SourceSearchPath = "search-path"
)

// Binary is a browser executable ready to launch.
type Binary struct {
	// Path is the executable path.
	Path string

	// Source is the name of the strategy that found it.
	Source string
}

// Strategy is one way of obtaining a browser binary.
// Resolve must not have side effects beyond downloading into its own cache.
type Strategy struct {
	Name    string
	Resolve func(ctx context.Context) (string, error)
}

// Acquire tries the strategies in order and returns the first binary found.
// When all of them fail the error matches ErrDriverUnavailable and carries
// every strategy's failure.
func Acquire(ctx context.Context, logger *slog.Logger, strategies ...Strategy) (Binary, error) {
	if logger == nil {
		logger = slog.Default()
	}

	errs := make([]error, 0, len(strategies))
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		path, err := s.Resolve(ctx)
		if err == nil && path != "" {
			logger.Info("browser binary acquired", "source", s.Name, "path", path)
			return Binary{Path: path, Source: s.Name}, nil
		}
		if err == nil {
			err = errors.New("no binary returned")
		}

		logger.Warn("browser acquisition strategy failed", "source", s.Name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}

	if len(errs) == 0 {
		return Binary{}, ErrDriverUnavailable
	}
	return Binary{}, fmt.Errorf("%w: %w", ErrDriverUnavailable, errors.Join(errs...))
}

// AutoUpdate returns the strategy that downloads the pinned browser revision
// into rootDir, or verifies the existing download. An empty rootDir uses the
// launcher's default directory. With force the download is repeated even
// when a valid binary is present.
//
// This strategy needs internet access, so behind the captive portal it fails
// and the chain moves on to the cache.
func AutoUpdate(rootDir string, force bool, logger *slog.Logger) Strategy {
	return Strategy{
		Name: SourceAutoUpdate,
		Resolve: func(ctx context.Context) (string, error) {
			b := launcher.NewBrowser()
			b.Context = ctx
			b.Logger = rodLogger{logger: logger}
			if rootDir != "" {
				b.RootDir = rootDir
			}

			if !force {
				return b.Get()
			}

			if err := b.Download(); err != nil {
				return "", err
			}
			return b.BinPath(), nil
		},
	}
}

// Cache returns the strategy that scans dir recursively for an executable
// whose base name is one of names, picking the most recently modified one.
// Versions are not parsed; the newest download is the best guess.
func Cache(dir string, names ...string) Strategy {
	if len(names) == 0 {
		names = DefaultBinaryNames()
	}
	return Strategy{
		Name: SourceCache,
		Resolve: func(ctx context.Context) (string, error) {
			return newestExecutable(ctx, dir, names)
		},
	}
}

// SearchPath returns the strategy that resolves a browser from PATH and the
// well-known install locations.
func SearchPath() Strategy {
	return Strategy{
		Name: SourceSearchPath,
		Resolve: func(context.Context) (string, error) {
			path, found := launcher.LookPath()
			if !found {
				return "", errors.New("no browser found on the search path")
			}
			return path, nil
		},
	}
}

// DefaultCacheDir is the directory AutoUpdate downloads into by default.
func DefaultCacheDir() string {
	return launcher.DefaultBrowserDir
}

// DefaultBinaryNames lists the executable names the cache scan accepts.
func DefaultBinaryNames() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"chrome.exe", "chromium.exe"}
	case "darwin":
		return []string{"Chromium", "Google Chrome for Testing", "chrome"}
	default:
		return []string{"chrome", "chromium", "chromium-browser", "headless_shell"}
	}
}

// newestExecutable walks dir and returns the newest executable regular file
// named one of names.
func newestExecutable(ctx context.Context, dir string, names []string) (string, error) {
	if dir == "" {
		return "", errors.New("no cache directory configured")
	}
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("cache directory unavailable: %w", err)
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(n)] = true
	}

	var (
		best     string
		bestTime time.Time
	)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !wanted[strings.ToLower(d.Name())] {
			return nil
		}

		info, err := d.Info()
		if err != nil || !info.Mode().IsRegular() || !isExecutable(info) {
			return nil
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = path
			bestTime = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to scan cache directory: %w", err)
	}
	if best == "" {
		return "", fmt.Errorf("no cached browser binary in %s", dir)
	}
	return best, nil
}

func isExecutable(info fs.FileInfo) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(filepath.Ext(info.Name()), ".exe")
	}
	return info.Mode().Perm()&0o111 != 0
}

// rodLogger forwards launcher download progress to slog at debug level.
type rodLogger struct {
	logger *slog.Logger
}

// Println implements the launcher's logger interface.
func (l rodLogger) Println(v ...interface{}) {
	logger := l.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug(strings.TrimSpace(fmt.Sprintln(v...)), "component", "launcher")
}
