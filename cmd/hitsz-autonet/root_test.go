package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/hitsz-autonet/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "hitsz-autonet" {
			t.Errorf("expected use 'hitsz-autonet', got %q", cmd.Use)
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has monitor flags", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name      string
			shorthand string
			def       string
		}{
			{"config", "c", ""},
			{"daemon", "d", "false"},
			{"once", "o", "false"},
			{"update-driver", "", "false"},
			{"log-file", "", ""},
			{"interval", "i", config.DefaultInterval.String()},
			{"no-journal", "", "false"},
		}
		for _, tt := range tests {
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Errorf("expected %s flag", tt.name)
				continue
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("%s: expected shorthand %q, got %q", tt.name, tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.def {
				t.Errorf("%s: expected default %q, got %q", tt.name, tt.def, flag.DefValue)
			}
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()

		want := map[string]bool{"service": false, "init": false, "history": false, "version": false}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

// TestApplyFlags tests flag parsing into the configuration.
func TestApplyFlags(t *testing.T) {
	t.Parallel()

	t.Run("monitor flags", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		if err := cmd.ParseFlags([]string{"-d", "-o", "--log-file", "/tmp/x.log", "-v"}); err != nil {
			t.Fatal(err)
		}

		cfg := config.NewConfig()
		if err := applyFlags(cmd, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.Daemon || !cfg.Once || cfg.UpdateDriver {
			t.Errorf("unexpected mode flags: daemon=%v once=%v update=%v", cfg.Daemon, cfg.Once, cfg.UpdateDriver)
		}
		if cfg.LogFile != "/tmp/x.log" {
			t.Errorf("expected log file, got %q", cfg.LogFile)
		}
		if !cfg.Verbose {
			t.Error("expected verbose")
		}
		if cfg.DBDir == "" {
			t.Error("journal should stay enabled")
		}
	})

	t.Run("no-journal disables the journal", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		if err := cmd.ParseFlags([]string{"--no-journal"}); err != nil {
			t.Fatal(err)
		}

		cfg := config.NewConfig()
		if err := applyFlags(cmd, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.DBDir != "" {
			t.Errorf("expected empty DBDir, got %q", cfg.DBDir)
		}
	})
}

// TestLoadConfig tests config file resolution.
func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("explicit YAML file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "username: \"2023311000\"\npassword: pw\ninterval: 30s\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewRootCmd()
		if err := cmd.ParseFlags([]string{"--config", path}); err != nil {
			t.Fatal(err)
		}

		cfg := config.NewConfig()
		if err := loadConfig(cmd, cfg, quietLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ConfigFilePath != path {
			t.Errorf("expected config path %q, got %q", path, cfg.ConfigFilePath)
		}
		if cfg.Interval != 30*time.Second {
			t.Errorf("expected interval from file, got %v", cfg.Interval)
		}
	})

	t.Run("interval flag beats the file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yml")
		if err := os.WriteFile(path, []byte("interval: 30s\n"), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewRootCmd()
		if err := cmd.ParseFlags([]string{"-c", path, "-i", "5m"}); err != nil {
			t.Fatal(err)
		}

		cfg := config.NewConfig()
		if err := loadConfig(cmd, cfg, quietLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Interval != 5*time.Minute {
			t.Errorf("expected 5m, got %v", cfg.Interval)
		}
	})

	t.Run("missing explicit file is only logged", func(t *testing.T) {
		t.Parallel()

		var logs bytes.Buffer
		cmd := NewRootCmd()
		if err := cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "absent.env")}); err != nil {
			t.Fatal(err)
		}

		cfg := config.NewConfig()
		if err := loadConfig(cmd, cfg, slog.New(slog.NewTextHandler(&logs, nil))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(logs.String(), "config file not found") {
			t.Errorf("expected warning, got: %s", logs.String())
		}
		if cfg.ConfigFilePath != "" {
			t.Errorf("expected no config path, got %q", cfg.ConfigFilePath)
		}
	})

	t.Run("invalid file is an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "broken.yaml")
		if err := os.WriteFile(path, []byte("interval: [\n"), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewRootCmd()
		if err := cmd.ParseFlags([]string{"-c", path}); err != nil {
			t.Fatal(err)
		}
		if err := loadConfig(cmd, config.NewConfig(), quietLogger()); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestRunRootCmd_InvalidConfig tests that validation runs before any
// network or browser work.
func TestRunRootCmd_InvalidConfig(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.env"), "--interval", "0s", "--no-journal"})

	err := cmd.Execute()
	if !errors.Is(err, config.ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if !strings.Contains(stderr.String(), "HITSZ AutoNet monitor starting") {
		t.Errorf("expected startup log on stderr, got: %s", stderr.String())
	}
}

// TestSetupLogger tests logger construction.
func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("stderr", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger, closeLog, err := setupLogger("", false, &buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer closeLog()

		logger.Info("hello", "password", "hunter2")
		if !strings.Contains(buf.String(), "hello") {
			t.Error("expected log line on stderr")
		}
		if strings.Contains(buf.String(), "hunter2") {
			t.Error("password leaked into logs")
		}
	})

	t.Run("log file", func(t *testing.T) {
		t.Parallel()

		var stderr bytes.Buffer
		path := filepath.Join(t.TempDir(), "logs", "autonet.log")
		logger, closeLog, err := setupLogger(path, true, &stderr)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		logger.Debug("debug line")
		closeLog()

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "debug line") {
			t.Errorf("expected debug line in file, got: %s", data)
		}
		if stderr.Len() != 0 {
			t.Error("expected nothing on stderr when logging to a file")
		}
	})
}

// TestNewDriver tests driver construction from the configuration.
func TestNewDriver(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.BrowserCacheDir = t.TempDir()

	d := newDriver(cfg, quietLogger())
	if got := len(d.Strategies(false)); got != 3 {
		t.Errorf("expected three acquisition strategies, got %d", got)
	}
	if got := len(d.Strategies(true)); got != 1 {
		t.Errorf("expected the download strategy alone for a forced update, got %d", got)
	}
}
