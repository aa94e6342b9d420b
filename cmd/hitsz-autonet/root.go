package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/hitsz-autonet/internal/browser"
	"github.com/nao1215/hitsz-autonet/internal/config"
	"github.com/nao1215/hitsz-autonet/internal/database"
	"github.com/nao1215/hitsz-autonet/internal/log"
	"github.com/nao1215/hitsz-autonet/internal/monitor"
	"github.com/nao1215/hitsz-autonet/internal/notify"
	"github.com/nao1215/hitsz-autonet/internal/portal"
	"github.com/nao1215/hitsz-autonet/internal/probe"
)

// errDriverUpdate is returned when --update-driver could not download a browser.
var errDriverUpdate = errors.New("browser driver update failed")

// NewRootCmd creates the root command. Without a subcommand it runs the
// connectivity monitor.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hitsz-autonet",
		Short: "Keep a machine logged in to the HITSZ campus network",
		Long: `hitsz-autonet monitors internet connectivity and logs in to the HITSZ
captive portal through a headless browser whenever the network drops.

Credentials are read from a .env or YAML file (HITSZ_USERNAME, HITSZ_PASSWORD).
Without --config the first existing file is used among:
  $XDG_CONFIG_HOME/hitsz-autonet/.env
  $XDG_CONFIG_HOME/hitsz-autonet/config.yaml
  /etc/hitsz-autonet/.env
  ./.env

Examples:
  # Run the monitor in the foreground
  hitsz-autonet --config ~/.config/hitsz-autonet/.env

  # Check once and log in if needed
  hitsz-autonet --once

  # Refresh the browser used for logging in (needs internet access)
  hitsz-autonet --update-driver

  # Register the monitor as a background service
  hitsz-autonet service install --config ~/.config/hitsz-autonet/.env`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRootCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Monitor flags
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (.env or .yaml)")
	cmd.Flags().BoolP("daemon", "d", false,
		"Run as a background service (does not fork)")
	cmd.Flags().BoolP("once", "o", false,
		"Run one check (and login if needed) and exit")
	cmd.Flags().Bool("update-driver", false,
		"Force a browser download and exit")
	cmd.Flags().String("log-file", "",
		"Write logs to this file instead of stderr")
	cmd.Flags().DurationP("interval", "i", config.DefaultInterval,
		"Pause between connectivity checks")
	cmd.Flags().Bool("no-journal", false,
		"Do not record login attempts in the history database")

	// Add subcommands
	cmd.AddCommand(NewServiceCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runRootCmd executes the monitor.
func runRootCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	logger, closeLog, err := setupLogger(cfg.LogFile, cfg.Verbose, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("HITSZ AutoNet monitor starting", "version", getVersion(), "daemon", cfg.Daemon)

	if err := loadConfig(cmd, cfg, logger); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := newDriver(cfg, logger)
	if cfg.UpdateDriver {
		return updateDriver(ctx, driver, logger)
	}

	notifier := notify.NewDesktop(notify.WithLogger(logger))
	if err := cfg.RequireCredentials(); err != nil {
		logger.Error("please configure HITSZ_USERNAME and HITSZ_PASSWORD",
			"config", cfg.ConfigFilePath)
		notifier.Notify(ctx, notify.Title, notify.MsgConfigureCredentials)
		return err
	}

	return runMonitor(ctx, cfg, driver, notifier, logger)
}

// applyFlags copies the monitor flags into cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	flags := cmd.Flags()

	if cfg.Daemon, err = flags.GetBool("daemon"); err != nil {
		return err
	}
	if cfg.Once, err = flags.GetBool("once"); err != nil {
		return err
	}
	if cfg.UpdateDriver, err = flags.GetBool("update-driver"); err != nil {
		return err
	}
	if cfg.LogFile, err = flags.GetString("log-file"); err != nil {
		return err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	noJournal, err := flags.GetBool("no-journal")
	if err != nil {
		return err
	}
	if noJournal {
		cfg.DBDir = ""
	}
	return nil
}

// loadConfig reads the config file, then the environment, into cfg.
// A missing file is not fatal: the environment may still hold the
// credentials. An --interval given on the command line beats the file.
func loadConfig(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	explicit, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	path, err := config.FindConfigFile(explicit, config.DefaultConfigPaths())
	switch {
	case err != nil:
		logger.Warn("config file not found", "error", err)
	case path == "":
		logger.Info("no config file found, using environment only")
	default:
		if err := config.LoadFile(path, cfg); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger.Info("loaded config", "path", path)
	}

	config.ApplyEnv(cfg, os.LookupEnv)

	if cmd.Flags().Changed("interval") {
		if cfg.Interval, err = cmd.Flags().GetDuration("interval"); err != nil {
			return err
		}
	}
	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the secure logger. With a log file, logs go only to
// that file; otherwise to stderr.
func setupLogger(logFile string, verbose bool, stderr io.Writer) (*slog.Logger, func(), error) {
	if logFile == "" {
		return log.NewSecureLogger(stderr, verbose), func() {}, nil
	}

	f, err := log.Open(logFile)
	if err != nil {
		return nil, nil, err
	}
	return log.NewSecureLogger(f, verbose), func() { _ = f.Close() }, nil
}

// newDriver creates the browser session driver from cfg.
func newDriver(cfg *config.Config, logger *slog.Logger) *browser.Driver {
	return browser.New(
		browser.WithUserAgent(cfg.UserAgent),
		browser.WithPageLoadTimeout(cfg.PageLoadTimeout),
		browser.WithElementTimeout(cfg.ElementTimeout),
		browser.WithCacheDir(cfg.BrowserCacheDir),
		browser.WithVersionMismatchMarker(cfg.VersionMismatchMarker),
		browser.WithLogger(logger),
	)
}

// updateDriver runs the download strategy alone.
func updateDriver(ctx context.Context, driver *browser.Driver, logger *slog.Logger) error {
	logger.Info("updating browser driver")

	bin, err := driver.AcquireBinary(ctx, true)
	if err != nil {
		logger.Error("browser driver update failed", "error", err)
		return fmt.Errorf("%w: %w", errDriverUpdate, err)
	}

	logger.Info("browser driver update completed", "path", bin.Path)
	return nil
}

// runMonitor wires the prober, the login machine and the journal into the
// monitor loop and runs it until ctx is cancelled.
func runMonitor(ctx context.Context, cfg *config.Config, driver *browser.Driver, notifier notify.Notifier, logger *slog.Logger) error {
	prober := probe.New(cfg.CheckURL,
		probe.WithTimeout(cfg.ProbeTimeout),
		probe.WithURLMarkers(cfg.URLMarkers...),
		probe.WithBodyMarkers(cfg.BodyMarkers...),
		probe.WithLogger(logger),
	)

	machine := portal.New(driver, prober,
		portal.WithPortalURL(cfg.PortalURL),
		portal.WithSelectors(cfg.UsernameSelector, cfg.PasswordSelector, cfg.SubmitSelector),
		portal.WithElementTimeout(cfg.ElementTimeout),
		portal.WithSettleDelays(cfg.NavigationSettle, cfg.SubmitSettle),
		portal.WithVerification(cfg.VerifyAttempts, cfg.VerifyPause),
		portal.WithLogger(logger),
	)

	opts := []monitor.Option{
		monitor.WithInterval(cfg.Interval),
		monitor.WithOnce(cfg.Once),
		monitor.WithNotifier(notifier),
		monitor.WithLogger(logger),
	}

	if cfg.DBDir != "" {
		journal, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			logger.Warn("attempt journal disabled", "error", err)
		} else {
			defer journal.Close()
			opts = append(opts, monitor.WithRecorder(journal))
		}
	}

	return monitor.New(prober, machine, cfg.Credentials, opts...).Run(ctx)
}
