package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/hitsz-autonet/internal/log"
	"github.com/nao1215/hitsz-autonet/internal/service"
)

// NewServiceCmd creates the service command and its subcommands.
func NewServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the background service",
		Long: `Service registers hitsz-autonet with the operating system's service manager
so that the monitor starts at login and restarts after crashes.

macOS uses a launchd LaunchAgent, Linux a systemd user unit.

Examples:
  hitsz-autonet service install --config ~/.config/hitsz-autonet/.env
  hitsz-autonet service status
  hitsz-autonet service uninstall`,
	}

	cmd.AddCommand(newServiceInstallCmd())
	cmd.AddCommand(newServiceUninstallCmd())
	cmd.AddCommand(newServiceStatusCmd())

	return cmd
}

// newServiceManager creates a service manager logging to stderr.
func newServiceManager(cmd *cobra.Command) *service.Manager {
	logger := log.NewSecureLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
	return service.NewManager(service.WithLogger(logger))
}

func newServiceInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install and start the background service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			program, err := cmd.Flags().GetString("program")
			if err != nil {
				return err
			}
			if program == "" {
				if program, err = os.Executable(); err != nil {
					return fmt.Errorf("failed to locate executable: %w", err)
				}
			}

			res, err := newServiceManager(cmd).Install(cmd.Context(), program, configPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Service installed: %s\n", res.DescriptorPath)
			fmt.Fprintf(out, "Logs are in: %s\n", res.LogDir)
			if res.ConfigMissing {
				fmt.Fprintf(out, "Warning: config file not found at %s\n", configPath)
				fmt.Fprintln(out, "Please create it (hitsz-autonet init) before the service runs.")
			}
			return nil
		},
	}

	cmd.Flags().StringP("config", "c", defaultInitPath(),
		"Configuration file passed to the service")
	cmd.Flags().String("program", "",
		"Executable to register (default: this binary)")

	return cmd
}

func newServiceUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Stop and remove the background service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			removed, err := newServiceManager(cmd).Uninstall(cmd.Context())
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintln(cmd.OutOrStdout(), "Service removed.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Service is not installed.")
			}
			return nil
		},
	}
}

func newServiceStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the background service is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := newServiceManager(cmd).Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case st.Running && st.PID > 0:
				fmt.Fprintf(out, "Service is running. PID: %d\n", st.PID)
			case st.Running:
				fmt.Fprintln(out, "Service is running. PID: unknown")
			case st.Installed:
				fmt.Fprintln(out, "Service is installed but not running.")
			default:
				fmt.Fprintln(out, "Service is not installed.")
			}
			fmt.Fprintf(out, "Logs are in: %s\n", st.LogDir)
			return nil
		},
	}
}
