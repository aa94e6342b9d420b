package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/hitsz-autonet/internal/config"
)

//go:embed templates/config.env
var configTemplate embed.FS

// defaultInitPath is where init writes the credentials file by default.
func defaultInitPath() string {
	return filepath.Join(config.XDGConfigDir(), ".env")
}

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a credentials file template",
		Long: `Init writes a commented .env template for the campus network account.

The file is created with mode 0600 because it holds the portal password.
By default it is written to the first location the monitor searches.

Examples:
  # Create ~/.config/hitsz-autonet/.env
  hitsz-autonet init

  # Create the file at a specific path
  hitsz-autonet init -o ./hitsz.env

  # Force overwrite existing file
  hitsz-autonet init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", defaultInitPath(),
		"Output file path for the credentials file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing credentials file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("credentials file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := configTemplate.ReadFile("templates/config.env")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created credentials file: %s\n", outputPath)
	fmt.Fprintln(out, "\nFill in HITSZ_USERNAME and HITSZ_PASSWORD, then run:")
	fmt.Fprintf(out, "  hitsz-autonet --once --config %s\n", outputPath)
	fmt.Fprintf(out, "  hitsz-autonet service install --config %s\n", outputPath)

	return nil
}
