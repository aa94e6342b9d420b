package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/hitsz-autonet/internal/config"
	"github.com/nao1215/hitsz-autonet/internal/database"
	"github.com/nao1215/hitsz-autonet/internal/model"
	"github.com/nao1215/hitsz-autonet/internal/report"
)

// defaultHistoryLimit is the number of attempts shown by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent login attempts",
		Long: `History prints the login attempts recorded by the monitor, newest first,
with a summary of outcomes over the whole journal.

Examples:
  # Show the last 20 attempts
  hitsz-autonet history

  # Show the last 100 attempts as JSON
  hitsz-autonet history --limit 100 --json

  # Markdown report with an outcome chart
  hitsz-autonet history --markdown > history.md`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Number of attempts to show (0 shows all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the attempt journal")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	if limit < 0 {
		return errors.New("--limit must not be negative")
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	format, err := historyFormat(cmd)
	if err != nil {
		return err
	}

	journal, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no login history yet: %w", err)
	}
	defer journal.Close()

	ctx := cmd.Context()
	attempts, err := journal.RecentAttempts(ctx, limit)
	if err != nil {
		return err
	}
	counts, err := journal.OutcomeCounts(ctx)
	if err != nil {
		return err
	}

	w, err := report.NewWriter(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	_, err = w.Write(model.NewHistory(attempts, counts, time.Now()))
	return err
}

// historyFormat maps the output flags to a report format.
func historyFormat(cmd *cobra.Command) (report.Format, error) {
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return "", err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return "", err
	}

	switch {
	case jsonOut:
		return report.FormatJSON, nil
	case markdownOut:
		return report.FormatMarkdown, nil
	default:
		return report.FormatText, nil
	}
}
