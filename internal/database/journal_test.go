package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/hitsz-autonet/internal/model"
)

// setupTestJournal creates a temporary journal for testing.
func setupTestJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() {
		_ = j.Close()
	})
	return j
}

func attemptAt(t time.Time, outcome model.Outcome) *model.Attempt {
	a := model.NewAttempt(model.Credentials{Username: "2023311000", Password: "secret"}, t)
	a.Duration = 5200 * time.Millisecond
	if outcome == model.OutcomeSuccess {
		a.Succeed(model.VerifiedPageStatus)
	} else {
		a.Fail(outcome, errors.New(outcome.String()))
	}
	return a
}

// TestOpen tests journal opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates journal in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		j, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open journal: %v", err)
		}
		defer j.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("journal file was not created")
		}
		if j.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", j.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when journal does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "missing")
		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error for missing journal")
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("directory should not have been created")
		}
	})

	t.Run("CreateIfNotExists=false opens existing journal", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		j, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create journal: %v", err)
		}
		if _, err := j.RecordAttempt(context.Background(), attemptAt(time.Now(), model.OutcomeSuccess)); err != nil {
			t.Fatalf("failed to record attempt: %v", err)
		}
		_ = j.Close()

		reopened, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen journal: %v", err)
		}
		defer reopened.Close()

		got, err := reopened.RecentAttempts(context.Background(), 0)
		if err != nil {
			t.Fatalf("failed to read attempts: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 attempt after reopen, got %d", len(got))
		}
	})
}

// TestRecordAttempt tests that attempts round-trip through the journal.
func TestRecordAttempt(t *testing.T) {
	t.Parallel()

	j := setupTestJournal(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 8, 30, 0, 123000000, time.UTC)
	a := attemptAt(started, model.OutcomeVerificationTimeout)
	a.ProbeAttempts = 3
	a.DriverSource = "cache"
	a.VersionMismatch = true

	id, err := j.RecordAttempt(ctx, a)
	if err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if id == 0 || a.ID != id {
		t.Fatalf("expected attempt ID to be set, got id=%d a.ID=%d", id, a.ID)
	}

	got, err := j.RecentAttempts(ctx, 10)
	if err != nil {
		t.Fatalf("RecentAttempts failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(got))
	}

	r := got[0]
	if !r.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", r.StartedAt, started)
	}
	if r.Duration != 5200*time.Millisecond {
		t.Errorf("Duration = %v", r.Duration)
	}
	if r.Outcome != model.OutcomeVerificationTimeout {
		t.Errorf("Outcome = %v", r.Outcome)
	}
	if r.ProbeAttempts != 3 || r.DriverSource != "cache" || !r.VersionMismatch {
		t.Errorf("diagnostics not preserved: %+v", r)
	}
	if r.Account != a.Account || r.Account == "" {
		t.Errorf("Account = %q, want %q", r.Account, a.Account)
	}
	if r.ErrorMessage != "verification-timeout" {
		t.Errorf("ErrorMessage = %q", r.ErrorMessage)
	}
	if r.Err != nil {
		t.Error("Err should not be restored from the journal")
	}
}

// TestRecentAttempts tests ordering and limits.
func TestRecentAttempts(t *testing.T) {
	t.Parallel()

	j := setupTestJournal(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		if _, err := j.RecordAttempt(ctx, attemptAt(base.Add(time.Duration(i)*time.Minute), model.OutcomeSuccess)); err != nil {
			t.Fatalf("RecordAttempt failed: %v", err)
		}
	}

	t.Run("newest first", func(t *testing.T) {
		t.Parallel()

		got, err := j.RecentAttempts(ctx, 0)
		if err != nil {
			t.Fatalf("RecentAttempts failed: %v", err)
		}
		if len(got) != 5 {
			t.Fatalf("expected 5 attempts, got %d", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].StartedAt.After(got[i-1].StartedAt) {
				t.Errorf("attempts not sorted newest first at %d", i)
			}
		}
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()

		got, err := j.RecentAttempts(ctx, 2)
		if err != nil {
			t.Fatalf("RecentAttempts failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 attempts, got %d", len(got))
		}
		if !got[0].StartedAt.Equal(base.Add(4 * time.Minute)) {
			t.Errorf("expected newest attempt first, got %v", got[0].StartedAt)
		}
	})
}

// TestOutcomeCounts tests aggregation per outcome.
func TestOutcomeCounts(t *testing.T) {
	t.Parallel()

	j := setupTestJournal(t)
	ctx := context.Background()
	now := time.Now()

	outcomes := []model.Outcome{
		model.OutcomeSuccess,
		model.OutcomeSuccess,
		model.OutcomeFormError,
		model.OutcomeDriverError,
		model.OutcomeSuccess,
	}
	for _, o := range outcomes {
		if _, err := j.RecordAttempt(ctx, attemptAt(now, o)); err != nil {
			t.Fatalf("RecordAttempt failed: %v", err)
		}
	}

	counts, err := j.OutcomeCounts(ctx)
	if err != nil {
		t.Fatalf("OutcomeCounts failed: %v", err)
	}

	want := map[model.Outcome]int{
		model.OutcomeSuccess:     3,
		model.OutcomeFormError:   1,
		model.OutcomeDriverError: 1,
	}
	if len(counts) != len(want) {
		t.Errorf("expected %d outcomes, got %v", len(want), counts)
	}
	for o, n := range want {
		if counts[o] != n {
			t.Errorf("counts[%s] = %d, want %d", o, counts[o], n)
		}
	}
}

// TestOutcomeCounts_Empty tests an empty journal.
func TestOutcomeCounts_Empty(t *testing.T) {
	t.Parallel()

	j := setupTestJournal(t)
	counts, err := j.OutcomeCounts(context.Background())
	if err != nil {
		t.Fatalf("OutcomeCounts failed: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("expected no counts, got %v", counts)
	}
}

// TestParseTimestamp tests the timestamp parsing helper.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{"RFC3339Nano", "2026-03-01T08:30:00.123456789Z", false},
		{"RFC3339", "2026-03-01T08:30:00+08:00", false},
		{"SQLite datetime", "2026-03-01 08:30:00", false},
		{"SQLite with milliseconds", "2026-03-01 08:30:00.123", false},
		{"garbage", "yesterday", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v, zero=%v", tt.input, got, tt.zero)
			}
		})
	}
}
