package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/sstiscan/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// newResult creates a stored-able result for target that started at started.
func newResult(id, target string, started time.Time, vulnerable bool) *model.ScanResult {
	result := &model.ScanResult{
		ID:         id,
		Target:     target,
		Method:     "GET",
		Vulnerable: vulnerable,
		Attempts: []model.Attempt{
			{Payload: "{{7*7}}", Engine: "Jinja2/Twig", Expected: "49", Outcome: model.OutcomeReflected, StatusCode: 200},
		},
		StartedAt:  started,
		FinishedAt: started.Add(250 * time.Millisecond),
	}
	if vulnerable {
		result.Payload = "${7*7}"
		result.Expected = "49"
		result.Attempts = append(result.Attempts, model.Attempt{
			Payload: "${7*7}", Engine: "Spring/Freemarker/Velocity", Expected: "49", Outcome: model.OutcomeEvaluated, StatusCode: 200,
		})
	}
	return result
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")

		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if !errors.Is(err, ErrDatabaseNotFound) {
			t.Fatalf("expected ErrDatabaseNotFound, got %v", err)
		}

		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")
		ctx := context.Background()

		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if err := db1.SaveScanResult(ctx, newResult("a", "http://example.com", time.Now(), false)); err != nil {
			t.Fatalf("failed to save result: %v", err)
		}
		db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database with CreateIfNotExists=false: %v", err)
		}
		defer db2.Close()

		if _, err := db2.GetByID(ctx, "a"); err != nil {
			t.Errorf("expected stored result to persist: %v", err)
		}
	})
}

// TestDefaultOptions tests the default options values.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()

	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true by default")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true by default")
	}
}

func TestSaveAndGetByID(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	want := newResult("0b7c1f7e-6f0a-4b8e-9a43-3f0b1c2d3e4f", "http://example.com/search", started, true)

	if err := db.SaveScanResult(ctx, want); err != nil {
		t.Fatalf("SaveScanResult() error = %v", err)
	}

	got, err := db.GetByID(ctx, want.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Target != want.Target || !got.Vulnerable || got.Payload != "${7*7}" {
		t.Errorf("GetByID() = %+v", got)
	}
	if len(got.Attempts) != 2 || got.Attempts[1].Outcome != model.OutcomeEvaluated {
		t.Errorf("attempts = %+v", got.Attempts)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}

	t.Run("saving the same ID replaces the row", func(t *testing.T) {
		want.Target = "http://example.com/other"
		if err := db.SaveScanResult(ctx, want); err != nil {
			t.Fatalf("SaveScanResult() error = %v", err)
		}
		history, err := db.GetHistory(ctx, "")
		if err != nil {
			t.Fatal(err)
		}
		if len(history) != 1 || history[0].Target != "http://example.com/other" {
			t.Errorf("history = %+v", history)
		}
	})
}

func TestGetByIDNotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)

	_, err := db.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrScanNotFound) {
		t.Errorf("expected ErrScanNotFound, got %v", err)
	}
}

func TestGetHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	results := []*model.ScanResult{
		newResult("1", "http://a.example", base, false),
		newResult("2", "http://b.example", base.Add(time.Minute), true),
		newResult("3", "http://a.example", base.Add(2*time.Minute), true),
	}
	for _, r := range results {
		if err := db.SaveScanResult(ctx, r); err != nil {
			t.Fatalf("SaveScanResult() error = %v", err)
		}
	}

	t.Run("all targets newest first", func(t *testing.T) {
		t.Parallel()

		history, err := db.GetHistory(ctx, "")
		if err != nil {
			t.Fatal(err)
		}
		if len(history) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(history))
		}
		if history[0].ID != "3" || history[2].ID != "1" {
			t.Errorf("unexpected order: %s, %s, %s", history[0].ID, history[1].ID, history[2].ID)
		}
	})

	t.Run("single target with metadata", func(t *testing.T) {
		t.Parallel()

		history, err := db.GetHistory(ctx, "http://a.example")
		if err != nil {
			t.Fatal(err)
		}
		if len(history) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(history))
		}

		latest := history[0]
		if !latest.Vulnerable || latest.Payload != "${7*7}" {
			t.Errorf("latest = %+v", latest)
		}
		if latest.Duration != 250*time.Millisecond {
			t.Errorf("Duration = %v", latest.Duration)
		}
		if latest.OutcomeSummary["evaluated"] != 1 || latest.OutcomeSummary["reflected"] != 1 {
			t.Errorf("OutcomeSummary = %v", latest.OutcomeSummary)
		}
		if !latest.StartedAt.Equal(base.Add(2 * time.Minute)) {
			t.Errorf("StartedAt = %v", latest.StartedAt)
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		t.Parallel()

		history, err := db.GetHistory(ctx, "http://none.example")
		if err != nil {
			t.Fatal(err)
		}
		if len(history) != 0 {
			t.Errorf("expected no entries, got %d", len(history))
		}
	})

	t.Run("list targets", func(t *testing.T) {
		t.Parallel()

		targets, err := db.ListTargets(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(targets) != 2 || targets[0] != "http://a.example" || targets[1] != "http://b.example" {
			t.Errorf("ListTargets() = %v", targets)
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "2026-01-02 03:04:05", want: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{in: "2026-01-02 03:04:05.250000", want: time.Date(2026, 1, 2, 3, 4, 5, 250000000, time.UTC)},
		{in: "2026-01-02T03:04:05Z", want: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{in: "not a time", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.in); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
