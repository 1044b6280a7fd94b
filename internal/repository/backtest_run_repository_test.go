package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

const skipIntegrationMsg = "Integration test - requires database setup"

// fakeRows replays canned scan values so scanRuns can be tested without a
// database. Each row is the 16 values in backtestRunColumns order.
type fakeRows struct {
	rows [][]any
	idx  int
	err  error
}

func (f *fakeRows) Next() bool {
	if f.idx >= len(f.rows) {
		return false
	}
	f.idx++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	row := f.rows[f.idx-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *uuid.UUID:
			*d = v.(uuid.UUID)
		case *time.Time:
			*d = v.(time.Time)
		case *string:
			*d = v.(string)
		case *[]string:
			*d = v.([]string)
		case *float64:
			*d = v.(float64)
		case **float64:
			if v == nil {
				*d = nil
			} else {
				fv := v.(float64)
				*d = &fv
			}
		case **string:
			if v == nil {
				*d = nil
			} else {
				s := v.(string)
				*d = &s
			}
		default:
			return errors.New("unsupported scan destination")
		}
	}
	return nil
}

func (f *fakeRows) Err() error { return f.err }

func sampleRow(id uuid.UUID) []any {
	now := time.Date(2025, 9, 23, 12, 0, 0, 0, time.UTC)
	start := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 9, 23, 0, 0, 0, 0, time.UTC)
	return []any{
		id, now, start, end, []string{"TTWO", "LUG"}, "scripted",
		100000.0, 104500.0, 4.5, 1.2, nil,
		-2.5, "2025-09-17", "OMXS30", 1.1, now,
	}
}

func TestScanRuns(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	rows := &fakeRows{rows: [][]any{sampleRow(first), sampleRow(second)}}

	runs, err := scanRuns(rows)
	if err != nil {
		t.Fatalf("scanRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("run IDs not preserved in order")
	}
	if runs[0].ModelName != "scripted" {
		t.Errorf("expected model name scripted, got %q", runs[0].ModelName)
	}
	if runs[0].SharpeRatio == nil || *runs[0].SharpeRatio != 1.2 {
		t.Errorf("sharpe ratio not scanned")
	}
	if runs[0].SortinoRatio != nil {
		t.Errorf("expected nil sortino ratio")
	}
	if runs[0].MaxDrawdownDate == nil || *runs[0].MaxDrawdownDate != "2025-09-17" {
		t.Errorf("max drawdown date not scanned")
	}
}

func TestScanRunsPropagatesRowError(t *testing.T) {
	rowErr := errors.New("connection reset")
	rows := &fakeRows{err: rowErr}

	runs, err := scanRuns(rows)
	if !errors.Is(err, rowErr) {
		t.Fatalf("expected row error, got %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

// TestBacktestRunRepositoryRoundTrip exercises SaveRun/GetByID against a live
// database.
func TestBacktestRunRepositoryRoundTrip(t *testing.T) {
	// db, err := database.NewDB(ctx, cfg)
	// repo := NewPostgresBacktestRunRepository(db)
	// run := &models.BacktestRun{ID: uuid.New(), ...}
	// repo.SaveRun(ctx, run) then repo.GetByID(ctx, run.ID)
	t.Skip(skipIntegrationMsg)
}
