package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := OpenLedger(filepath.Join(t.TempDir(), "routines.db"))
	if err != nil {
		t.Fatalf("OpenLedger() error = %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLedger_RecordAndRecent(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	runs := []Run{
		{ID: "run-1", Routine: "solitude.first", StartedAt: base},
		{ID: "run-2", Routine: "to_self", StartedAt: base.Add(time.Hour), NewSession: true},
		{ID: "run-3", Routine: "solitude.first", StartedAt: base.Add(2 * time.Hour)},
	}
	for _, run := range runs {
		if err := l.RecordStart(ctx, run); err != nil {
			t.Fatalf("RecordStart(%s) error = %v", run.ID, err)
		}
	}

	finish := base.Add(2*time.Hour + 5*time.Minute)
	err := l.RecordFinish(ctx, "run-3", RunResult{
		Status:      RunStatusSucceeded,
		FinishedAt:  finish,
		SessionID:   "sess-xyz",
		OutputBytes: 1024,
	})
	if err != nil {
		t.Fatalf("RecordFinish() error = %v", err)
	}

	got, err := l.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent() returned %d runs, want 3", len(got))
	}
	if got[0].ID != "run-3" || got[1].ID != "run-2" || got[2].ID != "run-1" {
		t.Fatalf("Recent() order = %s, %s, %s; want newest first", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[0].Status != RunStatusSucceeded {
		t.Fatalf("run-3 status = %q, want %q", got[0].Status, RunStatusSucceeded)
	}
	if got[0].FinishedAt == nil || !got[0].FinishedAt.Equal(finish) {
		t.Fatalf("run-3 finished_at = %v, want %v", got[0].FinishedAt, finish)
	}
	if got[0].SessionID != "sess-xyz" || got[0].OutputBytes != 1024 {
		t.Fatalf("run-3 result = (%q, %d), want (%q, 1024)", got[0].SessionID, got[0].OutputBytes, "sess-xyz")
	}
	if got[1].Status != RunStatusRunning {
		t.Fatalf("run-2 status = %q, want %q", got[1].Status, RunStatusRunning)
	}
	if !got[1].NewSession {
		t.Fatalf("run-2 new_session = false, want true")
	}
	if got[1].FinishedAt != nil {
		t.Fatalf("run-2 finished_at = %v, want nil", got[1].FinishedAt)
	}
}

func TestLedger_RecentFiltersByRoutine(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	for i, name := range []string{"today", "to_self", "today"} {
		run := Run{ID: "run-" + name + string(rune('a'+i)), Routine: name, StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := l.RecordStart(ctx, run); err != nil {
			t.Fatalf("RecordStart() error = %v", err)
		}
	}

	got, err := l.Recent(ctx, "today", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent(today) returned %d runs, want 2", len(got))
	}
	for _, run := range got {
		if run.Routine != "today" {
			t.Fatalf("Recent(today) includes routine %q", run.Routine)
		}
	}
}

func TestLedger_RecordFailure(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	if err := l.RecordStart(ctx, Run{ID: "run-err", Routine: "today", StartedAt: start}); err != nil {
		t.Fatalf("RecordStart() error = %v", err)
	}
	err := l.RecordFinish(ctx, "run-err", RunResult{
		Status:     RunStatusFailed,
		FinishedAt: start.Add(time.Second),
		Error:      "dispatch agent: exit status 1",
	})
	if err != nil {
		t.Fatalf("RecordFinish() error = %v", err)
	}

	got, err := l.Recent(ctx, "today", 1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Recent() returned %d runs, want 1", len(got))
	}
	if got[0].Status != RunStatusFailed || got[0].Error != "dispatch agent: exit status 1" {
		t.Fatalf("run = (%q, %q), want failed with error message", got[0].Status, got[0].Error)
	}
}

func TestLedger_NilSafe(t *testing.T) {
	var l *Ledger
	ctx := context.Background()

	if err := l.RecordStart(ctx, Run{ID: "x"}); err != nil {
		t.Fatalf("nil RecordStart() error = %v", err)
	}
	if err := l.RecordFinish(ctx, "x", RunResult{}); err != nil {
		t.Fatalf("nil RecordFinish() error = %v", err)
	}
	runs, err := l.Recent(ctx, "", 5)
	if err != nil {
		t.Fatalf("nil Recent() error = %v", err)
	}
	if runs != nil {
		t.Fatalf("nil Recent() = %v, want nil", runs)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("nil Close() error = %v", err)
	}
}
