package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/basket/routines/internal/persistence"
)

func TestRenderHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderHistory(&buf, nil)
	if got := buf.String(); got != "no runs recorded\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestRenderHistory_Rows(t *testing.T) {
	started := time.Date(2025, 6, 1, 22, 30, 0, 0, time.UTC)
	finished := started.Add(1200 * time.Millisecond)

	runs := []persistence.Run{
		{
			ID:         "run-1",
			Routine:    "alpha.to_self",
			Status:     persistence.RunStatusSucceeded,
			StartedAt:  started,
			FinishedAt: &finished,
		},
		{
			ID:        "run-2",
			Routine:   "alpha.today",
			Status:    persistence.RunStatusFailed,
			StartedAt: started,
			Error:     "agent exploded",
		},
	}

	var buf bytes.Buffer
	renderHistory(&buf, runs)
	out := buf.String()

	if !strings.Contains(out, "alpha.to_self") || !strings.Contains(out, "SUCCEEDED") {
		t.Fatalf("finished run missing:\n%s", out)
	}
	if !strings.Contains(out, "1.2s") {
		t.Fatalf("duration missing:\n%s", out)
	}
	if !strings.Contains(out, "alpha.today") || !strings.Contains(out, "FAILED") {
		t.Fatalf("failed run missing:\n%s", out)
	}
	if !strings.Contains(out, "agent exploded") {
		t.Fatalf("error text missing:\n%s", out)
	}
	// An unfinished run renders a placeholder duration.
	if !strings.Contains(out, "-") {
		t.Fatalf("placeholder duration missing:\n%s", out)
	}
}

func TestRunHistoryCommand_BadFlag(t *testing.T) {
	if code := runHistoryCommand(context.Background(), []string{"-n", "many"}); code != 2 {
		t.Fatalf("got exit code %d, want 2", code)
	}
}

func TestRunHistoryCommand_TooManyArgs(t *testing.T) {
	if code := runHistoryCommand(context.Background(), []string{"a", "b"}); code != 2 {
		t.Fatalf("got exit code %d, want 2", code)
	}
}

func TestRunHistoryCommand_EmptyLedger(t *testing.T) {
	t.Setenv("ROUTINES_HOME", t.TempDir())

	if code := runHistoryCommand(context.Background(), nil); code != 0 {
		t.Fatalf("got exit code %d, want 0", code)
	}
}
