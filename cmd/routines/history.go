package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/basket/routines/internal/config"
	"github.com/basket/routines/internal/persistence"
)

func runHistoryCommand(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	limit := fs.Int("n", 20, "number of runs to show")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	if len(rest) > 1 {
		fmt.Fprintln(os.Stderr, "usage: routines history [-n N] [routine]")
		return 2
	}
	name := ""
	if len(rest) == 1 {
		name = rest[0]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load: %v\n", err)
		return 1
	}

	ledger, err := persistence.OpenLedger(cfg.LedgerPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open ledger: %v\n", err)
		return 1
	}
	defer ledger.Close()

	runs, err := ledger.Recent(ctx, name, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read history: %v\n", err)
		return 1
	}

	renderHistory(os.Stdout, runs)
	return 0
}

func renderHistory(w io.Writer, runs []persistence.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	for _, r := range runs {
		dur := "-"
		if r.FinishedAt != nil {
			dur = r.FinishedAt.Sub(r.StartedAt).Round(100 * time.Millisecond).String()
		}
		line := fmt.Sprintf("%s  %-22s %-9s %6s",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Routine, r.Status, dur)
		if r.Error != "" {
			line += "  " + r.Error
		}
		fmt.Fprintln(w, line)
	}
}
