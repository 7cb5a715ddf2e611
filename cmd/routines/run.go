package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/basket/routines/internal/agent"
	"github.com/basket/routines/internal/config"
	"github.com/basket/routines/internal/harness"
	rotel "github.com/basket/routines/internal/otel"
	"github.com/basket/routines/internal/persistence"
	"github.com/basket/routines/internal/routine"
	"github.com/basket/routines/internal/telemetry"
)

func runRunCommand(ctx context.Context, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: routines run <routine>")
		return 2
	}
	name := args[0]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load: %v\n", err)
		return 1
	}

	logger, closer, err := telemetry.NewLogger(cfg.HomeDir, cfg.LogLevel, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		return 1
	}
	defer closer.Close()
	slog.SetDefault(logger)

	reg, err := buildRegistry()
	if err != nil {
		slog.Error("registry init failed", "error", err)
		return 1
	}
	builder, err := reg.Resolve(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	provider, err := rotel.Init(ctx, rotel.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Exporter:       cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		SampleRate:     cfg.Telemetry.SampleRate,
		ServiceVersion: Version,
	})
	if err != nil {
		slog.Error("telemetry init failed", "error", err)
		return 1
	}
	defer provider.Shutdown(ctx)

	metrics, err := rotel.NewMetrics(provider.Meter)
	if err != nil {
		slog.Error("metrics init failed", "error", err)
		return 1
	}

	sessions, err := persistence.OpenSessions(cfg.RedisURL)
	if err != nil {
		slog.Error("session store unavailable", "error", err)
		fmt.Fprintf(os.Stderr, "session store: %v\n", err)
		return 1
	}
	defer sessions.Close()

	memories, err := persistence.OpenMemories(cfg.DatabaseURL)
	if err != nil {
		slog.Error("memory store unavailable", "error", err)
		fmt.Fprintf(os.Stderr, "memory store: %v\n", err)
		return 1
	}
	defer memories.Close()

	ledger, err := persistence.OpenLedger(cfg.LedgerPath())
	if err != nil {
		// History is bookkeeping; a locked ledger must not block the run.
		slog.Warn("ledger unavailable, run will not be recorded", "error", err)
		ledger = nil
	}
	defer ledger.Close()

	deps := routine.Deps{Sessions: sessions, PromptDir: cfg.PromptDir}
	if memories != nil {
		deps.Memories = memories
	}
	desc := builder.New(deps)

	dispatcher := &agent.CLIDispatcher{
		Bin:            cfg.Agent.Bin,
		WorkDir:        cfg.Agent.WorkDir,
		PermissionMode: cfg.Agent.PermissionMode,
		Timeout:        time.Duration(cfg.Agent.TimeoutSeconds) * time.Second,
	}

	h := harness.New(harness.Options{
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Ledger:     ledger,
		Tracer:     provider.Tracer,
		Metrics:    metrics,
		Out:        os.Stdout,
		Now:        func() time.Time { return time.Now().In(cfg.Location()) },
	})

	output, err := h.Run(ctx, desc)
	if err != nil {
		slog.Error("routine run failed", "routine", name, "error", err)
		fmt.Fprintf(os.Stderr, "run %s: %v\n", name, err)
		return 1
	}
	slog.Info("routine run finished", "routine", name, "chars", len(output))
	return 0
}
