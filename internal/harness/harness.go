// Package harness executes routines. A run is five ordered phases around a
// single agent dispatch: read session state, build the prompt, dispatch,
// write session state back, hand the collected output to the routine.
// One logical thread, no retries, no compensating actions.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/basket/routines/internal/agent"
	rotel "github.com/basket/routines/internal/otel"
	"github.com/basket/routines/internal/persistence"
	"github.com/basket/routines/internal/routine"
	"github.com/basket/routines/internal/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// Options holds the harness collaborators. Sessions and Dispatcher are
// required; everything else degrades to a no-op when absent.
type Options struct {
	Sessions   routine.SessionStore
	Dispatcher agent.Dispatcher

	// Ledger records run history. Nil records nothing.
	Ledger *persistence.Ledger

	// Tracer and Metrics instrument runs. Nil means noop.
	Tracer  trace.Tracer
	Metrics *rotel.Metrics

	// Out receives streamed agent text as it arrives. Defaults to stdout.
	Out io.Writer

	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// Harness runs routines against the configured stores and dispatcher.
type Harness struct {
	sessions   routine.SessionStore
	dispatcher agent.Dispatcher
	ledger     *persistence.Ledger
	tracer     trace.Tracer
	metrics    *rotel.Metrics
	out        io.Writer
	now        func() time.Time
}

// New builds a Harness from opts, filling in defaults for optional fields.
func New(opts Options) *Harness {
	h := &Harness{
		sessions:   opts.Sessions,
		dispatcher: opts.Dispatcher,
		ledger:     opts.Ledger,
		tracer:     opts.Tracer,
		metrics:    opts.Metrics,
		out:        opts.Out,
		now:        opts.Now,
	}
	if h.tracer == nil {
		h.tracer = nooptrace.NewTracerProvider().Tracer(rotel.ScopeName)
	}
	if h.out == nil {
		h.out = os.Stdout
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Run executes one routine invocation end to end and returns the collected
// agent output. The returned error is one of *StoreError, *DispatchError,
// *OutputError, or a prompt-building failure; in every error case the
// output is lost to the caller.
func (h *Harness) Run(ctx context.Context, desc routine.Descriptor) (string, error) {
	name := desc.Name()
	runID := shared.NewRunID()
	ctx = shared.WithRunID(ctx, runID)
	ctx = shared.WithRoutine(ctx, name)

	started := h.now()
	policy := desc.Session()

	ctx, span := rotel.StartSpan(ctx, h.tracer, "routine.run",
		rotel.AttrRoutine.String(name),
		rotel.AttrPattern.String(patternOf(name)),
		rotel.AttrRunID.String(runID),
	)
	defer span.End()

	// Session read. A single get against the read key; the store is never
	// written here. Missing or expired keys mean a fresh session.
	sessionID := ""
	isNew := true
	if readKey, ok := policy.ReadKey(); ok {
		value, found, err := h.sessions.Get(ctx, readKey)
		if err != nil {
			return "", h.fail(ctx, span, name, runID, started, &StoreError{Op: "get", Key: readKey, Err: err})
		}
		if found {
			sessionID = value
			isNew = false
			slog.Info("session found", "routine", name, "run_id", runID, "key", readKey, "session", shortID(sessionID))
		} else {
			slog.Info("no session found, starting fresh", "routine", name, "run_id", runID, "key", readKey)
		}
	}
	// Forking without a source degenerates to a fresh start.
	forking := policy.Forks() && sessionID != ""
	span.SetAttributes(rotel.AttrNewSession.Bool(isNew), rotel.AttrForked.Bool(forking))

	// Context and prompt. BuildPrompt may read from stores and files but
	// must not write.
	rc := routine.Context{
		Now:          started,
		IsNewSession: isNew,
		SessionID:    sessionID,
		Routine:      name,
		RunID:        runID,
	}
	prompt, err := desc.BuildPrompt(ctx, rc)
	if err != nil {
		return "", h.fail(ctx, span, name, runID, started, fmt.Errorf("build prompt for %s: %w", name, err))
	}
	slog.Info("prompt built", "routine", name, "run_id", runID, "chars", len(prompt))

	if err := h.ledger.RecordStart(ctx, persistence.Run{
		ID:         runID,
		Routine:    name,
		StartedAt:  started,
		SessionID:  sessionID,
		NewSession: isNew,
		Forked:     forking,
	}); err != nil {
		slog.Warn("ledger start record failed", "run_id", runID, "error", err)
	}

	// Dispatch. The sole suspension point of the run: everything before is
	// local or a point read, everything after is a point write.
	allowed, disallowed := desc.Tools().Resolve()
	req := agent.Request{
		Prompt:     prompt,
		Client:     "routine:" + name,
		Pattern:    patternOf(name),
		Resume:     sessionID,
		Fork:       forking,
		Allowed:    allowed,
		Disallowed: disallowed,
	}

	output, captured, err := h.dispatch(ctx, name, req)
	if err != nil {
		return "", h.fail(ctx, span, name, runID, started, &DispatchError{Routine: name, Err: err})
	}

	// Write-back. Exactly one action per run, decided by the session
	// policy and what the read phase found. Forked runs never write: the
	// source session's lineage stays untouched.
	key, keyOK := policy.Key()
	ttl, ttlOK := policy.TTL()
	if keyOK && ttlOK && !forking {
		switch {
		case isNew && captured != "":
			if err := h.sessions.SetEx(ctx, key, captured, ttl); err != nil {
				return "", h.fail(ctx, span, name, runID, started, &StoreError{Op: "setex", Key: key, Err: err})
			}
			slog.Info("session saved", "routine", name, "run_id", runID, "key", key, "session", shortID(captured), "ttl", ttl)
		case !isNew:
			if _, err := h.sessions.Expire(ctx, key, ttl); err != nil {
				return "", h.fail(ctx, span, name, runID, started, &StoreError{Op: "expire", Key: key, Err: err})
			}
			slog.Info("session ttl refreshed", "routine", name, "run_id", runID, "key", key, "ttl", ttl)
		default:
			slog.Warn("agent reported no session id, nothing saved", "routine", name, "run_id", runID, "key", key)
		}
	}

	// Output handling. Failures propagate as-is; the write-back above is
	// deliberately not rolled back.
	if err := desc.HandleOutput(ctx, rc, output); err != nil {
		return "", h.fail(ctx, span, name, runID, started, &OutputError{Routine: name, Err: err})
	}

	finished := h.now()
	finalSession := captured
	if finalSession == "" {
		finalSession = sessionID
	}
	if err := h.ledger.RecordFinish(ctx, runID, persistence.RunResult{
		Status:      persistence.RunStatusSucceeded,
		FinishedAt:  finished,
		SessionID:   finalSession,
		OutputBytes: len(output),
	}); err != nil {
		slog.Warn("ledger finish record failed", "run_id", runID, "error", err)
	}
	h.record(ctx, name, "succeeded", finished.Sub(started))
	if h.metrics != nil {
		h.metrics.OutputBytes.Add(ctx, int64(len(output)), metric.WithAttributes(attribute.String("routine", name)))
	}
	span.SetAttributes(rotel.AttrSessionID.String(finalSession), rotel.AttrOutputBytes.Int(len(output)))

	slog.Info("routine run complete", "routine", name, "run_id", runID, "output_bytes", len(output), "duration", finished.Sub(started))
	return output, nil
}

// dispatch sends the request and consumes the event stream synchronously to
// exhaustion, returning the concatenated text and the terminal session id.
func (h *Harness) dispatch(ctx context.Context, name string, req agent.Request) (output, captured string, err error) {
	dispatchStart := h.now()
	dctx, dspan := rotel.StartClientSpan(ctx, h.tracer, "routine.dispatch",
		rotel.AttrRoutine.String(name),
	)
	defer dspan.End()

	events, err := h.dispatcher.Dispatch(dctx, req)
	if err != nil {
		dspan.RecordError(err)
		dspan.SetStatus(codes.Error, err.Error())
		return "", "", err
	}

	var collected strings.Builder
	sawResult := false
	var streamErr error
	for ev := range events {
		switch ev.Kind {
		case agent.EventText:
			collected.WriteString(ev.Text)
			fmt.Fprint(h.out, ev.Text)
		case agent.EventResult:
			sawResult = true
			captured = ev.SessionID
			streamErr = ev.Err
		}
	}
	fmt.Fprintln(h.out)

	if streamErr == nil && !sawResult {
		if streamErr = ctx.Err(); streamErr == nil {
			streamErr = fmt.Errorf("event stream closed without a result")
		}
	}
	if h.metrics != nil {
		h.metrics.DispatchDuration.Record(ctx, h.now().Sub(dispatchStart).Seconds(),
			metric.WithAttributes(attribute.String("routine", name)))
	}
	if streamErr != nil {
		dspan.RecordError(streamErr)
		dspan.SetStatus(codes.Error, streamErr.Error())
		return "", "", streamErr
	}
	dspan.SetAttributes(rotel.AttrSessionID.String(captured))
	return collected.String(), captured, nil
}

// fail finalizes a failed run: span status, failure metrics, ledger record,
// one error log. Returns err unchanged so callers can return it directly.
func (h *Harness) fail(ctx context.Context, span trace.Span, name, runID string, started time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	finished := h.now()
	if lerr := h.ledger.RecordFinish(ctx, runID, persistence.RunResult{
		Status:     persistence.RunStatusFailed,
		FinishedAt: finished,
		Error:      err.Error(),
	}); lerr != nil {
		slog.Warn("ledger finish record failed", "run_id", runID, "error", lerr)
	}
	h.record(ctx, name, "failed", finished.Sub(started))

	slog.Error("routine run failed", "routine", name, "run_id", runID, "error", err)
	return err
}

func (h *Harness) record(ctx context.Context, name, status string, elapsed time.Duration) {
	if h.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("routine", name),
		attribute.String("status", status),
	)
	h.metrics.RunsTotal.Add(ctx, 1, attrs)
	h.metrics.RunDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// patternOf returns the namespace segment of a routine name:
// "alpha.to_self" has pattern "alpha". Names without a dot are their own
// pattern.
func patternOf(name string) string {
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
