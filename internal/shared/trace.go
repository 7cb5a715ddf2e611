package shared

import (
	"context"

	"github.com/google/uuid"
)

type runIDKey struct{}
type routineKey struct{}

// WithRunID attaches a run_id to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunID extracts run_id from context. Returns "-" if absent.
func RunID(ctx context.Context) string {
	if v, ok := ctx.Value(runIDKey{}).(string); ok && v != "" {
		return v
	}
	return "-"
}

// NewRunID generates a new run_id.
func NewRunID() string {
	return uuid.NewString()
}

// WithRoutine attaches the invoking routine's name to the context.
func WithRoutine(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, routineKey{}, name)
}

// Routine extracts the routine name from context. Returns "" if absent.
func Routine(ctx context.Context) string {
	if v, ok := ctx.Value(routineKey{}).(string); ok {
		return v
	}
	return ""
}
