// Package routine defines the contract between the execution harness and the
// routines it runs: the Descriptor interface every routine implements, the
// per-run Context handed to it, and the session and tool policies it declares.
package routine

import (
	"context"
	"time"
)

// Descriptor is the capability set every routine exposes. The harness never
// branches on routine identity; everything it needs goes through this
// interface.
type Descriptor interface {
	// Name returns the routine's globally unique, dot-namespaced identity,
	// e.g. "alpha.to_self". Immutable; doubles as the registry key.
	Name() string

	// Session declares how the routine's conversational session is tracked
	// across runs.
	Session() SessionPolicy

	// Tools declares the tool capabilities granted to the agent. Queried
	// once per run, before dispatch.
	Tools() ToolPolicy

	// BuildPrompt renders the prompt for this run. It may perform read-only
	// external reads (a session key, a relational query, a prompt file) but
	// must not have side effects beyond logging.
	BuildPrompt(ctx context.Context, rc Context) (string, error)

	// HandleOutput performs the routine's side effect with the collected
	// agent output, typically persisting a derived artifact keyed by time.
	// Called after a successful dispatch; failures propagate un-retried.
	HandleOutput(ctx context.Context, rc Context, output string) error
}

// Context carries the resolved per-run state. The harness constructs it once
// per invocation and passes it by value; routines treat it as read-only.
type Context struct {
	// Now is the current time in the configured reference timezone.
	Now time.Time

	// IsNewSession is true iff no live session identifier was found at
	// resolution time.
	IsNewSession bool

	// SessionID is the identifier read from the store. Empty when absent,
	// and always empty when IsNewSession is true.
	SessionID string

	// Routine is the invoking routine's name, for correlation.
	Routine string

	// RunID identifies this run across logs, spans and the ledger.
	RunID string
}

// SessionStore is the key-value surface the harness and routines depend on:
// get, set-with-expiry, refresh-expiry-only. Keys and values are flat
// strings; expiry is enforced natively by the store.
type SessionStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Memory is one record from the relational memory store. The identifier is
// opaque; only content and creation time carry meaning here.
type Memory struct {
	ID        string
	Content   string
	CreatedAt time.Time
}

// MemoryReader is the time-bounded, ordered read surface over the relational
// store. Implementations degrade to an empty result set when the store is
// not configured.
type MemoryReader interface {
	Since(ctx context.Context, t time.Time) ([]Memory, error)
}

// Deps carries the collaborators injected into routine constructors.
// Descriptors must be constructible from the zero Deps and touch no field
// before BuildPrompt or HandleOutput runs, so metadata commands can build
// them without live connections.
type Deps struct {
	Sessions  SessionStore
	Memories  MemoryReader
	PromptDir string
}
