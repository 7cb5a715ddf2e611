// Package agent dispatches prompts to the external coding agent and
// streams back its output. The harness talks to the Dispatcher interface
// only; the concrete CLIDispatcher shells out to the claude binary.
package agent

import "context"

// EventKind discriminates the events on a dispatch stream.
type EventKind int

const (
	// EventText carries one streamed chunk of assistant text.
	EventText EventKind = iota
	// EventResult is the terminal event: the stream carries exactly one,
	// as its last element, after which the channel is closed.
	EventResult
)

// Event is one element of a dispatch stream. Text is set on EventText.
// SessionID and Err are set on EventResult; a non-nil Err means the
// dispatch failed and any SessionID must not be trusted.
type Event struct {
	Kind      EventKind
	Text      string
	SessionID string
	Err       error
}

// Request describes a single agent invocation.
type Request struct {
	// Prompt is the full prompt text. Required.
	Prompt string

	// Client and Pattern identify the caller to downstream hooks via the
	// agent's custom request headers, e.g. "routine:alpha.today" / "alpha".
	Client  string
	Pattern string

	// Resume names the session to continue. Empty starts a fresh session.
	Resume string

	// Fork branches off the resumed session, leaving it untouched.
	// Ignored when Resume is empty.
	Fork bool

	// Allowed restricts the agent to the listed tools. A nil slice leaves
	// the agent's own defaults in place; an empty non-nil slice grants no
	// tools at all.
	Allowed []string

	// Disallowed blocks the listed tools.
	Disallowed []string
}

// Dispatcher runs one agent invocation and exposes its output as a finite,
// ordered event stream. The returned channel is closed after the terminal
// EventResult. Callers abandon a stream by cancelling ctx; the dispatcher
// reaps the underlying process either way.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) (<-chan Event, error)
}
