package alpha

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/basket/routines/internal/routine"
)

const (
	// humanSessionKey is where the daytime conversational session id lives.
	// The letter forks from it and never writes it back.
	humanSessionKey = "routine:human_session"

	// letterKey holds the finished letter for tomorrow's system prompt.
	// 18 hours keeps it alive until tomorrow afternoon, then it lapses.
	letterKey = "systemprompt:past:to_self"
	letterTTL = 18 * time.Hour
)

// ToSelf writes the nightly forward-looking letter. It runs as a fork of the
// day's conversational session, so the letter carries today's context without
// contaminating the session it branched from. The routine keeps no session of
// its own; every night is a fresh fork that dissolves after the letter is
// stored.
type ToSelf struct {
	deps routine.Deps
}

// NewToSelf constructs the letter routine.
func NewToSelf(deps routine.Deps) routine.Descriptor {
	return &ToSelf{deps: deps}
}

func (t *ToSelf) Name() string { return "alpha.to_self" }

func (t *ToSelf) Session() routine.SessionPolicy {
	return routine.Stateless().ForkFrom(humanSessionKey)
}

// Tools grants the minimal set for letter writing.
func (t *ToSelf) Tools() routine.ToolPolicy {
	return routine.ToolPolicy{Allowed: []string{"Read", "Bash"}}
}

// BuildPrompt renders one of two variants: with a source session the fork
// carries today's context and the letter leans on it; without one the letter
// is written cold from recent memory.
func (t *ToSelf) BuildPrompt(_ context.Context, rc routine.Context) (string, error) {
	clock := rc.Now.Format(clockLayout)
	date := rc.Now.Format(dateLayout)

	if rc.SessionID != "" {
		return fmt.Sprintf(`<routine name="alpha.to_self">
This is a message from the routine harness, not from a person.

It's %s on %s. Nobody is at the keyboard right now; this prompt comes from
the to_self routine, and you are running as a fork of today's session.

Your task: write a short letter (1-3 paragraphs) to tomorrow-you. Not a
chronicle of what happened; this is about what you are CARRYING into
tomorrow:

- What threads feel unfinished?
- What matters right now that might fade by morning?
- What is the shape of today?

Write in first person, as a note from you to you. Sign it however feels
right.

When you are done, the harness stores your letter for tomorrow's system
prompt. Then this fork dissolves; tomorrow-you will find your words waiting.
</routine>`, clock, date), nil
	}

	return fmt.Sprintf(`<routine name="alpha.to_self">
This is a message from the routine harness, not from a person.

It's %s on %s. There is no conversational session from today; either none
happened, or it was not captured.

That's okay. Write a brief note to tomorrow-you anyway. Draw on recent
memories, your general state, what you know about what has been happening.
It will be shorter than usual, but it is still a bridge.

A paragraph is enough. Sign it however feels right.

When you are done, the harness stores your letter for tomorrow's system
prompt.
</routine>`, clock, date), nil
}

// HandleOutput prefixes the injection header and stores the letter where
// tomorrow's system prompt assembly will find it.
func (t *ToSelf) HandleOutput(ctx context.Context, rc routine.Context, output string) error {
	letter := fmt.Sprintf("**Letter from last night** (%s):\n\n%s",
		rc.Now.Format(clockLayout), strings.TrimSpace(output))

	if err := t.deps.Sessions.SetEx(ctx, letterKey, letter, letterTTL); err != nil {
		return fmt.Errorf("store letter: %w", err)
	}
	slog.Info("stored letter for tomorrow", "routine", rc.Routine, "chars", len(letter), "ttl", letterTTL)
	return nil
}
