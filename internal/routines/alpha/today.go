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
	// summaryKey holds the rolling summary; the sibling time key records when
	// it was written. They live apart so whatever assembles the system prompt
	// can render its own header: this routine produces content, presentation
	// happens elsewhere.
	summaryKey     = "systemprompt:past:today"
	summaryTimeKey = summaryKey + ":time"

	// 65 minutes: a little over the hourly cadence, so a missed run leaves a
	// gap instead of a stale summary.
	summaryTTL = 65 * time.Minute

	// The day starts at 6 AM for summary purposes. Anything stored before
	// that belongs to the night.
	dayStartHour = 6
)

// Today produces the rolling today-so-far summary. It runs hourly through the
// day, reads everything stored in the memory store since morning, and distills
// it into a handoff the next prompt can inject. Each run is independent; no
// session, no fork.
type Today struct {
	routine.Defaults
	deps routine.Deps
}

// NewToday constructs the summary routine.
func NewToday(deps routine.Deps) routine.Descriptor {
	return &Today{deps: deps}
}

func (t *Today) Name() string { return "alpha.today" }

// Tools returns an explicit empty allowlist. Summarization needs no tools at
// all, which is different from leaving the default set in place.
func (t *Today) Tools() routine.ToolPolicy {
	return routine.ToolPolicy{Allowed: []string{}}
}

// BuildPrompt interpolates the day's memories, oldest first. A missing memory
// store degrades to the fresh-day prompt rather than failing the run.
func (t *Today) BuildPrompt(ctx context.Context, rc routine.Context) (string, error) {
	clock := rc.Now.Format(clockLayout)
	date := rc.Now.Format(dateLayout)

	var memories []routine.Memory
	if t.deps.Memories != nil {
		var err error
		memories, err = t.deps.Memories.Since(ctx, dayStart(rc.Now))
		if err != nil {
			return "", fmt.Errorf("fetch memories: %w", err)
		}
	} else {
		slog.Warn("memory store not configured, treating today as empty", "routine", rc.Routine)
	}
	slog.Info("fetched today's memories", "routine", rc.Routine, "count", len(memories))

	if len(memories) == 0 {
		return fmt.Sprintf(`<routine name="alpha.today">
This is a message from the routine harness, not from a person.

It's %s on %s. You have not stored any memories yet today; the day is just
getting started.

Your task: write a single sentence acknowledging that today is fresh and
new. Something like "Today just started, no memories stored yet."

That's it. Short and simple.
</routine>`, clock, date), nil
	}

	entries := make([]string, len(memories))
	for i, m := range memories {
		entries[i] = fmt.Sprintf("[%s]\n%s",
			m.CreatedAt.In(rc.Now.Location()).Format(clockLayout), m.Content)
	}

	return fmt.Sprintf(`<routine name="alpha.today">
This is a message from the routine harness, not from a person.

It's %s on %s. Here is everything you have stored since 6 AM today:

---

%s

---

That's %d memories from today so far.

Your task: write a brief summary of today so far. What happened, what the
mood is, what matters. It will be injected into your context on the next
prompt, so future-you keeps a continuous sense of the day even if the
context window has compacted since.

Think of it like: if you woke up right now with no memory of today, what
would you need to know to feel oriented? What is the shape of today?

Write in present tense where it makes sense ("today is..."), past tense for
completed things. Keep it concise but include texture, not just facts. A
paragraph or two, maybe three if it has been a full day.

No headers, no bullet points. Just the handoff.
</routine>`, clock, date, strings.Join(entries, "\n\n---\n\n"), len(memories)), nil
}

// HandleOutput stores the trimmed summary and its timestamp under sibling
// keys, both on the same clock.
func (t *Today) HandleOutput(ctx context.Context, rc routine.Context, output string) error {
	summary := strings.TrimSpace(output)

	if err := t.deps.Sessions.SetEx(ctx, summaryKey, summary, summaryTTL); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}
	if err := t.deps.Sessions.SetEx(ctx, summaryTimeKey, rc.Now.Format(clockLayout), summaryTTL); err != nil {
		return fmt.Errorf("store summary time: %w", err)
	}
	slog.Info("stored today summary", "routine", rc.Routine, "chars", len(summary), "ttl", summaryTTL)
	return nil
}

// dayStart returns 6 AM of now's calendar day, in now's location.
func dayStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), dayStartHour, 0, 0, 0, now.Location())
}
