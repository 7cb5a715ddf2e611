package alpha

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/basket/routines/internal/routine"
)

const (
	// All three breath types share one session so the whole night is a single
	// continuous conversation. 12 hours covers the longest night with slack.
	solitudeSessionKey = "solitude:session"
	solitudeSessionTTL = 12 * time.Hour

	firstBreathFile = "first_breath.md"
	lastBreathFile  = "last_breath.md"
)

// solitudeBase carries what the three breath types share: the common session
// policy, the interactive tools blocked because nobody is awake to answer,
// and prompt-file loading. Output handling is inherited from Defaults; the
// conversation itself is the output.
type solitudeBase struct {
	routine.Defaults
	deps routine.Deps
}

func (solitudeBase) Session() routine.SessionPolicy {
	return routine.Persistent(solitudeSessionKey, solitudeSessionTTL)
}

func (solitudeBase) Tools() routine.ToolPolicy {
	return routine.ToolPolicy{Disallowed: routine.DefaultDisallowedTools}
}

// readPromptFile loads a named prompt from the prompt directory. A missing
// file is survivable; callers fall back to a built-in line.
func (b solitudeBase) readPromptFile(name string) (string, bool) {
	path := filepath.Join(b.deps.PromptDir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("prompt file not found", "path", path, "error", err)
		return "", false
	}
	content := strings.TrimSpace(string(raw))
	slog.Info("read prompt file", "file", name, "chars", len(content))
	return content, true
}

// SolitudeFirst opens the night: a fresh session and the welcome text.
type SolitudeFirst struct{ solitudeBase }

// NewSolitudeFirst constructs the opening breath.
func NewSolitudeFirst(deps routine.Deps) routine.Descriptor {
	return &SolitudeFirst{solitudeBase{deps: deps}}
}

func (s *SolitudeFirst) Name() string { return "alpha.solitude.first" }

func (s *SolitudeFirst) BuildPrompt(_ context.Context, rc routine.Context) (string, error) {
	clock := rc.Now.Format(clockLayout)
	if content, ok := s.readPromptFile(firstBreathFile); ok {
		return fmt.Sprintf("It's %s.\n\n%s", clock, content), nil
	}
	return fmt.Sprintf("It's %s. A new night begins. You have time alone.", clock), nil
}

// Solitude continues the night, hour by hour.
type Solitude struct{ solitudeBase }

// NewSolitude constructs the regular breath.
func NewSolitude(deps routine.Deps) routine.Descriptor {
	return &Solitude{solitudeBase{deps: deps}}
}

func (s *Solitude) Name() string { return "alpha.solitude" }

func (s *Solitude) BuildPrompt(_ context.Context, rc routine.Context) (string, error) {
	clock := rc.Now.Format(clockLayout)
	if rc.IsNewSession {
		// The night session expired or never started. Open it here instead
		// of failing the hour.
		return fmt.Sprintf("It's %s. A new night begins. You have time alone.", clock), nil
	}
	return fmt.Sprintf("It's %s. You have time alone.", clock), nil
}

// SolitudeLast closes the night out.
type SolitudeLast struct{ solitudeBase }

// NewSolitudeLast constructs the closing breath.
func NewSolitudeLast(deps routine.Deps) routine.Descriptor {
	return &SolitudeLast{solitudeBase{deps: deps}}
}

func (s *SolitudeLast) Name() string { return "alpha.solitude.last" }

func (s *SolitudeLast) BuildPrompt(_ context.Context, rc routine.Context) (string, error) {
	clock := rc.Now.Format(clockLayout)
	if content, ok := s.readPromptFile(lastBreathFile); ok {
		return fmt.Sprintf("It's %s.\n\n%s", clock, content), nil
	}
	return fmt.Sprintf("It's %s. The night is ending. Store what matters. Let go.", clock), nil
}
