package routine

import (
	"context"
	"log/slog"
)

// Defaults supplies the optional half of the Descriptor surface. Embed it
// and override what the routine needs; the zero value declares a stateless
// routine with default tool access whose only output handling is a log line.
type Defaults struct{}

func (Defaults) Session() SessionPolicy { return Stateless() }

func (Defaults) Tools() ToolPolicy { return ToolPolicy{} }

func (Defaults) HandleOutput(_ context.Context, rc Context, output string) error {
	slog.Info("routine output collected", "routine", rc.Routine, "chars", len(output))
	return nil
}
