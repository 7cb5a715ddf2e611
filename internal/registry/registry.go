// Package registry maps fully qualified routine names to their builders.
// A Registry is an owned instance constructed at startup and handed to the
// CLI and harness; there is no package-level global, so tests build fresh
// registries freely.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/basket/routines/internal/routine"
)

// Builder couples a routine's identity to its factory so registration can
// key on the name without constructing the routine.
type Builder struct {
	// Name is the routine's fully qualified name, e.g. "alpha.to_self".
	Name string

	// New constructs the descriptor. It must not perform I/O: live
	// connections are first touched inside BuildPrompt or HandleOutput,
	// which keeps metadata lookups cheap.
	New func(deps routine.Deps) routine.Descriptor
}

// NotFoundError reports an unknown routine name. Known carries every
// registered name, lexicographically sorted, for operator diagnostics.
type NotFoundError struct {
	Name  string
	Known []string
}

func (e *NotFoundError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown routine %q (none registered)", e.Name)
	}
	return fmt.Sprintf("unknown routine %q, available: %s", e.Name, strings.Join(e.Known, ", "))
}

// Registry maps routine names to builders, read-only after startup
// registration.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register records b under b.Name. Registering the same name twice is a
// startup configuration error, not a silent overwrite.
func (r *Registry) Register(b Builder) error {
	if b.Name == "" {
		return fmt.Errorf("routine builder has no name")
	}
	if b.New == nil {
		return fmt.Errorf("routine %q has no factory", b.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.builders[b.Name]; exists {
		return fmt.Errorf("routine %q already registered", b.Name)
	}
	r.builders[b.Name] = b
	slog.Debug("registered routine", "routine", b.Name)
	return nil
}

// RegisterAll registers every builder in order, stopping at the first error.
func (r *Registry) RegisterAll(bs ...Builder) error {
	for _, b := range bs {
		if err := r.Register(b); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the builder for name. Unknown names yield *NotFoundError
// carrying the full sorted list of known names.
func (r *Registry) Resolve(name string) (Builder, error) {
	r.mu.RLock()
	b, ok := r.builders[name]
	r.mu.RUnlock()
	if !ok {
		return Builder{}, &NotFoundError{Name: name, Known: r.Names()}
	}
	return b, nil
}

// Names returns a sorted, duplicate-free snapshot of registered names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered routines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.builders)
}
