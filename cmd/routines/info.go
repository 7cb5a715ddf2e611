package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/basket/routines/internal/routine"
)

func runInfoCommand(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: routines info <routine>")
		return 2
	}

	reg, err := buildRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "registry: %v\n", err)
		return 1
	}
	builder, err := reg.Resolve(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// Builders promise metadata without I/O, so zero deps are fine here.
	renderInfo(os.Stdout, builder.New(routine.Deps{}))
	return 0
}

func renderInfo(w io.Writer, desc routine.Descriptor) {
	fmt.Fprintln(w, desc.Name())

	policy := desc.Session()
	if key, ok := policy.Key(); ok {
		fmt.Fprintf(w, "  session key:  %s\n", key)
		if ttl, ok := policy.TTL(); ok {
			fmt.Fprintf(w, "  session ttl:  %s\n", ttl)
		}
	} else {
		fmt.Fprintln(w, "  session:      (stateless)")
	}
	if policy.Forks() {
		if src, ok := policy.ReadKey(); ok {
			fmt.Fprintf(w, "  forks from:   %s\n", src)
		}
	}

	allowed, disallowed := desc.Tools().Resolve()
	switch {
	case allowed != nil && len(allowed) == 0:
		fmt.Fprintln(w, "  tools:        (none)")
	case allowed != nil:
		fmt.Fprintf(w, "  tools:        %s\n", strings.Join(allowed, ", "))
	default:
		fmt.Fprintln(w, "  tools:        (default set)")
	}
	if len(disallowed) > 0 {
		fmt.Fprintf(w, "  disallowed:   %s\n", strings.Join(disallowed, ", "))
	}
}
