package main

import (
	"testing"
)

func TestBuildRegistry(t *testing.T) {
	reg, err := buildRegistry()
	if err != nil {
		t.Fatalf("buildRegistry() error = %v", err)
	}

	names := reg.Names()
	want := map[string]bool{
		"alpha.to_self":        true,
		"alpha.today":          true,
		"alpha.solitude.first": true,
		"alpha.solitude":       true,
		"alpha.solitude.last":  true,
	}
	if len(names) != len(want) {
		t.Fatalf("registered %d routines, want %d: %v", len(names), len(want), names)
	}
	for _, name := range names {
		if !want[name] {
			t.Fatalf("unexpected routine %q", name)
		}
	}
}
