package alpha

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/basket/routines/internal/routine"
)

func TestToSelf_Metadata(t *testing.T) {
	r := NewToSelf(routine.Deps{})

	if got := r.Name(); got != "alpha.to_self" {
		t.Fatalf("Name() = %q, want %q", got, "alpha.to_self")
	}

	policy := r.Session()
	if !policy.Forks() {
		t.Fatal("expected a forking session policy")
	}
	if key, ok := policy.ReadKey(); !ok || key != "routine:human_session" {
		t.Fatalf("ReadKey() = %q, %v, want %q, true", key, ok, "routine:human_session")
	}
	if key, ok := policy.Key(); ok {
		t.Fatalf("Key() = %q, expected no write key", key)
	}

	allowed, disallowed := r.Tools().Resolve()
	if want := []string{"Read", "Bash"}; len(allowed) != len(want) || allowed[0] != want[0] || allowed[1] != want[1] {
		t.Fatalf("allowed tools = %v, want %v", allowed, want)
	}
	if len(disallowed) != 0 {
		t.Fatalf("disallowed tools = %v, want none", disallowed)
	}
}

func TestToSelf_PromptWithSession(t *testing.T) {
	r := NewToSelf(routine.Deps{})
	rc := runContext(nightClock, "alpha.to_self", "sess-from-today")

	prompt, err := r.BuildPrompt(context.Background(), rc)
	if err != nil {
		t.Fatalf("BuildPrompt() error = %v", err)
	}

	if !strings.HasPrefix(prompt, `<routine name="alpha.to_self">`) {
		t.Fatalf("prompt missing envelope, got prefix %q", prompt[:40])
	}
	if !strings.Contains(prompt, "It's 9:45 PM on Sunday, June 1.") {
		t.Fatalf("prompt missing formatted time and date:\n%s", prompt)
	}
	if !strings.Contains(prompt, "fork of today's session") {
		t.Fatal("expected the forked-session variant")
	}
	if !strings.HasSuffix(strings.TrimSpace(prompt), "</routine>") {
		t.Fatal("prompt not closed with </routine>")
	}
}

func TestToSelf_PromptWithoutSession(t *testing.T) {
	r := NewToSelf(routine.Deps{})
	rc := runContext(nightClock, "alpha.to_self", "")

	prompt, err := r.BuildPrompt(context.Background(), rc)
	if err != nil {
		t.Fatalf("BuildPrompt() error = %v", err)
	}

	if !strings.Contains(prompt, "no conversational session from today") {
		t.Fatal("expected the no-session variant")
	}
	if strings.Contains(prompt, "fork of today's session") {
		t.Fatal("no-session variant must not claim a fork")
	}
}

func TestToSelf_HandleOutputStoresLetter(t *testing.T) {
	store := newFakeStore()
	r := NewToSelf(routine.Deps{Sessions: store})
	rc := runContext(nightClock, "alpha.to_self", "sess-from-today")

	err := r.HandleOutput(context.Background(), rc, "  Dear tomorrow, keep going.  \n")
	if err != nil {
		t.Fatalf("HandleOutput() error = %v", err)
	}

	got := store.values["systemprompt:past:to_self"]
	want := "**Letter from last night** (9:45 PM):\n\nDear tomorrow, keep going."
	if got != want {
		t.Fatalf("stored letter = %q, want %q", got, want)
	}
	if ttl := store.ttls["systemprompt:past:to_self"]; ttl != 18*time.Hour {
		t.Fatalf("letter ttl = %v, want %v", ttl, 18*time.Hour)
	}
}

func TestToSelf_HandleOutputStoreError(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("store offline")
	r := NewToSelf(routine.Deps{Sessions: store})
	rc := runContext(nightClock, "alpha.to_self", "")

	err := r.HandleOutput(context.Background(), rc, "a letter")
	if err == nil {
		t.Fatal("expected an error when the store write fails")
	}
	if !strings.Contains(err.Error(), "store letter") {
		t.Fatalf("error = %v, want store letter context", err)
	}
}
