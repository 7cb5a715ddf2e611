package routines

import (
	"testing"

	"github.com/basket/routines/internal/registry"
	"github.com/basket/routines/internal/routine"
)

func TestRegister_InstallsAllRoutines(t *testing.T) {
	reg := registry.New()
	if err := Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	want := []string{
		"alpha.solitude",
		"alpha.solitude.first",
		"alpha.solitude.last",
		"alpha.to_self",
		"alpha.today",
	}
	got := reg.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// Builder names are registry keys; the descriptors carry their own. The two
// must agree or resolution and logging drift apart.
func TestRegister_BuilderNamesMatchDescriptors(t *testing.T) {
	reg := registry.New()
	if err := Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	for _, name := range reg.Names() {
		b, err := reg.Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", name, err)
		}
		desc := b.New(routine.Deps{})
		if desc.Name() != name {
			t.Fatalf("descriptor for %q reports Name() = %q", name, desc.Name())
		}
	}
}

func TestRegister_TwiceFails(t *testing.T) {
	reg := registry.New()
	if err := Register(reg); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := Register(reg); err == nil {
		t.Fatal("second Register() should fail on duplicate names")
	}
}
