// Package routines assembles the shipped routine families into a registry.
// Adding a routine means adding a builder line here; nothing else in the
// system learns names.
package routines

import (
	"github.com/basket/routines/internal/registry"
	"github.com/basket/routines/internal/routines/alpha"
)

// Register installs every bundled routine into reg. Call it once at startup;
// a duplicate name is a programming error and comes back as one.
func Register(reg *registry.Registry) error {
	return reg.RegisterAll(
		registry.Builder{Name: "alpha.to_self", New: alpha.NewToSelf},
		registry.Builder{Name: "alpha.today", New: alpha.NewToday},
		registry.Builder{Name: "alpha.solitude.first", New: alpha.NewSolitudeFirst},
		registry.Builder{Name: "alpha.solitude", New: alpha.NewSolitude},
		registry.Builder{Name: "alpha.solitude.last", New: alpha.NewSolitudeLast},
	)
}
