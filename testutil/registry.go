package testutil

import (
	"time"

	"github.com/skosovsky/tutorkit"
)

// NewTestRegistry returns a Registry with a long timeout and panic recovery.
func NewTestRegistry(tools ...tutorkit.Tool) *tutorkit.Registry {
	reg := tutorkit.NewRegistry(
		tutorkit.WithDefaultTimeout(30*time.Second),
		tutorkit.WithRecoverPanics(true),
	)
	reg.Register(tools...)
	return reg
}
