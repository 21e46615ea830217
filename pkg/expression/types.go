// Package expression loads gene expression profiles for the
// expression-conditioned analysis methods (E-Flux, GIMME, iMAT, MADE).
package expression

import (
	"context"
)

// ProviderID identifies a specific expression source (e.g., "file", "mock")
type ProviderID string

// Profile is one measured condition: normalized expression level per gene id.
type Profile struct {
	Condition string
	Levels    map[string]float64
}

// Provider defines the interface for expression data sources
type Provider interface {
	// ID returns the unique identifier for this provider
	ID() ProviderID

	// Fetch retrieves the expression profile for the named condition.
	// An empty condition selects the source's only (or default) profile.
	Fetch(ctx context.Context, condition string) (Profile, error)
}
