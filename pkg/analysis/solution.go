package analysis

import (
	"time"

	"github.com/rmax-ai/fluxlord/pkg/lp"
)

// GrowthEpsilon separates a viable growth rate from numerical noise.
const GrowthEpsilon = 1e-6

// Phenotype classifies what a solution says about the modeled strain.
const (
	PhenotypeViable  = "viable"
	PhenotypeLethal  = "lethal"
	PhenotypeUnknown = "unknown"
)

// Range is a reaction's attainable flux interval from a variability scan.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Comparison carries the per-reaction flux shifts of a two-condition run.
type Comparison struct {
	ControlObjective   float64            `json:"control_objective"`
	TreatmentObjective float64            `json:"treatment_objective"`
	ControlFluxes      map[string]float64 `json:"control_fluxes"`
	TreatmentFluxes    map[string]float64 `json:"treatment_fluxes"`
	// RelativeChange is (treatment-control)/max(|control|, GrowthEpsilon).
	RelativeChange map[string]float64 `json:"relative_change"`
}

// Solution is the uniform result shape every method returns.
type Solution struct {
	Method         string             `json:"method"`
	Strategy       string             `json:"strategy,omitempty"`
	Status         lp.Status          `json:"status"`
	ObjectiveValue float64            `json:"objective_value"`
	GrowthRate     float64            `json:"growth_rate"`
	Phenotype      string             `json:"phenotype"`
	Fluxes         map[string]float64 `json:"fluxes,omitempty"`
	Ranges         map[string]Range   `json:"ranges,omitempty"`
	Comparison     *Comparison        `json:"comparison,omitempty"`
	SolveTime      time.Duration      `json:"solve_time_ns"`
	Err            string             `json:"error,omitempty"`
}

// Normalize fills the derived fields from the raw ones. It is idempotent:
// normalizing an already-normalized solution changes nothing.
func (s *Solution) Normalize() {
	if s.Status != lp.StatusOptimal {
		s.Fluxes = nil
		s.ObjectiveValue = 0
		s.GrowthRate = 0
	}
	switch {
	case s.Status == lp.StatusOptimal && s.GrowthRate > GrowthEpsilon:
		s.Phenotype = PhenotypeViable
	case s.Status == lp.StatusOptimal || s.Status == lp.StatusInfeasible:
		s.Phenotype = PhenotypeLethal
	default:
		s.Phenotype = PhenotypeUnknown
	}
}

// failed builds a normalized non-optimal solution for a method.
func failed(method Method, raw lp.RawSolution, elapsed time.Duration) Solution {
	s := Solution{
		Method:    method.String(),
		Status:    raw.Status,
		Err:       raw.Err,
		SolveTime: elapsed,
	}
	s.Normalize()
	return s
}
