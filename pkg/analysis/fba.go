package analysis

import (
	"context"
	"time"

	"github.com/rmax-ai/fluxlord/pkg/lp"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// FBA maximizes the objective reaction subject to steady state and the
// working bounds. This is the baseline every other method builds on.
func FBA(ctx context.Context, solver Solver, m *model.Model, opts Options) (Solution, error) {
	start := time.Now()
	p, err := Formulate(m, opts)
	if err != nil {
		return Solution{}, err
	}
	raw, err := solver.Solve(ctx, p)
	if err != nil {
		return Solution{}, err
	}
	if raw.Status != lp.StatusOptimal {
		return failed(MethodFBA, raw, time.Since(start)), nil
	}
	fluxes := netFluxes(m, raw.Values)
	s := Solution{
		Method:         MethodFBA.String(),
		Status:         raw.Status,
		ObjectiveValue: raw.Objective,
		GrowthRate:     raw.Objective,
		Fluxes:         fluxes,
		SolveTime:      time.Since(start),
	}
	s.Normalize()
	return s, nil
}
