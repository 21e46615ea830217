package analysis

import (
	"context"
	"time"

	"github.com/rmax-ai/fluxlord/pkg/lp"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// PFBA performs parsimonious FBA: a first stage finds the optimal
// objective value, a second stage minimizes total absolute flux while
// holding the objective within the optimality tolerance of that value.
// The split encoding makes sum-of-absolute-values the plain sum of all
// pos and neg variables.
func PFBA(ctx context.Context, solver Solver, m *model.Model, opts Options) (Solution, error) {
	start := time.Now()
	p, err := Formulate(m, opts)
	if err != nil {
		return Solution{}, err
	}
	stage1, err := solver.Solve(ctx, p)
	if err != nil {
		return Solution{}, err
	}
	if stage1.Status != lp.StatusOptimal {
		return failed(MethodPFBA, stage1, time.Since(start)), nil
	}

	growthTerms := p.Objective
	addObjectiveFloor(p, growthTerms, stage1.Objective, 1-opts.optimalityTolerance())
	p.Sense = lp.Minimize
	p.Objective = nil
	for i := range p.Variables {
		p.AddObjectiveTerm(p.Variables[i].Name, 1)
	}

	stage2, err := solver.Solve(ctx, p)
	if err != nil {
		return Solution{}, err
	}
	if stage2.Status != lp.StatusOptimal {
		return failed(MethodPFBA, stage2, time.Since(start)), nil
	}
	fluxes := netFluxes(m, stage2.Values)
	growth := objectiveValue(m, opts, fluxes)
	s := Solution{
		Method:         MethodPFBA.String(),
		Status:         stage2.Status,
		ObjectiveValue: growth,
		GrowthRate:     growth,
		Fluxes:         fluxes,
		SolveTime:      time.Since(start),
	}
	s.Normalize()
	return s, nil
}
