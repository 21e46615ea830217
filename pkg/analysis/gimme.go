package analysis

import (
	"context"
	"time"

	"github.com/rmax-ai/fluxlord/pkg/gpr"
	"github.com/rmax-ai/fluxlord/pkg/lp"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// GIMME finds a flux state consistent with expression data: flux through
// reactions whose expression falls below the threshold is penalized in
// proportion to how far below it falls, while the objective is held at or
// above requiredFraction of its unpenalized optimum.
func GIMME(ctx context.Context, solver Solver, m *model.Model, opts Options) (Solution, error) {
	start := time.Now()
	if len(opts.Expression) == 0 {
		return Solution{}, usageErrorf("gimme requires expression data")
	}

	p, err := Formulate(m, opts)
	if err != nil {
		return Solution{}, err
	}
	base, err := solver.Solve(ctx, p)
	if err != nil {
		return Solution{}, err
	}
	if base.Status != lp.StatusOptimal {
		return failed(MethodGIMME, base, time.Since(start)), nil
	}

	growthTerms := p.Objective
	addObjectiveFloor(p, growthTerms, base.Objective, opts.requiredFraction())
	p.Sense = lp.Minimize
	p.Objective = nil
	threshold := opts.gimmeThreshold()
	for _, rxn := range m.Reactions {
		rule := gpr.Parse(rxn.GeneRule)
		if rule.Empty() {
			continue
		}
		level := rule.Level(opts.Expression)
		if level >= threshold {
			continue
		}
		penalty := threshold - level
		p.AddObjectiveTerm(VarPos(rxn.ID), penalty)
		p.AddObjectiveTerm(VarNeg(rxn.ID), penalty)
	}

	raw, err := solver.Solve(ctx, p)
	if err != nil {
		return Solution{}, err
	}
	if raw.Status != lp.StatusOptimal {
		return failed(MethodGIMME, raw, time.Since(start)), nil
	}
	fluxes := netFluxes(m, raw.Values)
	growth := objectiveValue(m, opts, fluxes)
	s := Solution{
		Method:         MethodGIMME.String(),
		Status:         raw.Status,
		ObjectiveValue: growth,
		GrowthRate:     growth,
		Fluxes:         fluxes,
		SolveTime:      time.Since(start),
	}
	s.Normalize()
	return s, nil
}
