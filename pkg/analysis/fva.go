package analysis

import (
	"context"
	"time"

	"github.com/rmax-ai/fluxlord/pkg/lp"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// FVA computes, for each requested reaction, the minimum and maximum flux
// it can carry while the objective stays at or above fractionOfOptimum of
// its optimum. With fraction 1 every blocked-by-optimality reaction
// collapses to a point interval.
//
// A failing subproblem aborts the scan but returns the ranges completed so
// far alongside the failing status.
func FVA(ctx context.Context, solver Solver, m *model.Model, opts Options) (Solution, error) {
	start := time.Now()
	p, err := Formulate(m, opts)
	if err != nil {
		return Solution{}, err
	}
	base, err := solver.Solve(ctx, p)
	if err != nil {
		return Solution{}, err
	}
	if base.Status != lp.StatusOptimal {
		return failed(MethodFVA, base, time.Since(start)), nil
	}

	growthTerms := p.Objective
	addObjectiveFloor(p, growthTerms, base.Objective, opts.fractionOfOptimum())

	targets := opts.Reactions
	if len(targets) == 0 {
		targets = make([]string, 0, len(m.Reactions))
		for _, rxn := range m.Reactions {
			targets = append(targets, rxn.ID)
		}
	} else {
		for _, id := range targets {
			if m.Reaction(id) == nil {
				return Solution{}, usageErrorf("reaction %q not in model", id)
			}
		}
	}

	ranges := make(map[string]Range, len(targets))
	for i, id := range targets {
		r, raw, err := scanReaction(ctx, solver, p, id)
		if err != nil {
			return Solution{}, err
		}
		if raw.Status != lp.StatusOptimal {
			s := failed(MethodFVA, raw, time.Since(start))
			s.Ranges = ranges
			return s, nil
		}
		ranges[id] = r
		opts.report(ProgressEvent{Method: MethodFVA, Completed: i + 1, Total: len(targets), Reaction: id})
	}

	s := Solution{
		Method:         MethodFVA.String(),
		Status:         lp.StatusOptimal,
		ObjectiveValue: base.Objective,
		GrowthRate:     base.Objective,
		Ranges:         ranges,
		SolveTime:      time.Since(start),
	}
	s.Normalize()
	return s, nil
}

// scanReaction solves the min and max flux subproblems for one reaction
// over the floored feasible region.
func scanReaction(ctx context.Context, solver Solver, p *lp.Problem, reactionID string) (Range, lp.RawSolution, error) {
	p.Objective = reactionExpression(reactionID, 1)

	p.Sense = lp.Minimize
	lo, err := solver.Solve(ctx, p)
	if err != nil || lo.Status != lp.StatusOptimal {
		return Range{}, lo, err
	}

	p.Sense = lp.Maximize
	hi, err := solver.Solve(ctx, p)
	if err != nil || hi.Status != lp.StatusOptimal {
		return Range{}, hi, err
	}
	return Range{Min: lo.Objective, Max: hi.Objective}, hi, nil
}
