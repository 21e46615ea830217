package analysis

import (
	"context"
	"math"
	"time"

	"github.com/rmax-ai/fluxlord/pkg/lp"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// MOMA minimizes the L1 distance between the perturbed flux state and a
// reference distribution, on the assumption that a freshly perturbed
// strain has not re-optimized its regulation. The reference comes from the
// options or, failing that, from an unperturbed FBA solve.
func MOMA(ctx context.Context, solver Solver, m *model.Model, opts Options) (Solution, error) {
	start := time.Now()

	// The auto reference is the true wild type: native bounds, no
	// knockouts, no environmental overrides. The perturbed solve below
	// still honors both.
	ref := opts.ReferenceFluxes
	if ref == nil {
		wild := opts
		wild.Knockouts = nil
		wild.Overrides = nil
		base, err := FBA(ctx, solver, m, wild)
		if err != nil {
			return Solution{}, err
		}
		if base.Status != lp.StatusOptimal {
			base.Method = MethodMOMA.String()
			return base, nil
		}
		ref = base.Fluxes
	}

	p, err := Formulate(m, opts)
	if err != nil {
		return Solution{}, err
	}

	// Each reaction gets a split deviation d = v - ref, encoded as
	// v - d_pos + d_neg = ref with d_pos, d_neg >= 0; minimizing their sum
	// minimizes sum |v - ref|.
	p.Sense = lp.Minimize
	p.Objective = nil
	for _, rxn := range m.Reactions {
		dpos := "d_" + rxn.ID + "_pos"
		dneg := "d_" + rxn.ID + "_neg"
		p.AddVariable(dpos, 0, math.Inf(1))
		p.AddVariable(dneg, 0, math.Inf(1))
		p.AddConstraint("dev_"+rxn.ID, []lp.Term{
			{Var: VarPos(rxn.ID), Coeff: 1},
			{Var: VarNeg(rxn.ID), Coeff: -1},
			{Var: dpos, Coeff: -1},
			{Var: dneg, Coeff: 1},
		}, lp.Equal, ref[rxn.ID])
		p.AddObjectiveTerm(dpos, 1)
		p.AddObjectiveTerm(dneg, 1)
	}

	raw, err := solver.Solve(ctx, p)
	if err != nil {
		return Solution{}, err
	}
	if raw.Status != lp.StatusOptimal {
		return failed(MethodMOMA, raw, time.Since(start)), nil
	}
	fluxes := netFluxes(m, raw.Values)
	growth := objectiveValue(m, opts, fluxes)
	s := Solution{
		Method:         MethodMOMA.String(),
		Status:         raw.Status,
		ObjectiveValue: growth,
		GrowthRate:     growth,
		Fluxes:         fluxes,
		SolveTime:      time.Since(start),
	}
	s.Normalize()
	return s, nil
}
