package analysis

import (
	"context"
	"math"
	"time"

	"github.com/rmax-ai/fluxlord/pkg/gpr"
	"github.com/rmax-ai/fluxlord/pkg/lp"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// IMAT splits gene-associated reactions into highly and lowly expressed
// sets by threshold, then solves a MILP that maximizes the number of
// agreements: highly expressed reactions carrying at least epsilon flux
// and lowly expressed reactions carrying none. Reactions without a gene
// rule are left out of both sets.
func IMAT(ctx context.Context, solver Solver, m *model.Model, opts Options) (Solution, error) {
	start := time.Now()
	if len(opts.Expression) == 0 {
		return Solution{}, usageErrorf("imat requires expression data")
	}

	p, err := Formulate(m, opts)
	if err != nil {
		return Solution{}, err
	}

	eps := opts.imatEpsilon()
	bigM := opts.BigM
	if bigM <= 0 {
		bigM = derivedBigM(m, opts)
	}

	p.Sense = lp.Maximize
	p.Objective = nil
	high, low := classifyExpression(m, opts)
	for _, id := range high {
		y := "y_high_" + id
		p.AddBinary(y)
		// |v| >= eps when y is on: pos + neg - eps·y >= 0.
		p.AddConstraint("imat_on_"+id, []lp.Term{
			{Var: VarPos(id), Coeff: 1},
			{Var: VarNeg(id), Coeff: 1},
			{Var: y, Coeff: -eps},
		}, lp.GreaterEq, 0)
		p.AddObjectiveTerm(y, 1)
	}
	for _, id := range low {
		y := "y_low_" + id
		p.AddBinary(y)
		// |v| = 0 when y is on: pos + neg <= M·(1-y).
		p.AddConstraint("imat_off_"+id, []lp.Term{
			{Var: VarPos(id), Coeff: 1},
			{Var: VarNeg(id), Coeff: 1},
			{Var: y, Coeff: bigM},
		}, lp.LessEq, bigM)
		p.AddObjectiveTerm(y, 1)
	}
	if len(high)+len(low) == 0 {
		return Solution{}, usageErrorf("imat classified no reactions; check thresholds against expression values")
	}

	raw, err := solver.Solve(ctx, p)
	if err != nil {
		return Solution{}, err
	}
	if raw.Status != lp.StatusOptimal {
		return failed(MethodIMAT, raw, time.Since(start)), nil
	}
	fluxes := netFluxes(m, raw.Values)
	growth := objectiveValue(m, opts, fluxes)
	s := Solution{
		Method:         MethodIMAT.String(),
		Status:         raw.Status,
		ObjectiveValue: growth,
		GrowthRate:     growth,
		Fluxes:         fluxes,
		SolveTime:      time.Since(start),
	}
	s.Normalize()
	return s, nil
}

// classifyExpression buckets gene-associated reactions by their evaluated
// expression level, in declaration order for reproducible problems.
func classifyExpression(m *model.Model, opts Options) (high, low []string) {
	hi, lo := opts.highThreshold(), opts.lowThreshold()
	for _, rxn := range m.Reactions {
		rule := gpr.Parse(rxn.GeneRule)
		if rule.Empty() {
			continue
		}
		level := rule.Level(opts.Expression)
		switch {
		case level >= hi:
			high = append(high, rxn.ID)
		case level <= lo:
			low = append(low, rxn.ID)
		}
	}
	return high, low
}

// derivedBigM sizes the deactivation constant from the largest working
// bound magnitude so it can never cut off a feasible flux.
func derivedBigM(m *model.Model, opts Options) float64 {
	knocked := knockoutSet(opts)
	maxAbs := 1.0
	for _, rxn := range m.Reactions {
		lo, hi := effectiveBounds(rxn, opts, knocked)
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(lo), math.Abs(hi)))
	}
	return 2 * maxAbs
}
