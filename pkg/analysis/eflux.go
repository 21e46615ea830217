package analysis

import (
	"context"
	"time"

	"github.com/rmax-ai/fluxlord/pkg/gpr"
	"github.com/rmax-ai/fluxlord/pkg/lp"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// EFlux runs FBA with each reaction's bounds scaled by the continuous GPR
// evaluation of its expression levels: enzyme capacity tracks transcript
// abundance. Reactions without a gene rule keep their full bounds.
func EFlux(ctx context.Context, solver Solver, m *model.Model, opts Options) (Solution, error) {
	start := time.Now()
	if len(opts.Expression) == 0 {
		return Solution{}, usageErrorf("eflux requires expression data")
	}

	scales := expressionScales(m, opts.Expression)
	p, err := FormulateScaled(m, opts, scales)
	if err != nil {
		return Solution{}, err
	}
	raw, err := solver.Solve(ctx, p)
	if err != nil {
		return Solution{}, err
	}
	if raw.Status != lp.StatusOptimal {
		return failed(MethodEFlux, raw, time.Since(start)), nil
	}
	fluxes := netFluxes(m, raw.Values)
	s := Solution{
		Method:         MethodEFlux.String(),
		Status:         raw.Status,
		ObjectiveValue: raw.Objective,
		GrowthRate:     raw.Objective,
		Fluxes:         fluxes,
		SolveTime:      time.Since(start),
	}
	s.Normalize()
	return s, nil
}

// expressionScales evaluates each gene rule against expression levels,
// clamped into [0,1]. Reactions with empty rules are left unscaled.
func expressionScales(m *model.Model, levels map[string]float64) map[string]float64 {
	scales := make(map[string]float64)
	for _, rxn := range m.Reactions {
		rule := gpr.Parse(rxn.GeneRule)
		if rule.Empty() {
			continue
		}
		level := rule.Level(levels)
		if level < 0 {
			level = 0
		}
		if level > 1 {
			level = 1
		}
		scales[rxn.ID] = level
	}
	return scales
}
