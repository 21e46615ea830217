package analysis

import (
	"context"
	"math"
	"time"

	"github.com/rmax-ai/fluxlord/pkg/lp"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// MADE contrasts two expression conditions: it solves an expression-scaled
// flux state under the control condition and again under the treatment,
// then reports the per-reaction relative flux shift between them. The
// treatment condition is mandatory; the control falls back to the plain
// expression field.
func MADE(ctx context.Context, solver Solver, m *model.Model, opts Options) (Solution, error) {
	start := time.Now()
	if len(opts.Treatment) == 0 {
		return Solution{}, usageErrorf("made requires a treatment expression condition")
	}
	control := opts.Control
	if len(control) == 0 {
		control = opts.Expression
	}
	if len(control) == 0 {
		return Solution{}, usageErrorf("made requires a control expression condition")
	}

	ctl, err := solveCondition(ctx, solver, m, opts, control)
	if err != nil {
		return Solution{}, err
	}
	if ctl.Status != lp.StatusOptimal {
		return failed(MethodMADE, ctl, time.Since(start)), nil
	}
	trt, err := solveCondition(ctx, solver, m, opts, opts.Treatment)
	if err != nil {
		return Solution{}, err
	}
	if trt.Status != lp.StatusOptimal {
		return failed(MethodMADE, trt, time.Since(start)), nil
	}

	ctlFluxes := netFluxes(m, ctl.Values)
	trtFluxes := netFluxes(m, trt.Values)
	change := make(map[string]float64, len(m.Reactions))
	for _, rxn := range m.Reactions {
		c, t := ctlFluxes[rxn.ID], trtFluxes[rxn.ID]
		change[rxn.ID] = (t - c) / math.Max(math.Abs(c), GrowthEpsilon)
	}

	s := Solution{
		Method:         MethodMADE.String(),
		Status:         lp.StatusOptimal,
		ObjectiveValue: trt.Objective,
		GrowthRate:     trt.Objective,
		Fluxes:         trtFluxes,
		Comparison: &Comparison{
			ControlObjective:   ctl.Objective,
			TreatmentObjective: trt.Objective,
			ControlFluxes:      ctlFluxes,
			TreatmentFluxes:    trtFluxes,
			RelativeChange:     change,
		},
		SolveTime: time.Since(start),
	}
	s.Normalize()
	return s, nil
}

func solveCondition(ctx context.Context, solver Solver, m *model.Model, opts Options, levels map[string]float64) (lp.RawSolution, error) {
	scales := expressionScales(m, levels)
	p, err := FormulateScaled(m, opts, scales)
	if err != nil {
		return lp.RawSolution{}, err
	}
	return solver.Solve(ctx, p)
}
