package analysis

import (
	"context"

	"github.com/rmax-ai/fluxlord/pkg/model"
)

// Run dispatches a method by name. It is the single entry point the
// execution strategies call, so a new method only needs a case here.
func Run(ctx context.Context, solver Solver, m *model.Model, method Method, opts Options) (Solution, error) {
	switch method {
	case MethodFBA:
		return FBA(ctx, solver, m, opts)
	case MethodPFBA:
		return PFBA(ctx, solver, m, opts)
	case MethodFVA:
		return FVA(ctx, solver, m, opts)
	case MethodMOMA:
		return MOMA(ctx, solver, m, opts)
	case MethodEFlux:
		return EFlux(ctx, solver, m, opts)
	case MethodGIMME:
		return GIMME(ctx, solver, m, opts)
	case MethodIMAT:
		return IMAT(ctx, solver, m, opts)
	case MethodMADE:
		return MADE(ctx, solver, m, opts)
	default:
		return Solution{}, usageErrorf("unknown method %q", method.String())
	}
}

// ProblemSize estimates the variable and constraint count a method will
// generate for a model, without building the problem. The dispatcher uses
// it to pick an execution strategy.
func ProblemSize(m *model.Model, method Method, opts Options) int {
	vars := 2 * len(m.Reactions)
	cons := len(m.Metabolites)
	switch method {
	case MethodMOMA:
		vars += 2 * len(m.Reactions)
		cons += len(m.Reactions)
	case MethodIMAT:
		high, low := classifyExpression(m, opts)
		extra := len(high) + len(low)
		vars += extra
		cons += extra
	case MethodPFBA, MethodGIMME:
		cons++ // objective floor
	}
	return vars + cons
}
