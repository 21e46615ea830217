package analysis

import (
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// Validate runs every usage check a method performs before it touches a
// solver, without building the problem. The dispatcher calls it ahead of
// strategy selection so an invalid request fails the same way whether it
// would have run in process, on the worker channel, or remotely.
func Validate(method Method, m *model.Model, opts Options) error {
	if m == nil || len(m.Reactions) == 0 {
		return usageErrorf("model has no reactions")
	}
	knocked := knockoutSet(opts)
	for _, rxn := range m.Reactions {
		lo, hi := effectiveBounds(rxn, opts, knocked)
		if lo > hi {
			return usageErrorf("reaction %q has lower bound %g above upper bound %g", rxn.ID, lo, hi)
		}
	}
	if _, err := objectiveTerms(m, opts); err != nil {
		return err
	}

	switch method {
	case MethodFVA:
		for _, id := range opts.Reactions {
			if m.Reaction(id) == nil {
				return usageErrorf("reaction %q not in model", id)
			}
		}
	case MethodEFlux:
		if len(opts.Expression) == 0 {
			return usageErrorf("eflux requires expression data")
		}
	case MethodGIMME:
		if len(opts.Expression) == 0 {
			return usageErrorf("gimme requires expression data")
		}
	case MethodIMAT:
		if len(opts.Expression) == 0 {
			return usageErrorf("imat requires expression data")
		}
	case MethodMADE:
		if len(opts.Treatment) == 0 {
			return usageErrorf("made requires a treatment expression condition")
		}
		if len(opts.Control) == 0 && len(opts.Expression) == 0 {
			return usageErrorf("made requires a control expression condition")
		}
	case MethodFBA, MethodPFBA, MethodMOMA:
	default:
		return usageErrorf("unknown method %q", method.String())
	}
	return nil
}
