package analysis

import (
	"math"

	"github.com/rmax-ai/fluxlord/pkg/gpr"
	"github.com/rmax-ai/fluxlord/pkg/lp"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// VarPos and VarNeg name the split halves of a reaction's net flux
// v = pos - neg. Every algorithm reads fluxes back through these names.
func VarPos(reactionID string) string { return "v_" + reactionID + "_pos" }
func VarNeg(reactionID string) string { return "v_" + reactionID + "_neg" }

// effectiveBounds resolves a reaction's working bounds: request overrides
// win over native bounds, and a knockout forces [0,0] regardless of either.
func effectiveBounds(rxn model.Reaction, opts Options, knocked map[string]struct{}) (float64, float64) {
	lo, hi := rxn.LowerBound, rxn.UpperBound
	if b, ok := opts.Overrides[rxn.ID]; ok {
		if b.Lower != nil {
			lo = *b.Lower
		}
		if b.Upper != nil {
			hi = *b.Upper
		}
	}
	if len(knocked) > 0 && rxn.GeneRule != "" {
		active := activeGenes(rxn, knocked)
		if !gpr.Parse(rxn.GeneRule).Active(active) {
			return 0, 0
		}
	}
	return lo, hi
}

// activeGenes builds the active set for a rule: every gene the rule
// mentions except those knocked out.
func activeGenes(rxn model.Reaction, knocked map[string]struct{}) map[string]struct{} {
	rule := gpr.Parse(rxn.GeneRule)
	active := make(map[string]struct{})
	for _, g := range rule.Genes() {
		if _, out := knocked[g]; !out {
			active[g] = struct{}{}
		}
	}
	return active
}

func knockoutSet(opts Options) map[string]struct{} {
	if len(opts.Knockouts) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(opts.Knockouts))
	for _, g := range opts.Knockouts {
		set[g] = struct{}{}
	}
	return set
}

// Formulate builds the steady-state flux problem in split-variable form:
// one nonnegative pos/neg pair per reaction and one mass-balance equality
// per metabolite. The objective maximizes the model's objective reactions
// unless the options name a different one.
func Formulate(m *model.Model, opts Options) (*lp.Problem, error) {
	return formulate(m, opts, nil)
}

// FormulateScaled is Formulate with per-reaction bound scales in [0,1]
// applied after overrides and knockouts. Reactions missing from scales
// keep their working bounds.
func FormulateScaled(m *model.Model, opts Options, scales map[string]float64) (*lp.Problem, error) {
	return formulate(m, opts, scales)
}

func formulate(m *model.Model, opts Options, scales map[string]float64) (*lp.Problem, error) {
	if len(m.Reactions) == 0 {
		return nil, usageErrorf("model has no reactions")
	}
	knocked := knockoutSet(opts)

	p := &lp.Problem{Sense: lp.Maximize}
	for _, rxn := range m.Reactions {
		lo, hi := effectiveBounds(rxn, opts, knocked)
		// Scaling shrinks capacity toward zero: only the reverse capacity
		// (lo < 0) and forward capacity (hi > 0) contract. A forced positive
		// lower bound stays forced.
		if scale, ok := scales[rxn.ID]; ok {
			if lo < 0 {
				lo *= scale
			}
			if hi > 0 {
				hi *= scale
			}
		}
		if lo > hi {
			return nil, usageErrorf("reaction %q has lower bound %g above upper bound %g", rxn.ID, lo, hi)
		}
		p.AddVariable(VarPos(rxn.ID), math.Max(0, lo), math.Max(0, hi))
		p.AddVariable(VarNeg(rxn.ID), math.Max(0, -hi), math.Max(0, -lo))
	}

	mat := model.BuildMatrix(m)
	balances := make(map[string][]lp.Term, len(mat.Metabolites))
	for _, e := range mat.Entries {
		met := mat.Metabolites[e.Row]
		rxn := mat.Reactions[e.Col]
		balances[met] = append(balances[met],
			lp.Term{Var: VarPos(rxn), Coeff: e.Val},
			lp.Term{Var: VarNeg(rxn), Coeff: -e.Val},
		)
	}
	for _, met := range mat.Metabolites {
		terms := balances[met]
		if len(terms) == 0 {
			continue
		}
		p.AddConstraint("mass_"+met, terms, lp.Equal, 0)
	}

	terms, err := objectiveTerms(m, opts)
	if err != nil {
		return nil, err
	}
	p.Objective = terms
	return p, nil
}

// objectiveTerms expands the objective into split-variable terms. An
// explicit Options.Objective must name a known reaction.
func objectiveTerms(m *model.Model, opts Options) ([]lp.Term, error) {
	if opts.Objective != "" {
		if m.Reaction(opts.Objective) == nil {
			return nil, usageErrorf("objective reaction %q not in model", opts.Objective)
		}
		return reactionExpression(opts.Objective, 1), nil
	}
	ids := m.ObjectiveReactions()
	if len(ids) == 0 {
		return nil, usageErrorf("model declares no objective reaction")
	}
	var terms []lp.Term
	for _, id := range ids {
		coeff := m.ObjectiveCoefficient(id)
		if coeff == 0 {
			coeff = 1
		}
		terms = append(terms, reactionExpression(id, coeff)...)
	}
	return terms, nil
}

// reactionExpression is coeff·v for a reaction, in split form.
func reactionExpression(reactionID string, coeff float64) []lp.Term {
	return []lp.Term{
		{Var: VarPos(reactionID), Coeff: coeff},
		{Var: VarNeg(reactionID), Coeff: -coeff},
	}
}

// addObjectiveFloor pins the original objective at or above a fraction of
// a previously solved optimum. For a negative optimum the scaled value
// moves toward zero, so the floor is widened instead of tightened.
func addObjectiveFloor(p *lp.Problem, objective []lp.Term, optimum, fraction float64) {
	floor := optimum * fraction
	if optimum < 0 {
		floor = optimum * (2 - fraction)
	}
	p.AddConstraint("objective_floor", append([]lp.Term(nil), objective...), lp.GreaterEq, floor)
}

// netFluxes folds a raw split-variable solution back into per-reaction
// net fluxes.
func netFluxes(m *model.Model, values map[string]float64) map[string]float64 {
	fluxes := make(map[string]float64, len(m.Reactions))
	for _, rxn := range m.Reactions {
		fluxes[rxn.ID] = values[VarPos(rxn.ID)] - values[VarNeg(rxn.ID)]
	}
	return fluxes
}

// objectiveValue evaluates coeff·v terms against net fluxes.
func objectiveValue(m *model.Model, opts Options, fluxes map[string]float64) float64 {
	if opts.Objective != "" {
		return fluxes[opts.Objective]
	}
	var total float64
	for _, id := range m.ObjectiveReactions() {
		coeff := m.ObjectiveCoefficient(id)
		if coeff == 0 {
			coeff = 1
		}
		total += coeff * fluxes[id]
	}
	return total
}
