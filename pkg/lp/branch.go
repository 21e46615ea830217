package lp

import (
	"context"
	"math"
)

const integralityTol = 1e-6

// branchAndBound solves a mixed-integer problem by depth-first branching on
// fractional integer variables of the LP relaxation. The formulations built
// on top of this only carry binary indicators, so trees stay shallow; the
// node cap is a safety valve, not a tuning knob.
func branchAndBound(ctx context.Context, p *Problem, opts Options) RawSolution {
	maxNodes := opts.MaxNodes
	if maxNodes <= 0 {
		maxNodes = 100000
	}

	intVars := make([]int, 0)
	for j := range p.Variables {
		if p.Variables[j].Kind != Continuous {
			intVars = append(intVars, j)
		}
	}

	type node struct {
		lower []float64
		upper []float64
	}
	rootLower := make([]float64, len(p.Variables))
	rootUpper := make([]float64, len(p.Variables))
	for j := range p.Variables {
		rootLower[j] = p.Variables[j].Lower
		rootUpper[j] = p.Variables[j].Upper
	}
	stack := []node{{lower: rootLower, upper: rootUpper}}

	var (
		incumbent    RawSolution
		hasIncumbent bool
		sawTimeout   bool
		nodes        int
	)

	better := func(obj float64) bool {
		if !hasIncumbent {
			return true
		}
		gap := opts.MipGap * math.Max(1, math.Abs(incumbent.Objective))
		if p.Sense == Maximize {
			return obj > incumbent.Objective+gap
		}
		return obj < incumbent.Objective-gap
	}
	// canImprove prunes nodes whose relaxation bound cannot beat the incumbent.
	canImprove := func(bound float64) bool {
		if !hasIncumbent {
			return true
		}
		gap := opts.MipGap * math.Max(1, math.Abs(incumbent.Objective))
		if p.Sense == Maximize {
			return bound > incumbent.Objective+gap+integralityTol
		}
		return bound < incumbent.Objective-gap-integralityTol
	}

	for len(stack) > 0 {
		if ctx.Err() != nil || (!opts.Deadline.IsZero() && timeNow().After(opts.Deadline)) {
			sawTimeout = true
			break
		}
		if nodes >= maxNodes {
			break
		}
		nodes++

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		relaxed := relax(p, nd.lower, nd.upper)
		rel := simplex(ctx, relaxed, opts)
		switch rel.Status {
		case StatusInfeasible:
			continue
		case StatusUnbounded:
			if nodes == 1 {
				return rel
			}
			continue
		case StatusTimeout:
			sawTimeout = true
			continue
		case StatusError:
			return rel
		}

		if !canImprove(rel.Objective) {
			continue
		}

		branchVar := -1
		var frac float64
		for _, j := range intVars {
			v := rel.Values[p.Variables[j].Name]
			f := math.Abs(v - math.Round(v))
			if f > integralityTol && f > frac {
				frac = f
				branchVar = j
			}
		}
		if branchVar < 0 {
			// Integral relaxation: candidate incumbent.
			if better(rel.Objective) {
				incumbent = rel
				hasIncumbent = true
			}
			continue
		}

		v := rel.Values[p.Variables[branchVar].Name]
		downUpper := append([]float64(nil), nd.upper...)
		downUpper[branchVar] = math.Floor(v)
		upLower := append([]float64(nil), nd.lower...)
		upLower[branchVar] = math.Ceil(v)

		if nd.lower[branchVar] <= downUpper[branchVar] {
			stack = append(stack, node{lower: nd.lower, upper: downUpper})
		}
		if upLower[branchVar] <= nd.upper[branchVar] {
			stack = append(stack, node{lower: upLower, upper: nd.upper})
		}
	}

	budgetExceeded := sawTimeout || nodes >= maxNodes && len(stack) > 0

	if hasIncumbent {
		// Round the integer variables to clean values before reporting.
		for _, j := range intVars {
			name := p.Variables[j].Name
			incumbent.Values[name] = math.Round(incumbent.Values[name])
		}
		if budgetExceeded {
			// Incumbent found but optimality not proven within budget;
			// timeout tells the caller a bigger budget may do better.
			incumbent.Status = StatusTimeout
		}
		return incumbent
	}
	if budgetExceeded {
		return RawSolution{Status: StatusTimeout}
	}
	return RawSolution{Status: StatusInfeasible}
}

// relax clones the problem with node bounds and all variables continuous.
func relax(p *Problem, lower, upper []float64) *Problem {
	vars := make([]Variable, len(p.Variables))
	for j := range p.Variables {
		vars[j] = Variable{
			Name:  p.Variables[j].Name,
			Lower: lower[j],
			Upper: upper[j],
			Kind:  Continuous,
		}
	}
	return &Problem{
		Sense:       p.Sense,
		Objective:   p.Objective,
		Variables:   vars,
		Constraints: p.Constraints,
	}
}
