package lp

import (
	"context"
	"fmt"
	"math"
)

const (
	pivotTol = 1e-9
	feasTol  = 1e-7
)

// Solve solves the problem in-process. Pure LPs go straight to the two-phase
// simplex; problems with integer or binary variables go through
// branch-and-bound over the LP relaxation.
//
// The split-variable encoding used by the formulator guarantees every
// variable a finite lower bound; a genuinely free variable is reported as a
// solver error rather than silently clamped.
func Solve(ctx context.Context, p *Problem, opts Options) RawSolution {
	if p.IsMixedInteger() {
		return branchAndBound(ctx, p, opts)
	}
	return simplex(ctx, p, opts)
}

// tableau is a dense two-phase simplex working state. Columns are the shifted
// structural variables followed by slack/surplus and artificial columns; the
// last column is the right-hand side. objRow carries reduced costs with
// objRow[width-1] = -z.
type tableau struct {
	rows   [][]float64
	objRow []float64
	basis  []int
	width  int
	isArt  []bool
	banned []bool
}

type iterOutcome int

const (
	iterOptimal iterOutcome = iota
	iterUnbounded
	iterLimit
	iterTimeout
)

func simplex(ctx context.Context, p *Problem, opts Options) RawSolution {
	n := len(p.Variables)
	idx := p.varIndex()

	for i := range p.Variables {
		v := &p.Variables[i]
		if math.IsInf(v.Lower, -1) {
			return errorSolution(fmt.Sprintf("lp: variable %q has no finite lower bound", v.Name))
		}
		if v.Lower > v.Upper {
			return RawSolution{Status: StatusInfeasible}
		}
	}

	// Minimization costs over the shifted variables x' = x - lower.
	cost := make([]float64, n)
	for _, t := range p.Objective {
		j, ok := idx[t.Var]
		if !ok {
			return errorSolution(fmt.Sprintf("lp: objective references unknown variable %q", t.Var))
		}
		cost[j] += t.Coeff
	}
	if p.Sense == Maximize {
		for j := range cost {
			cost[j] = -cost[j]
		}
	}

	type rawRow struct {
		a   []float64
		rel Relation
		rhs float64
	}
	var raws []rawRow

	for ci := range p.Constraints {
		c := &p.Constraints[ci]
		a := make([]float64, n)
		rhs := c.RHS
		for _, t := range c.Terms {
			j, ok := idx[t.Var]
			if !ok {
				return errorSolution(fmt.Sprintf("lp: constraint %q references unknown variable %q", c.Name, t.Var))
			}
			a[j] += t.Coeff
		}
		// Shift out the lower bounds: a·x rel b  =>  a·x' rel b - a·l.
		for j := range a {
			rhs -= a[j] * p.Variables[j].Lower
		}
		raws = append(raws, rawRow{a: a, rel: c.Relation, rhs: rhs})
	}
	// Finite upper bounds become explicit rows in the shifted space.
	for j := range p.Variables {
		span := p.Variables[j].Upper - p.Variables[j].Lower
		if math.IsInf(span, 1) {
			continue
		}
		a := make([]float64, n)
		a[j] = 1
		raws = append(raws, rawRow{a: a, rel: LessEq, rhs: span})
	}

	// Normalize to nonnegative right-hand sides.
	for i := range raws {
		if raws[i].rhs < 0 {
			for j := range raws[i].a {
				raws[i].a[j] = -raws[i].a[j]
			}
			raws[i].rhs = -raws[i].rhs
			switch raws[i].rel {
			case LessEq:
				raws[i].rel = GreaterEq
			case GreaterEq:
				raws[i].rel = LessEq
			}
		}
	}

	m := len(raws)
	numSlack, numArt := 0, 0
	for i := range raws {
		switch raws[i].rel {
		case LessEq:
			numSlack++
		case GreaterEq:
			numSlack++
			numArt++
		case Equal:
			numArt++
		}
	}

	width := n + numSlack + numArt + 1
	t := &tableau{
		rows:   make([][]float64, m),
		objRow: make([]float64, width),
		basis:  make([]int, m),
		width:  width,
		isArt:  make([]bool, width-1),
		banned: make([]bool, width-1),
	}

	slackCol := n
	artCol := n + numSlack
	for i := range raws {
		row := make([]float64, width)
		copy(row, raws[i].a)
		row[width-1] = raws[i].rhs
		switch raws[i].rel {
		case LessEq:
			row[slackCol] = 1
			t.basis[i] = slackCol
			slackCol++
		case GreaterEq:
			row[slackCol] = -1
			slackCol++
			row[artCol] = 1
			t.isArt[artCol] = true
			t.basis[i] = artCol
			artCol++
		case Equal:
			row[artCol] = 1
			t.isArt[artCol] = true
			t.basis[i] = artCol
			artCol++
		}
		t.rows[i] = row
	}

	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = 400*(m+width) + 2000
	}

	// Phase 1: drive the artificials to zero.
	if numArt > 0 {
		for j := 0; j < width-1; j++ {
			if t.isArt[j] {
				t.objRow[j] = 1
			} else {
				t.objRow[j] = 0
			}
		}
		t.objRow[width-1] = 0
		for i := range t.rows {
			if !t.isArt[t.basis[i]] {
				continue
			}
			for j := 0; j < width; j++ {
				t.objRow[j] -= t.rows[i][j]
			}
		}

		switch t.iterate(ctx, opts, maxIter) {
		case iterTimeout:
			return RawSolution{Status: StatusTimeout}
		case iterLimit:
			return errorSolution("lp: simplex iteration limit reached in phase 1")
		case iterUnbounded:
			// Phase 1 is bounded below by zero; this indicates numeric trouble.
			return errorSolution("lp: phase 1 unbounded")
		}

		if z1 := -t.objRow[width-1]; z1 > feasTol {
			return RawSolution{Status: StatusInfeasible}
		}

		for j := 0; j < width-1; j++ {
			if t.isArt[j] {
				t.banned[j] = true
			}
		}
		// Pivot zero-valued artificials out of the basis where possible;
		// rows that offer no pivot are redundant and stay put harmlessly.
		for i := range t.rows {
			if !t.isArt[t.basis[i]] {
				continue
			}
			for j := 0; j < width-1; j++ {
				if t.banned[j] {
					continue
				}
				if math.Abs(t.rows[i][j]) > pivotTol {
					t.pivot(i, j)
					break
				}
			}
		}
	}

	// Phase 2: the real objective over the current basis.
	for j := 0; j < width-1; j++ {
		if j < n {
			t.objRow[j] = cost[j]
		} else {
			t.objRow[j] = 0
		}
	}
	t.objRow[width-1] = 0
	for i := range t.rows {
		b := t.basis[i]
		if b >= n || cost[b] == 0 {
			continue
		}
		cb := cost[b]
		for j := 0; j < width; j++ {
			t.objRow[j] -= cb * t.rows[i][j]
		}
	}

	switch t.iterate(ctx, opts, maxIter) {
	case iterTimeout:
		return RawSolution{Status: StatusTimeout}
	case iterLimit:
		return errorSolution("lp: simplex iteration limit reached")
	case iterUnbounded:
		return RawSolution{Status: StatusUnbounded}
	}

	shifted := make([]float64, n)
	for i := range t.rows {
		if b := t.basis[i]; b < n {
			shifted[b] = t.rows[i][t.width-1]
		}
	}
	values := make(map[string]float64, n)
	for j := range p.Variables {
		values[p.Variables[j].Name] = p.Variables[j].Lower + shifted[j]
	}
	objective := 0.0
	for _, term := range p.Objective {
		objective += term.Coeff * values[term.Var]
	}
	return RawSolution{Status: StatusOptimal, Objective: objective, Values: values}
}

// iterate pivots until optimality. Dantzig pricing initially, switching to
// Bland's rule after enough iterations to rule out cycling.
func (t *tableau) iterate(ctx context.Context, opts Options, maxIter int) iterOutcome {
	blandAfter := 2 * (len(t.rows) + t.width)
	for iter := 0; iter < maxIter; iter++ {
		if iter%64 == 0 {
			if ctx.Err() != nil {
				return iterTimeout
			}
			if !opts.Deadline.IsZero() && timeNow().After(opts.Deadline) {
				return iterTimeout
			}
		}

		entering := -1
		if iter < blandAfter {
			best := -pivotTol
			for j := 0; j < t.width-1; j++ {
				if t.banned[j] {
					continue
				}
				if t.objRow[j] < best {
					best = t.objRow[j]
					entering = j
				}
			}
		} else {
			for j := 0; j < t.width-1; j++ {
				if !t.banned[j] && t.objRow[j] < -pivotTol {
					entering = j
					break
				}
			}
		}
		if entering < 0 {
			return iterOptimal
		}

		leaving := -1
		bestRatio := math.Inf(1)
		for i := range t.rows {
			aij := t.rows[i][entering]
			if aij <= pivotTol {
				continue
			}
			ratio := t.rows[i][t.width-1] / aij
			if ratio < bestRatio-pivotTol ||
				(ratio < bestRatio+pivotTol && leaving >= 0 && t.basis[i] < t.basis[leaving]) {
				bestRatio = ratio
				leaving = i
			}
		}
		if leaving < 0 {
			return iterUnbounded
		}
		t.pivot(leaving, entering)
	}
	return iterLimit
}

func (t *tableau) pivot(row, col int) {
	pv := t.rows[row][col]
	for j := 0; j < t.width; j++ {
		t.rows[row][j] /= pv
	}
	for i := range t.rows {
		if i == row {
			continue
		}
		factor := t.rows[i][col]
		if factor == 0 {
			continue
		}
		for j := 0; j < t.width; j++ {
			t.rows[i][j] -= factor * t.rows[row][j]
		}
	}
	if factor := t.objRow[col]; factor != 0 {
		for j := 0; j < t.width; j++ {
			t.objRow[j] -= factor * t.rows[row][j]
		}
	}
	t.basis[row] = col
}
