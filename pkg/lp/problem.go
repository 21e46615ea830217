// Package lp defines a backend-neutral linear/mixed-integer problem shape and
// an in-process solver for it: a dense two-phase simplex for pure LPs and a
// branch-and-bound layer over the relaxation for integer variables.
//
// The problem shape is deliberately plain — ordered variables, ordered
// constraints, explicit relations — so it serializes cleanly across the
// worker channel and the remote solve service without translation.
package lp

// Sense is the optimization direction.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// VarKind is the integrality class of a variable.
type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

// Relation is a constraint comparison.
type Relation int

const (
	Equal Relation = iota
	LessEq
	GreaterEq
)

func (r Relation) String() string {
	switch r {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	}
	return "="
}

// Term is one coefficient of a linear expression, referencing a variable by
// name.
type Term struct {
	Var   string  `json:"var"`
	Coeff float64 `json:"coeff"`
}

// Variable is a decision variable with box bounds.
type Variable struct {
	Name  string  `json:"name"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Kind  VarKind `json:"kind"`
}

// Constraint is a named linear constraint: Terms Relation RHS.
type Constraint struct {
	Name     string   `json:"name"`
	Terms    []Term   `json:"terms"`
	Relation Relation `json:"relation"`
	RHS      float64  `json:"rhs"`
}

// Problem is a complete LP/MILP instance. Instances are built fresh per solve
// and never mutated afterwards.
type Problem struct {
	Sense       Sense        `json:"sense"`
	Objective   []Term       `json:"objective"`
	Variables   []Variable   `json:"variables"`
	Constraints []Constraint `json:"constraints"`
}

// AddVariable appends a continuous variable with the given box bounds.
func (p *Problem) AddVariable(name string, lower, upper float64) {
	p.Variables = append(p.Variables, Variable{Name: name, Lower: lower, Upper: upper, Kind: Continuous})
}

// AddBinary appends a binary [0,1] variable.
func (p *Problem) AddBinary(name string) {
	p.Variables = append(p.Variables, Variable{Name: name, Lower: 0, Upper: 1, Kind: Binary})
}

// AddObjectiveTerm appends a term to the objective.
func (p *Problem) AddObjectiveTerm(name string, coeff float64) {
	p.Objective = append(p.Objective, Term{Var: name, Coeff: coeff})
}

// AddConstraint appends a named constraint.
func (p *Problem) AddConstraint(name string, terms []Term, rel Relation, rhs float64) {
	p.Constraints = append(p.Constraints, Constraint{Name: name, Terms: terms, Relation: rel, RHS: rhs})
}

// IsMixedInteger reports whether any variable requires integrality.
func (p *Problem) IsMixedInteger() bool {
	for i := range p.Variables {
		if p.Variables[i].Kind != Continuous {
			return true
		}
	}
	return false
}

// Size is the dispatch-relevant problem size: variables plus constraints.
func (p *Problem) Size() int {
	return len(p.Variables) + len(p.Constraints)
}

func (p *Problem) varIndex() map[string]int {
	idx := make(map[string]int, len(p.Variables))
	for i := range p.Variables {
		idx[p.Variables[i].Name] = i
	}
	return idx
}
