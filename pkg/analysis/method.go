// Package analysis implements the flux-analysis algorithm library: the
// split-variable problem formulator, the eight analysis procedures built on
// it, and the normalizer that maps raw solver output into one canonical
// Solution shape regardless of which execution strategy produced it.
//
// Algorithms are pure functions over (model, options); the only state kept
// during a call is the stage-1 optimum a two-stage algorithm feeds into its
// second stage.
package analysis

import "fmt"

// Method is the closed set of analysis algorithms. Dispatch is an exhaustive
// switch over these variants, not a string-keyed registry.
type Method int

const (
	MethodFBA Method = iota
	MethodPFBA
	MethodFVA
	MethodMOMA
	MethodEFlux
	MethodGIMME
	MethodIMAT
	MethodMADE
)

var methodNames = [...]string{
	MethodFBA:   "fba",
	MethodPFBA:  "pfba",
	MethodFVA:   "fva",
	MethodMOMA:  "moma",
	MethodEFlux: "eflux",
	MethodGIMME: "gimme",
	MethodIMAT:  "imat",
	MethodMADE:  "made",
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("method(%d)", int(m))
	}
	return methodNames[m]
}

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	return m >= 0 && int(m) < len(methodNames)
}

// NeedsInteger reports whether the method's formulation requires binary
// variables, which constrains which execution strategies can run it.
func (m Method) NeedsInteger() bool {
	return m == MethodIMAT
}

// ParseMethod maps a wire name to a Method.
func ParseMethod(name string) (Method, error) {
	for m, n := range methodNames {
		if n == name {
			return Method(m), nil
		}
	}
	return 0, &UsageError{Msg: fmt.Sprintf("unknown method %q", name)}
}
