// Package gpr parses and evaluates Boolean gene-reaction rules (GPRs).
//
// A rule like "(b0001 and b0002) or b0003" links genes to the enzyme(s)
// catalyzing a reaction. Rules evaluate in two modes: discrete (knockout
// semantics over a set of active genes) and continuous (expression
// semantics, where AND takes the minimum of its operand levels, an enzyme
// complex limited by its scarcest subunit, and OR takes the maximum, the
// most-expressed isozyme dominating).
//
// Parsing is deliberately permissive: real-world model files carry rules
// with unbalanced parentheses and dangling operators, and the historic
// behavior is to evaluate what can be matched rather than reject the
// reaction. Err exposes what the parser had to recover from so stricter
// callers can decide for themselves.
package gpr

import (
	"errors"
	"strconv"
	"strings"
)

// Rule is a parsed gene-reaction rule. The zero of evaluation is "always
// active": an empty or whitespace-only rule means the reaction is not under
// genetic control.
type Rule struct {
	raw  string
	expr Expr
	errs []string
}

// Parse tokenizes and parses a rule string into an expression tree. It never
// fails: malformed input yields a best-effort tree and a non-nil (*Rule).Err.
func Parse(raw string) *Rule {
	r := &Rule{raw: raw}
	if strings.TrimSpace(raw) == "" {
		return r
	}
	p := newParser(NewLexer(raw))
	r.expr = p.parseRule()
	r.errs = p.errors
	return r
}

// String returns the original rule text.
func (r *Rule) String() string { return r.raw }

// Empty reports whether the rule has no expression (always active).
func (r *Rule) Empty() bool { return r.expr == nil }

// Err returns a combined parse error, or nil if the rule was well formed.
// Evaluation works either way; this only reports what was recovered from.
func (r *Rule) Err() error {
	if len(r.errs) == 0 {
		return nil
	}
	return errors.New("gpr: " + strings.Join(r.errs, "; "))
}

// Genes returns the distinct gene identifiers referenced by the rule, in
// first-appearance order.
func (r *Rule) Genes() []string {
	var out []string
	seen := make(map[string]struct{})
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Ident:
			if _, ok := seen[n.Name]; !ok {
				seen[n.Name] = struct{}{}
				out = append(out, n.Name)
			}
		case *Binary:
			walk(n.Left)
			walk(n.Right)
		}
	}
	if r.expr != nil {
		walk(r.expr)
	}
	return out
}

// Active evaluates the rule in discrete mode against a set of active genes.
// A gene absent from the set counts as knocked out. Empty rules are active.
func (r *Rule) Active(active map[string]struct{}) bool {
	if r.expr == nil {
		return true
	}
	return evalBool(r.expr, active)
}

// Level evaluates the rule in continuous mode against per-gene expression
// levels. AND is min, OR is max. Genes with no measurement default to 1.0
// (no evidence means unconstrained). Empty rules evaluate to 1.0.
func (r *Rule) Level(levels map[string]float64) float64 {
	if r.expr == nil {
		return 1.0
	}
	return evalLevel(r.expr, levels)
}

func evalBool(e Expr, active map[string]struct{}) bool {
	switch n := e.(type) {
	case *Ident:
		if v, err := strconv.ParseFloat(n.Name, 64); err == nil {
			return v != 0
		}
		_, ok := active[n.Name]
		return ok
	case *Binary:
		if n.Op == AND {
			return evalBool(n.Left, active) && evalBool(n.Right, active)
		}
		return evalBool(n.Left, active) || evalBool(n.Right, active)
	}
	return true
}

func evalLevel(e Expr, levels map[string]float64) float64 {
	switch n := e.(type) {
	case *Ident:
		if v, err := strconv.ParseFloat(n.Name, 64); err == nil {
			return v
		}
		if v, ok := levels[n.Name]; ok {
			return v
		}
		return 1.0
	case *Binary:
		l := evalLevel(n.Left, levels)
		r := evalLevel(n.Right, levels)
		if n.Op == AND {
			return min(l, r)
		}
		return max(l, r)
	}
	return 1.0
}
