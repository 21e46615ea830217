package lp

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplexSmallMaximization(t *testing.T) {
	// max 3x + 2y  s.t.  x + y <= 4,  x + 3y <= 6,  0 <= x,y <= 10
	// Optimum at (4, 0) with objective 12.
	p := &Problem{Sense: Maximize}
	p.AddVariable("x", 0, 10)
	p.AddVariable("y", 0, 10)
	p.AddObjectiveTerm("x", 3)
	p.AddObjectiveTerm("y", 2)
	p.AddConstraint("c1", []Term{{"x", 1}, {"y", 1}}, LessEq, 4)
	p.AddConstraint("c2", []Term{{"x", 1}, {"y", 3}}, LessEq, 6)

	sol := Solve(context.Background(), p, Options{})
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 12, sol.Objective, 1e-7)
	assert.InDelta(t, 4, sol.Values["x"], 1e-7)
	assert.InDelta(t, 0, sol.Values["y"], 1e-7)
}

func TestSimplexEqualityAndGreaterEq(t *testing.T) {
	// min x + y  s.t.  x + y = 10,  x >= 3,  0 <= x,y <= 20
	p := &Problem{Sense: Minimize}
	p.AddVariable("x", 0, 20)
	p.AddVariable("y", 0, 20)
	p.AddObjectiveTerm("x", 1)
	p.AddObjectiveTerm("y", 1)
	p.AddConstraint("sum", []Term{{"x", 1}, {"y", 1}}, Equal, 10)
	p.AddConstraint("floor", []Term{{"x", 1}}, GreaterEq, 3)

	sol := Solve(context.Background(), p, Options{})
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 10, sol.Objective, 1e-7)
	assert.GreaterOrEqual(t, sol.Values["x"], 3-1e-7)
	assert.InDelta(t, 10, sol.Values["x"]+sol.Values["y"], 1e-7)
}

func TestSimplexNonzeroLowerBounds(t *testing.T) {
	// min x  s.t.  x + y >= 8,  2 <= x <= 10,  3 <= y <= 4
	// y maxes out at 4, so x must reach 4.
	p := &Problem{Sense: Minimize}
	p.AddVariable("x", 2, 10)
	p.AddVariable("y", 3, 4)
	p.AddObjectiveTerm("x", 1)
	p.AddConstraint("c", []Term{{"x", 1}, {"y", 1}}, GreaterEq, 8)

	sol := Solve(context.Background(), p, Options{})
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 4, sol.Objective, 1e-7)
	assert.InDelta(t, 4, sol.Values["y"], 1e-7)
}

func TestSimplexInfeasible(t *testing.T) {
	p := &Problem{Sense: Maximize}
	p.AddVariable("x", 0, 5)
	p.AddObjectiveTerm("x", 1)
	p.AddConstraint("c", []Term{{"x", 1}}, GreaterEq, 7)

	sol := Solve(context.Background(), p, Options{})
	assert.Equal(t, StatusInfeasible, sol.Status)
}

func TestSimplexContradictoryBoundsInfeasible(t *testing.T) {
	p := &Problem{Sense: Maximize}
	p.AddVariable("x", 3, 1)
	p.AddObjectiveTerm("x", 1)

	sol := Solve(context.Background(), p, Options{})
	assert.Equal(t, StatusInfeasible, sol.Status)
}

func TestSimplexUnbounded(t *testing.T) {
	p := &Problem{Sense: Maximize}
	p.AddVariable("x", 0, math.Inf(1))
	p.AddObjectiveTerm("x", 1)
	p.AddConstraint("c", []Term{{"x", 1}}, GreaterEq, 1)

	sol := Solve(context.Background(), p, Options{})
	assert.Equal(t, StatusUnbounded, sol.Status)
}

func TestSimplexFreeVariableIsError(t *testing.T) {
	p := &Problem{Sense: Minimize}
	p.AddVariable("x", math.Inf(-1), 10)
	p.AddObjectiveTerm("x", 1)

	sol := Solve(context.Background(), p, Options{})
	require.Equal(t, StatusError, sol.Status)
	assert.Contains(t, sol.Err, "finite lower bound")
}

func TestSimplexUnknownVariableIsError(t *testing.T) {
	p := &Problem{Sense: Minimize}
	p.AddVariable("x", 0, 1)
	p.AddConstraint("c", []Term{{"ghost", 1}}, LessEq, 1)

	sol := Solve(context.Background(), p, Options{})
	assert.Equal(t, StatusError, sol.Status)
}

func TestBranchAndBoundBinaryKnapsack(t *testing.T) {
	// max 5a + 4b + 3c  s.t.  2a + 3b + c <= 4, binary.
	// Best is a=1, c=1 (weight 3, value 8); adding b exceeds the budget.
	p := &Problem{Sense: Maximize}
	p.AddBinary("a")
	p.AddBinary("b")
	p.AddBinary("c")
	p.AddObjectiveTerm("a", 5)
	p.AddObjectiveTerm("b", 4)
	p.AddObjectiveTerm("c", 3)
	p.AddConstraint("weight", []Term{{"a", 2}, {"b", 3}, {"c", 1}}, LessEq, 4)

	sol := Solve(context.Background(), p, Options{})
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 8, sol.Objective, 1e-6)
	assert.InDelta(t, 1, sol.Values["a"], 1e-9)
	assert.InDelta(t, 0, sol.Values["b"], 1e-9)
	assert.InDelta(t, 1, sol.Values["c"], 1e-9)
}

func TestBranchAndBoundIntegerVariable(t *testing.T) {
	// max x + y  s.t.  2x + y <= 7,  x integer in [0,5],  y in [0, 2.5].
	p := &Problem{Sense: Maximize}
	p.Variables = append(p.Variables, Variable{Name: "x", Lower: 0, Upper: 5, Kind: Integer})
	p.AddVariable("y", 0, 2.5)
	p.AddObjectiveTerm("x", 1)
	p.AddObjectiveTerm("y", 1)
	p.AddConstraint("c", []Term{{"x", 2}, {"y", 1}}, LessEq, 7)

	sol := Solve(context.Background(), p, Options{})
	require.Equal(t, StatusOptimal, sol.Status)
	// x = 2, y = 2.5 gives 4.5; x = 3 forces y <= 1 giving 4.
	assert.InDelta(t, 4.5, sol.Objective, 1e-6)
	assert.InDelta(t, 2, sol.Values["x"], 1e-9)
}

func TestBranchAndBoundInfeasible(t *testing.T) {
	p := &Problem{Sense: Maximize}
	p.AddBinary("a")
	p.AddObjectiveTerm("a", 1)
	p.AddConstraint("c", []Term{{"a", 1}}, GreaterEq, 2)

	sol := Solve(context.Background(), p, Options{})
	assert.Equal(t, StatusInfeasible, sol.Status)
}

func TestSolveRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Problem{Sense: Maximize}
	p.AddVariable("x", 0, 10)
	p.AddObjectiveTerm("x", 1)
	p.AddConstraint("c", []Term{{"x", 1}}, LessEq, 5)

	sol := Solve(ctx, p, Options{})
	assert.Equal(t, StatusTimeout, sol.Status)
}

func TestSolveRespectsDeadline(t *testing.T) {
	p := &Problem{Sense: Maximize}
	p.AddVariable("x", 0, 10)
	p.AddObjectiveTerm("x", 1)
	p.AddConstraint("c", []Term{{"x", 1}}, LessEq, 5)

	sol := Solve(context.Background(), p, Options{Deadline: time.Now().Add(-time.Second)})
	assert.Equal(t, StatusTimeout, sol.Status)
}

func TestProblemSizeAndIntegrality(t *testing.T) {
	p := &Problem{}
	p.AddVariable("x", 0, 1)
	p.AddConstraint("c", []Term{{"x", 1}}, LessEq, 1)
	assert.Equal(t, 2, p.Size())
	assert.False(t, p.IsMixedInteger())

	p.AddBinary("y")
	assert.True(t, p.IsMixedInteger())
}
