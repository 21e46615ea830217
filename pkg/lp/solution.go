package lp

import "time"

// Status is the raw solver outcome. It is shared verbatim by every execution
// strategy so downstream normalization is strategy-independent.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusError      Status = "error"
	StatusTimeout    Status = "timeout"
)

// RawSolution is the untyped solver output: a status, the objective value in
// the problem's own sense, and a name-to-value assignment. Non-optimal
// statuses carry an empty assignment and, for errors, the raw message.
type RawSolution struct {
	Status    Status             `json:"status"`
	Objective float64            `json:"objective"`
	Values    map[string]float64 `json:"values,omitempty"`
	Err       string             `json:"error,omitempty"`
}

// Options tunes the in-process solver.
type Options struct {
	// MaxIterations caps simplex pivots per LP. Zero picks a bound scaled
	// to problem size.
	MaxIterations int
	// MaxNodes caps branch-and-bound nodes. Zero means 100000.
	MaxNodes int
	// MipGap is the relative gap below which an integer incumbent is
	// accepted as optimal. Zero means exact (to tolerance).
	MipGap float64
	// Deadline aborts the solve with StatusTimeout when exceeded. The
	// incumbent, if any, is returned with the timeout.
	Deadline time.Time
}

func errorSolution(msg string) RawSolution {
	return RawSolution{Status: StatusError, Err: msg}
}

// timeNow is swapped out by deadline tests.
var timeNow = time.Now
