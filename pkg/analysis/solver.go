package analysis

import (
	"context"

	"github.com/rmax-ai/fluxlord/pkg/lp"
)

// Solver is the backend every algorithm solves against. The in-process
// simplex, the worker pool, and the remote service all satisfy it, so the
// algorithm code never knows where its problems run.
type Solver interface {
	Solve(ctx context.Context, p *lp.Problem) (lp.RawSolution, error)
}

// Local solves problems with the in-process simplex and branch-and-bound.
type Local struct {
	opts lp.Options
}

// NewLocalSolver returns an in-process solver tuned by the request options.
func NewLocalSolver(opts Options) *Local {
	return &Local{opts: opts.LPOptions()}
}

func (s *Local) Solve(ctx context.Context, p *lp.Problem) (lp.RawSolution, error) {
	return lp.Solve(ctx, p, s.opts), nil
}
