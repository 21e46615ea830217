// Package engine drives analysis requests through one of three execution
// strategies: a synchronous in-process solve, a long-lived worker channel,
// or a remote solve service. Strategy selection is a pure function of
// problem size and solver class, so identical requests always land on the
// same strategy given the same worker/remote availability.
package engine

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/rmax-ai/fluxlord/pkg/analysis"
	"github.com/rmax-ai/fluxlord/pkg/lp"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// Strategy names an execution path. The value is recorded on every
// Solution so callers can see where their solve ran.
type Strategy string

const (
	StrategyInProcess Strategy = "inprocess"
	StrategyWorker    Strategy = "worker"
	StrategyRemote    Strategy = "remote"
)

const (
	// IntegerWorkerMax is the largest integer problem the worker channel
	// takes; bigger MILPs go to the remote service.
	IntegerWorkerMax = 4000
	// RemoteMin is the size above which even pure LPs prefer the remote
	// service when it is healthy.
	RemoteMin = 10000
	// InProcessMax is the size above which an LP leaves the caller's
	// goroutine for the worker channel.
	InProcessMax = 500
	// HealthTTL bounds how long a remote health probe result is trusted.
	HealthTTL = 30 * time.Second
)

// ChooseStrategy is the selection policy. It is deterministic: no clock,
// no randomness, only its arguments.
func ChooseStrategy(size int, needsInteger, workerReady, remoteHealthy bool) Strategy {
	switch {
	case needsInteger && size <= IntegerWorkerMax && workerReady:
		return StrategyWorker
	case (needsInteger || size > RemoteMin) && remoteHealthy:
		return StrategyRemote
	case size > InProcessMax && workerReady:
		return StrategyWorker
	default:
		return StrategyInProcess
	}
}

// Remote is the solve-service transport. pkg/client implements it; the
// engine only needs health and solve.
type Remote interface {
	Health(ctx context.Context) error
	Solve(ctx context.Context, method analysis.Method, m *model.Model, opts analysis.Options) (analysis.Solution, error)
}

// Dispatcher owns the worker channel handle and the remote health cache.
// It is the explicit context object every solve goes through; there is no
// process-wide dispatcher state.
type Dispatcher struct {
	worker *Worker
	remote Remote

	mu       sync.Mutex
	healthOK bool
	healthAt time.Time
}

// NewDispatcher builds a dispatcher. Either handle may be nil, which
// simply removes that strategy from consideration.
func NewDispatcher(worker *Worker, remote Remote) *Dispatcher {
	return &Dispatcher{worker: worker, remote: remote}
}

// Solve routes one request. Usage errors are raised here, before strategy
// selection, so an invalid request gets the same typed error on every
// path; transport failures of the chosen strategy come back as error- or
// timeout-status Solutions naming the strategy, never as a silent retry on
// a different one.
func (d *Dispatcher) Solve(ctx context.Context, method analysis.Method, m *model.Model, opts analysis.Options) (analysis.Solution, error) {
	if err := analysis.Validate(method, m, opts); err != nil {
		return analysis.Solution{}, err
	}
	size := analysis.ProblemSize(m, method, opts)
	strategy := ChooseStrategy(size, method.NeedsInteger(), d.worker != nil, d.remoteHealthy(ctx))

	start := time.Now()
	var sol analysis.Solution
	var err error
	switch strategy {
	case StrategyWorker:
		sol, err = d.worker.Submit(ctx, m, method, opts)
		if err != nil {
			sol, err = strategyFailure(method, strategy, err), nil
		}
	case StrategyRemote:
		sol, err = d.remote.Solve(ctx, method, m, opts)
		if err != nil {
			var ue *analysis.UsageError
			if errors.As(err, &ue) {
				break
			}
			log.Printf("remote solve failed: %v", err)
			sol, err = strategyFailure(method, strategy, err), nil
		}
	default:
		sol, err = analysis.Run(ctx, analysis.NewLocalSolver(opts), m, method, opts)
	}
	if err != nil {
		return analysis.Solution{}, err
	}

	sol.Strategy = string(strategy)
	solveTotal.WithLabelValues(method.String(), string(strategy), string(sol.Status)).Inc()
	solveSeconds.WithLabelValues(method.String(), string(strategy)).Observe(time.Since(start).Seconds())
	return sol, nil
}

// strategyFailure maps a transport failure onto the Solution taxonomy:
// context expiry is a timeout, anything else a strategy error.
func strategyFailure(method analysis.Method, strategy Strategy, err error) analysis.Solution {
	status := lp.StatusError
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		status = lp.StatusTimeout
	}
	s := analysis.Solution{
		Method:   method.String(),
		Strategy: string(strategy),
		Status:   status,
		Err:      string(strategy) + ": " + err.Error(),
	}
	s.Normalize()
	return s
}

// remoteHealthy consults the memoized health flag, probing only when the
// cached result has gone stale. The flag is advisory: a solve that targets
// the remote service still handles its own transport failure.
func (d *Dispatcher) remoteHealthy(ctx context.Context) bool {
	if d.remote == nil {
		return false
	}
	d.mu.Lock()
	fresh := time.Since(d.healthAt) < HealthTTL
	ok := d.healthOK
	d.mu.Unlock()
	if fresh {
		return ok
	}

	err := d.remote.Health(ctx)
	d.mu.Lock()
	d.healthOK = err == nil
	d.healthAt = time.Now()
	d.mu.Unlock()
	if err != nil {
		log.Printf("remote health probe failed: %v", err)
		remoteUp.Set(0)
		return false
	}
	remoteUp.Set(1)
	return true
}
