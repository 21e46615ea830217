package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmax-ai/fluxlord/pkg/analysis"
	"github.com/rmax-ai/fluxlord/pkg/lp"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// chain builds a linear pathway with n internal conversion steps, capped
// at flux 10 by the uptake reaction. Problem size grows with n, which lets
// tests steer the dispatcher toward a particular strategy.
func chain(n int) *model.Model {
	m := &model.Model{ID: fmt.Sprintf("chain-%d", n)}
	m.Metabolites = append(m.Metabolites, model.Metabolite{ID: "M0"})
	m.Reactions = append(m.Reactions, model.Reaction{
		ID: "EX", Stoichiometry: map[string]float64{"M0": 1}, LowerBound: 0, UpperBound: 10,
	})
	for i := 1; i <= n; i++ {
		m.Metabolites = append(m.Metabolites, model.Metabolite{ID: fmt.Sprintf("M%d", i)})
		m.Reactions = append(m.Reactions, model.Reaction{
			ID:            fmt.Sprintf("R%d", i),
			Stoichiometry: map[string]float64{fmt.Sprintf("M%d", i-1): -1, fmt.Sprintf("M%d", i): 1},
			LowerBound:    0, UpperBound: 1000,
		})
	}
	m.Reactions = append(m.Reactions, model.Reaction{
		ID:            "BIOMASS",
		Stoichiometry: map[string]float64{fmt.Sprintf("M%d", n): -1},
		LowerBound:    0, UpperBound: 1000, ObjectiveCoefficient: 1,
	})
	return m
}

func TestChooseStrategy(t *testing.T) {
	cases := []struct {
		name                     string
		size                     int
		integer, worker, remote  bool
		want                     Strategy
	}{
		{"small lp inprocess", 100, false, true, true, StrategyInProcess},
		{"medium lp worker", 2000, false, true, true, StrategyWorker},
		{"medium lp no worker", 2000, false, false, false, StrategyInProcess},
		{"huge lp remote", 20000, false, true, true, StrategyRemote},
		{"huge lp remote down", 20000, false, true, false, StrategyWorker},
		{"small milp worker", 300, true, true, true, StrategyWorker},
		{"big milp remote", 8000, true, true, true, StrategyRemote},
		{"milp no worker remote", 300, true, false, true, StrategyRemote},
		{"milp nothing ready small", 300, true, false, false, StrategyInProcess},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ChooseStrategy(tc.size, tc.integer, tc.worker, tc.remote)
			assert.Equal(t, tc.want, got)
			// Deterministic: repeated calls agree.
			assert.Equal(t, got, ChooseStrategy(tc.size, tc.integer, tc.worker, tc.remote))
		})
	}
}

func TestDispatcherInProcess(t *testing.T) {
	d := NewDispatcher(nil, nil)
	sol, err := d.Solve(context.Background(), analysis.MethodFBA, chain(2), analysis.Options{})
	require.NoError(t, err)
	assert.Equal(t, string(StrategyInProcess), sol.Strategy)
	assert.Equal(t, lp.StatusOptimal, sol.Status)
	assert.InDelta(t, 10, sol.GrowthRate, 1e-6)
}

func TestDispatcherWorkerPath(t *testing.T) {
	w := NewWorker()
	defer w.Close()
	d := NewDispatcher(w, nil)

	// 200 steps puts the problem above the in-process size cutoff.
	sol, err := d.Solve(context.Background(), analysis.MethodFBA, chain(200), analysis.Options{})
	require.NoError(t, err)
	assert.Equal(t, string(StrategyWorker), sol.Strategy)
	assert.Equal(t, lp.StatusOptimal, sol.Status)
	assert.InDelta(t, 10, sol.GrowthRate, 1e-6)
}

func TestWorkerProgressRouting(t *testing.T) {
	w := NewWorker()
	defer w.Close()

	var events []analysis.ProgressEvent
	opts := analysis.Options{Progress: func(ev analysis.ProgressEvent) { events = append(events, ev) }}
	sol, err := w.Submit(context.Background(), chain(3), analysis.MethodFVA, opts)
	require.NoError(t, err)
	require.Equal(t, lp.StatusOptimal, sol.Status)
	assert.Len(t, events, 5)
	assert.Equal(t, 5, events[len(events)-1].Completed)
}

func TestWorkerCrashDrainsAndReinits(t *testing.T) {
	w := NewWorker()
	defer w.Close()

	// A nil model panics inside the solve loop; the job must come back as
	// a failure, not a hang.
	_, err := w.Submit(context.Background(), nil, analysis.MethodFBA, analysis.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker crashed")

	// The reinitialized channel keeps serving.
	sol, err := w.Submit(context.Background(), chain(2), analysis.MethodFBA, analysis.Options{})
	require.NoError(t, err)
	assert.Equal(t, lp.StatusOptimal, sol.Status)
}

func TestDispatcherUsageErrorTypedOnEveryStrategy(t *testing.T) {
	w := NewWorker()
	defer w.Close()

	// Same invalid request, sized for the worker path and for the
	// in-process path: both must surface the typed usage error, never a
	// strategy-failure Solution.
	opts := analysis.Options{Reactions: []string{"ghost"}}
	for _, m := range []*model.Model{chain(200), chain(2)} {
		d := NewDispatcher(w, nil)
		sol, err := d.Solve(context.Background(), analysis.MethodFVA, m, opts)
		var ue *analysis.UsageError
		require.ErrorAs(t, err, &ue)
		assert.Contains(t, err.Error(), "ghost")
		assert.Empty(t, sol.Strategy)
	}
}

func TestWorkerCancelledSubmit(t *testing.T) {
	w := NewWorker()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.Submit(ctx, chain(100), analysis.MethodFVA, analysis.Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestWorkerAbandonedJobDropsLateProgress(t *testing.T) {
	w := NewWorker()
	defer w.Close()

	var fired atomic.Int32
	opts := analysis.Options{Progress: func(analysis.ProgressEvent) { fired.Add(1) }}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.Submit(ctx, chain(100), analysis.MethodFVA, opts)
	require.ErrorIs(t, err, context.Canceled)

	// The solve loop is sequential, so once a follow-up job completes the
	// abandoned scan has emitted everything it will ever emit.
	_, err = w.Submit(context.Background(), chain(2), analysis.MethodFBA, analysis.Options{})
	require.NoError(t, err)
	assert.Zero(t, fired.Load())
}

type fakeRemote struct {
	healthCalls int
	healthErr   error
	sol         analysis.Solution
	solveErr    error
}

func (f *fakeRemote) Health(ctx context.Context) error {
	f.healthCalls++
	return f.healthErr
}

func (f *fakeRemote) Solve(ctx context.Context, method analysis.Method, m *model.Model, opts analysis.Options) (analysis.Solution, error) {
	return f.sol, f.solveErr
}

func TestDispatcherRemotePath(t *testing.T) {
	remote := &fakeRemote{sol: analysis.Solution{Method: "fba", Status: lp.StatusOptimal, ObjectiveValue: 10, GrowthRate: 10}}
	d := NewDispatcher(nil, remote)

	sol, err := d.Solve(context.Background(), analysis.MethodFBA, chain(4000), analysis.Options{})
	require.NoError(t, err)
	assert.Equal(t, string(StrategyRemote), sol.Strategy)
	assert.InDelta(t, 10, sol.GrowthRate, 1e-6)
}

func TestDispatcherRemoteFailureSurfaces(t *testing.T) {
	remote := &fakeRemote{solveErr: errors.New("connection refused")}
	d := NewDispatcher(nil, remote)

	sol, err := d.Solve(context.Background(), analysis.MethodFBA, chain(4000), analysis.Options{})
	require.NoError(t, err)
	assert.Equal(t, lp.StatusError, sol.Status)
	assert.Contains(t, sol.Err, "remote")
	assert.Equal(t, "unknown", sol.Phenotype)
}

func TestRemoteHealthMemoized(t *testing.T) {
	remote := &fakeRemote{}
	d := NewDispatcher(nil, remote)

	assert.True(t, d.remoteHealthy(context.Background()))
	assert.True(t, d.remoteHealthy(context.Background()))
	assert.Equal(t, 1, remote.healthCalls)

	// Stale cache forces a re-probe.
	d.mu.Lock()
	d.healthAt = time.Now().Add(-2 * HealthTTL)
	d.mu.Unlock()
	assert.True(t, d.remoteHealthy(context.Background()))
	assert.Equal(t, 2, remote.healthCalls)
}

func TestStrategyFailureTaxonomy(t *testing.T) {
	s := strategyFailure(analysis.MethodFBA, StrategyWorker, context.DeadlineExceeded)
	assert.Equal(t, lp.StatusTimeout, s.Status)

	s = strategyFailure(analysis.MethodFBA, StrategyRemote, errors.New("boom"))
	assert.Equal(t, lp.StatusError, s.Status)
	assert.Contains(t, s.Err, "remote: boom")
}
