package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/rmax-ai/fluxlord/pkg/analysis"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

const workerQueueDepth = 32

type msgType string

const (
	msgProgress msgType = "progress"
	msgResult   msgType = "result"
	msgError    msgType = "error"
)

// jobRequest is the worker channel request shape. Job ids increase
// monotonically and are never reused, so a drained job can never collide
// with a fresh one.
type jobRequest struct {
	JobID   uint64           `json:"jobId"`
	Method  analysis.Method  `json:"method"`
	Model   *model.Model     `json:"model"`
	Options analysis.Options `json:"options"`
}

// workerMsg is the worker channel response shape: zero or more progress
// messages followed by exactly one result or error per job id.
type workerMsg struct {
	JobID    uint64                 `json:"jobId"`
	Type     msgType                `json:"type"`
	Progress analysis.ProgressEvent `json:"progress,omitempty"`
	Result   analysis.Solution      `json:"result,omitempty"`
	Err      string                 `json:"error,omitempty"`
}

type jobResult struct {
	sol analysis.Solution
	err error
}

type pendingJob struct {
	done     chan jobResult
	progress func(analysis.ProgressEvent)
}

// Worker is the long-lived isolated solve context. One goroutine runs
// solves off the request channel; a second routes typed messages back to
// waiting submitters through a job-id correlation map. A panic inside a
// solve tears both down, fails every pending job, and brings up a fresh
// channel pair.
type Worker struct {
	mu       sync.Mutex
	requests chan jobRequest
	pending  map[uint64]*pendingJob
	nextID   uint64
	closed   bool
}

// NewWorker starts the worker goroutines.
func NewWorker() *Worker {
	w := &Worker{pending: make(map[uint64]*pendingJob)}
	w.mu.Lock()
	w.reinitLocked()
	w.mu.Unlock()
	return w
}

func (w *Worker) reinitLocked() {
	w.requests = make(chan jobRequest, workerQueueDepth)
	messages := make(chan workerMsg, workerQueueDepth)
	go w.solveLoop(w.requests, messages)
	go w.routeLoop(messages)
}

// Submit runs one job through the worker channel and blocks until its
// terminal message or the context expires. Expiry abandons the job: the
// computation keeps running, and its late messages are dropped.
func (w *Worker) Submit(ctx context.Context, m *model.Model, method analysis.Method, opts analysis.Options) (analysis.Solution, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return analysis.Solution{}, errors.New("worker closed")
	}
	w.nextID++
	id := w.nextID
	job := &pendingJob{done: make(chan jobResult, 1), progress: opts.Progress}

	wire := opts
	wire.Progress = nil
	select {
	case w.requests <- jobRequest{JobID: id, Method: method, Model: m, Options: wire}:
		w.pending[id] = job
	default:
		w.mu.Unlock()
		return analysis.Solution{}, errors.New("worker queue full")
	}
	w.mu.Unlock()

	select {
	case res := <-job.done:
		return res.sol, res.err
	case <-ctx.Done():
		w.forget(id)
		return analysis.Solution{}, ctx.Err()
	}
}

// Close shuts the worker down. Pending jobs are failed.
func (w *Worker) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.requests)
	w.drainLocked(errors.New("worker closed"))
}

func (w *Worker) forget(id uint64) {
	w.mu.Lock()
	delete(w.pending, id)
	w.mu.Unlock()
}

// solveLoop executes jobs sequentially. All outbound traffic, including
// progress from inside an algorithm, goes through the messages channel so
// routing stays single-sourced.
func (w *Worker) solveLoop(requests <-chan jobRequest, messages chan<- workerMsg) {
	defer close(messages)
	defer func() {
		if r := recover(); r != nil {
			w.crash(fmt.Sprintf("%v", r))
		}
	}()
	for req := range requests {
		opts := req.Options
		id := req.JobID
		opts.Progress = func(ev analysis.ProgressEvent) {
			messages <- workerMsg{JobID: id, Type: msgProgress, Progress: ev}
		}
		sol, err := analysis.Run(context.Background(), analysis.NewLocalSolver(opts), req.Model, req.Method, opts)
		if err != nil {
			messages <- workerMsg{JobID: id, Type: msgError, Err: err.Error()}
			continue
		}
		messages <- workerMsg{JobID: id, Type: msgResult, Result: sol}
	}
}

// routeLoop correlates messages to pending jobs. Messages for unknown job
// ids (cancelled, or drained by a crash) are dropped.
func (w *Worker) routeLoop(messages <-chan workerMsg) {
	for msg := range messages {
		w.mu.Lock()
		job, ok := w.pending[msg.JobID]
		if !ok {
			w.mu.Unlock()
			continue
		}
		switch msg.Type {
		case msgProgress:
			fn := job.progress
			w.mu.Unlock()
			if fn != nil {
				fn(msg.Progress)
			}
		case msgResult:
			delete(w.pending, msg.JobID)
			w.mu.Unlock()
			job.done <- jobResult{sol: msg.Result}
		case msgError:
			delete(w.pending, msg.JobID)
			w.mu.Unlock()
			job.done <- jobResult{err: errors.New(msg.Err)}
		}
	}
}

// crash fails everything in flight and reinitializes the channel pair.
// The crashed loops exit on their own; new ones take over immediately.
func (w *Worker) crash(reason string) {
	log.Printf("worker channel crashed: %s", reason)
	workerCrashes.Inc()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.drainLocked(fmt.Errorf("worker crashed: %s", reason))
	if !w.closed {
		w.reinitLocked()
	}
}

func (w *Worker) drainLocked(err error) {
	for id, job := range w.pending {
		job.done <- jobResult{err: err}
		delete(w.pending, id)
	}
}
