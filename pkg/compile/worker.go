// Package compile implements the parallel-function compilation model: a
// process-wide single-threaded-per-function pipeline, fanned out across a
// bounded goroutine pool (WorkerPool) whose workers all contribute compiled
// procedures into one shared, mutex-guarded rom.Pool. The pool shape —
// fixed worker count, atomic progress counters, ticker-driven progress
// reporting, WaitGroup/channel task distribution — is adapted from "search
// tasks across increasing candidate length" to "compile units across a
// function list".
package compile

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/00mjk/nesfab/pkg/asmproc"
	"github.com/00mjk/nesfab/pkg/rom"
	"go.uber.org/zap"
)

// Unit is one function's compile work: everything CompileFunc needs to
// produce a Proc and contribute any ROM arrays it requires, independent of
// every other Unit in the same run (spec.md §5's "per compilation unit"
// isolation — no locator or constraint operation performed while compiling
// one function blocks on another).
type Unit struct {
	Name string
	FnID uint32
	Run  func(pool *rom.Pool) (*asmproc.Proc, error)
}

// Result is one Unit's outcome, paired back up with its source Unit so a
// caller can report failures by name.
type Result struct {
	Unit Unit
	Proc *asmproc.Proc
	Err  error
}

// WorkerPool fans Units out across a bounded number of goroutines, all
// sharing one rom.Pool: a fixed
// worker count, atomic progress counters, and a mutex-guarded place to
// collect results (here a plain slice since order doesn't matter to the
// linker, which re-sorts by ID regardless).
type WorkerPool struct {
	NumWorkers int
	Pool       *rom.Pool
	Log        *zap.Logger // never nil; defaults to zap.NewNop()

	mu        sync.Mutex
	results   []Result
	completed atomic.Int64
	failed    atomic.Int64
}

// NewWorkerPool returns a pool with numWorkers goroutines (minimum 1)
// sharing pool for ROM array interning. log may be nil, in which case the
// pool logs nothing (zap.NewNop()) — per spec.md §1.1 no package-level
// global logger is used.
func NewWorkerPool(numWorkers int, pool *rom.Pool, log *zap.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkerPool{NumWorkers: numWorkers, Pool: pool, Log: log}
}

// Stats reports how many units have completed (successfully or not) and how
// many failed so far, safe to call concurrently with RunUnits.
func (w *WorkerPool) Stats() (completed, failed int64) {
	return w.completed.Load(), w.failed.Load()
}

// RunUnits compiles every unit, distributing them across NumWorkers
// goroutines, and returns one Result per unit (order not guaranteed to
// match the input). When verbose, a ticker reports a rate/ETA line every
// two seconds.
func (w *WorkerPool) RunUnits(units []Unit, verbose bool) []Result {
	w.Log.Info("compile: starting worker pool", zap.Int("units", len(units)), zap.Int("workers", w.NumWorkers))

	tasks := make(chan Unit, len(units))
	for _, u := range units {
		tasks <- u
	}
	close(tasks)

	var wg sync.WaitGroup
	total := len(units)
	start := time.Now()

	if verbose && total > 0 {
		done := make(chan struct{})
		defer close(done)
		go w.reportProgress(total, start, done)
	}

	for i := 0; i < w.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range tasks {
				w.processUnit(u)
			}
		}()
	}
	wg.Wait()

	completed, failed := w.Stats()
	w.Log.Info("compile: worker pool finished", zap.Int64("completed", completed), zap.Int64("failed", failed))

	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Result, len(w.results))
	copy(out, w.results)
	return out
}

func (w *WorkerPool) processUnit(u Unit) {
	proc, err := u.Run(w.Pool)

	w.mu.Lock()
	w.results = append(w.results, Result{Unit: u, Proc: proc, Err: err})
	w.mu.Unlock()

	w.completed.Add(1)
	if err != nil {
		w.failed.Add(1)
		w.Log.Error("compile: unit failed", zap.String("fn", u.Name), zap.Error(err))
	} else {
		w.Log.Debug("compile: unit finished", zap.String("fn", u.Name))
	}
}

func (w *WorkerPool) reportProgress(total int, start time.Time, done <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			completed := w.completed.Load()
			elapsed := time.Since(start).Seconds()
			rate := float64(completed) / elapsed
			var eta time.Duration
			if rate > 0 {
				eta = time.Duration(float64(total-int(completed))/rate) * time.Second
			}
			w.Log.Info("compile: progress",
				zap.Int64("completed", completed), zap.Int("total", total),
				zap.Float64("rate_per_sec", rate), zap.Duration("eta", eta))
		}
	}
}
