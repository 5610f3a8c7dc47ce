// Package runner manages concurrent research runs on top of the agent
// loop: starting runs in the background, tracking which are still active
// and cancelling them individually or all at once.
package runner

import (
	"context"
	"strings"
	"sync"

	"github.com/hupe1980/archivist/agent"
	"github.com/hupe1980/archivist/core"
	"github.com/hupe1980/archivist/logging"
)

// Result delivers the outcome of a background run. Err is non-nil when
// the run failed or was cancelled; Outcome is set for every started run.
type Result struct {
	Outcome *agent.Outcome
	Err     error
}

// Options configures a Runner.
type Options struct {
	// Logger receives runner diagnostics. Optional.
	Logger *logging.ArchivistLogger
}

// Runner starts research runs in the background and keeps a cancel
// function per active run. Safe for concurrent use.
type Runner struct {
	loop   *agent.Loop
	logger *logging.ArchivistLogger

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// New creates a Runner around a configured loop.
func New(loop *agent.Loop, optFns ...func(o *Options)) *Runner {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		loop:   loop,
		logger: opts.Logger,
		active: make(map[string]context.CancelFunc),
	}
}

// Start launches a research run in the background. It returns a handle id
// usable with Cancel and a channel delivering exactly one Result when the
// run ends. Empty questions fail synchronously.
func (r *Runner) Start(ctx context.Context, question string) (string, <-chan Result, error) {
	if strings.TrimSpace(question) == "" {
		return "", nil, core.ErrEmptyQuestion
	}

	runCtx, cancel := context.WithCancel(ctx)
	id := core.NewID()

	r.mu.Lock()
	r.active[id] = cancel
	r.mu.Unlock()

	results := make(chan Result, 1)

	go func() {
		defer cancel()

		outcome, err := r.loop.Run(runCtx, question)

		r.mu.Lock()
		delete(r.active, id)
		r.mu.Unlock()

		if r.logger != nil {
			if err != nil {
				r.logger.Warn("run %s ended with error: %v", id, err)
			} else {
				r.logger.Info("run %s ended with status %s", id, outcome.Status)
			}
		}

		results <- Result{Outcome: outcome, Err: err}
		close(results)
	}()

	return id, results, nil
}

// Cancel aborts the run with the given handle id. It reports whether the
// run was still active.
func (r *Runner) Cancel(id string) bool {
	r.mu.Lock()
	cancel, ok := r.active[id]
	delete(r.active, id)
	r.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

// CancelAll aborts every active run.
func (r *Runner) CancelAll() {
	r.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(r.active))
	for id, cancel := range r.active {
		cancels = append(cancels, cancel)
		delete(r.active, id)
	}
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Active returns the number of runs currently in flight.
func (r *Runner) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
