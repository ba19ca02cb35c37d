package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Runner executes detached units of work. Submitted tasks run on their
// own goroutine with a context tied to the runner's lifetime, not the
// submitting request: a caller disconnect never cancels a task, while a
// runner shutdown does.
type Runner struct {
	log    zerolog.Logger
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewRunner creates a runner rooted in a fresh background context.
func NewRunner(log zerolog.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		log:    log.With().Str("component", "task-runner").Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit schedules fn as a fire-and-forget task. Panics are recovered
// and logged at the task's own top level; nothing propagates to the
// submitter. Submissions after Shutdown are dropped.
func (r *Runner) Submit(name string, fn func(ctx context.Context)) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.log.Warn().Str("task", name).Msg("runner closed, task dropped")
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error().Str("task", name).Interface("panic", rec).Msg("task panicked")
			}
		}()
		fn(r.ctx)
	}()
}

// Shutdown stops accepting tasks and waits up to grace for in-flight
// tasks to finish before cancelling them.
func (r *Runner) Shutdown(grace time.Duration) {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.log.Info().Msg("all tasks finished")
	case <-time.After(grace):
		r.log.Warn().Msg("grace period elapsed, cancelling remaining tasks")
		r.cancel()
		<-done
	}
	r.cancel()
}
