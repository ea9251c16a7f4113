package loop

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/pullstream/errors"
	"github.com/kbukum/pullstream/logger"
)

// Scheduler defers a continuation to a future turn.
// Implementations must preserve FIFO order between Schedule calls and must
// never run fn before Schedule returns.
type Scheduler interface {
	Schedule(fn func())
}

// Stats holds counters describing the work a Loop has done.
type Stats struct {
	Turns   uint64
	Tasks   uint64
	Pending int
}

// Loop is a FIFO run queue drained by a single goroutine.
// Schedule may be called from any goroutine; continuations only ever run on
// the goroutine calling Turn or Run.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	running bool
	turns   uint64
	tasks   uint64
	log     *logger.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for drain summaries.
func WithLogger(l *logger.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.log = l.WithComponent("loop")
		}
	}
}

// New creates an empty Loop.
func New(opts ...Option) *Loop {
	l := &Loop{log: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Schedule enqueues fn to run on a later turn. A nil fn is ignored.
func (l *Loop) Schedule(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
}

// Pending returns the number of continuations waiting to run.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Stats returns a snapshot of the loop counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{Turns: l.turns, Tasks: l.tasks, Pending: len(l.queue)}
}

// Turn runs every continuation that was queued when the turn began and
// returns how many ran. Calling Turn from inside a continuation is a no-op.
//
// If a continuation panics, the panic propagates to the caller and the
// continuations after it in the batch go back to the front of the queue,
// ahead of anything scheduled during the turn.
func (l *Loop) Turn() int {
	l.mu.Lock()
	if l.running || len(l.queue) == 0 {
		l.mu.Unlock()
		return 0
	}
	batch := l.queue
	l.queue = nil
	l.running = true
	l.turns++
	l.mu.Unlock()

	next := 0
	defer func() {
		l.mu.Lock()
		if rest := batch[next:]; len(rest) > 0 {
			l.queue = append(rest[:len(rest):len(rest)], l.queue...)
		}
		l.running = false
		l.mu.Unlock()
	}()

	for next < len(batch) {
		fn := batch[next]
		batch[next] = nil
		next++
		fn()
		l.mu.Lock()
		l.tasks++
		l.mu.Unlock()
	}
	return len(batch)
}

// Run drives turns until the queue is empty or ctx is done.
// Cancellation is checked between turns, never in the middle of one.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	nested := l.running
	l.mu.Unlock()
	if nested {
		return errors.New(errors.ErrCodeInternal, "loop is already running")
	}

	start := time.Now()
	before := l.Stats()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.Turn() == 0 {
			break
		}
	}

	after := l.Stats()
	l.log.Debug("loop drained", logger.MergeWithDuration(logger.Fields(
		logger.FieldTurns, after.Turns-before.Turns,
		logger.FieldTasks, after.Tasks-before.Tasks,
	), time.Since(start)))
	return nil
}
