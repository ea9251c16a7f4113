package pipeline

import (
	"github.com/google/uuid"

	"github.com/kbukum/pullstream/logger"
	"github.com/kbukum/pullstream/loop"
	"github.com/kbukum/pullstream/observability"
)

// State is the lifecycle state of a Sink.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateFinished
	StateFailed
)

var stateNames = [...]string{"idle", "running", "finished", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Sink is the terminal stage. It pulls its upstream to completion, one read
// per scheduler turn, accumulating every chunk in order.
//
// Each Start begins a run. A run ends by finishing (observers registered with
// OnFinished get the accumulated bytes), failing (OnError observers get the
// upstream error unchanged) or being stopped (nobody is notified). Observers
// fire at most once per run.
type Sink struct {
	sched    loop.Scheduler
	upstream Stage
	readSize int
	name     string
	log      *logger.Logger
	inst     *observability.Instruments

	state    State
	gen      uint64
	inFlight bool
	runID    string
	run      *observability.Run
	acc      []byte
	err      error

	onFinished []func([]byte)
	onError    []func(error)
}

// NewSink creates an idle Sink over upstream.
func NewSink(s loop.Scheduler, upstream Stage, opts ...Option) *Sink {
	o := resolveOptions("sink", opts)
	inst := o.inst
	if inst == nil {
		inst = observability.Noop()
	}
	return &Sink{
		sched:    s,
		upstream: upstream,
		readSize: o.readSize,
		name:     o.name,
		log:      o.log,
		inst:     inst,
	}
}

// OnFinished registers fn to receive the accumulated data when a run finishes.
func (s *Sink) OnFinished(fn func([]byte)) {
	if fn != nil {
		s.onFinished = append(s.onFinished, fn)
	}
}

// OnError registers fn to receive the upstream error when a run fails.
func (s *Sink) OnError(fn func(error)) {
	if fn != nil {
		s.onError = append(s.onError, fn)
	}
}

// Start begins pulling. It is a no-op unless the sink is Idle.
// Starting after Stop resumes from where upstream left off; data already
// accumulated is kept.
func (s *Sink) Start() {
	if s.state != StateIdle {
		s.log.Debug("start ignored", logger.Fields(logger.FieldState, s.state.String()))
		return
	}

	s.state = StateRunning
	s.gen++
	s.runID = uuid.NewString()
	s.run = s.inst.StartRun(s.name, s.runID)
	s.log.Info("run started", logger.Fields(logger.FieldRunID, s.runID, logger.FieldReadSize, s.readSize))

	// A read left over from a stopped run is still outstanding; its
	// settlement schedules the first read of this run.
	if !s.inFlight {
		s.next(s.gen)
	}
}

// Stop ends the current run without notifying observers. Continuations that
// are already scheduled see the stop and do nothing.
func (s *Sink) Stop() {
	if s.state != StateRunning {
		return
	}
	s.state = StateIdle
	s.run.End(observability.OutcomeStopped, nil)
	s.log.Info("run stopped", logger.Fields(logger.FieldRunID, s.runID, logger.FieldChunkLen, len(s.acc)))
}

// next schedules a read for run gen on a later turn.
func (s *Sink) next(gen uint64) {
	s.sched.Schedule(func() {
		if !s.current(gen) {
			return
		}
		s.inFlight = true
		s.upstream.Read(s.readSize).Then(
			func(c Chunk) { s.onChunk(gen, c) },
			func(err error) { s.onFailure(gen, err) },
		)
	})
}

func (s *Sink) current(gen uint64) bool {
	return s.state == StateRunning && gen == s.gen
}

// settled clears the in-flight read and reports whether its run is still live.
// A stale read that settles during a newer run hands over to that run.
func (s *Sink) settled(gen uint64) bool {
	s.inFlight = false
	if s.current(gen) {
		return true
	}
	if s.state == StateRunning {
		s.next(s.gen)
	}
	return false
}

func (s *Sink) onChunk(gen uint64, c Chunk) {
	if !s.settled(gen) {
		s.log.Debug("discarded chunk from stopped run", logger.Fields(logger.FieldChunkLen, len(c.Data)))
		return
	}

	s.acc = append(s.acc, c.Data...)
	s.run.Chunk(len(c.Data))
	s.log.Debug("chunk", logger.Fields(logger.FieldChunkLen, len(c.Data), logger.FieldEnd, c.End))

	if !c.End {
		s.next(gen)
		return
	}

	s.state = StateFinished
	s.run.End(observability.OutcomeFinished, nil)
	s.log.Info("run finished", logger.Fields(logger.FieldRunID, s.runID, logger.FieldChunkLen, len(s.acc)))
	for _, fn := range s.onFinished {
		fn(s.Result())
	}
}

func (s *Sink) onFailure(gen uint64, err error) {
	if !s.settled(gen) {
		s.log.Debug("discarded error from stopped run", logger.Fields(logger.FieldError, err.Error()))
		return
	}

	s.state = StateFailed
	s.err = err
	s.run.End(observability.OutcomeFailed, err)
	s.log.Error("run failed", logger.Fields(
		logger.FieldRunID, s.runID,
		logger.FieldChunkLen, len(s.acc),
		logger.FieldError, err.Error(),
	))
	for _, fn := range s.onError {
		fn(err)
	}
}

// State returns the current lifecycle state.
func (s *Sink) State() State { return s.state }

// Result returns a copy of everything accumulated so far.
func (s *Sink) Result() []byte {
	out := make([]byte, len(s.acc))
	copy(out, s.acc)
	return out
}

// Err returns the error that failed the sink, if any.
func (s *Sink) Err() error { return s.err }

// RunID returns the identifier of the most recent run.
func (s *Sink) RunID() string { return s.runID }

// Name returns the sink name.
func (s *Sink) Name() string { return s.name }
