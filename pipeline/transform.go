package pipeline

import (
	"fmt"

	"github.com/kbukum/pullstream/errors"
	"github.com/kbukum/pullstream/future"
	"github.com/kbukum/pullstream/logger"
	"github.com/kbukum/pullstream/loop"
)

// TransformFunc maps one chunk of data. It must not retain or modify its input.
type TransformFunc func([]byte) ([]byte, error)

// Transform applies a TransformFunc to every chunk read from its upstream.
// It requests exactly as many units as it was asked for, so it never holds
// a residual buffer between reads.
type Transform struct {
	sched    loop.Scheduler
	upstream Stage
	fn       TransformFunc
	pending  *future.Promise[Chunk]
	name     string
	log      *logger.Logger
}

// Map creates a Transform over upstream.
func Map(s loop.Scheduler, upstream Stage, fn TransformFunc, opts ...Option) *Transform {
	o := resolveOptions("transform", opts)
	return &Transform{
		sched:    s,
		upstream: upstream,
		fn:       fn,
		name:     o.name,
		log:      o.log,
	}
}

// Read implements Stage.
func (t *Transform) Read(n int) *future.Future[Chunk] {
	size, err := readSize(t.name, n)
	if err != nil {
		return future.Rejected[Chunk](t.sched, err)
	}
	if t.pending != nil {
		return future.Rejected[Chunk](t.sched, errors.OverlappingRead(t.name))
	}

	p := future.NewPromise[Chunk](t.sched)
	t.pending = p
	t.upstream.Read(size).Then(
		func(c Chunk) { t.onChunk(size, c) },
		func(err error) {
			t.log.Debug("upstream failed", logger.Fields(logger.FieldError, err.Error()))
			t.settle(Chunk{}, err)
		},
	)
	return p.Future()
}

func (t *Transform) onChunk(size int, c Chunk) {
	if len(c.Data) > size {
		t.settle(Chunk{}, errors.OversizedChunk(t.name, size, len(c.Data)))
		return
	}
	out, err := t.apply(c.Data)
	if err != nil {
		t.log.Debug("transform failed", logger.Fields(logger.FieldError, err.Error()))
		t.settle(Chunk{}, err)
		return
	}
	t.log.Debug("read", logger.Fields(
		logger.FieldReadSize, size,
		logger.FieldChunkLen, len(out),
		logger.FieldEnd, c.End,
	))
	t.settle(Chunk{Data: out, End: c.End}, nil)
}

// apply runs fn. An error returned by fn is passed on as is; a panic becomes
// TRANSFORM_FAILED.
func (t *Transform) apply(in []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.TransformFailed(t.name, errors.Internal(fmt.Errorf("panic: %v", r)))
		}
	}()
	return t.fn(in)
}

// settle clears the in-flight slot, then settles the promise it held.
func (t *Transform) settle(c Chunk, err error) {
	p := t.pending
	t.pending = nil
	if err != nil {
		_ = p.Reject(err)
		return
	}
	_ = p.Resolve(c)
}

// InFlight reports whether a read is waiting on upstream.
func (t *Transform) InFlight() bool { return t.pending != nil }

// Chain stacks one Transform per fn on top of upstream, in order.
func Chain(s loop.Scheduler, upstream Stage, fns []TransformFunc, opts ...Option) Stage {
	stage := upstream
	for _, fn := range fns {
		stage = Map(s, stage, fn, opts...)
	}
	return stage
}

// ChainNamed stacks the registered transforms with the given names on top of
// upstream. Each Transform is named after its registry entry.
func ChainNamed(s loop.Scheduler, upstream Stage, names []string, opts ...Option) (Stage, error) {
	stage := upstream
	for _, name := range names {
		fn, err := LookupTransform(name)
		if err != nil {
			return nil, err
		}
		stage = Map(s, stage, fn, append(opts, WithName(name))...)
	}
	return stage, nil
}
