package pipeline

import (
	"context"

	"github.com/kbukum/pullstream/errors"
)

// Runner drives scheduled work until none is left. *loop.Loop implements it.
type Runner interface {
	Run(ctx context.Context) error
}

// Drive starts sink, runs r until it drains and reports how the run ended.
// It returns the accumulated data when the sink finished, the upstream error
// when it failed, STALLED when work ran out with the sink still running and
// STOPPED when the sink was stopped before reaching a terminal state.
func Drive(ctx context.Context, r Runner, sink *Sink) ([]byte, error) {
	sink.Start()
	if err := r.Run(ctx); err != nil {
		return sink.Result(), err
	}

	switch sink.State() {
	case StateFinished:
		return sink.Result(), nil
	case StateFailed:
		return sink.Result(), sink.Err()
	case StateRunning:
		return sink.Result(), errors.Stalled(sink.Name())
	default:
		return sink.Result(), errors.Stopped(sink.Name())
	}
}
