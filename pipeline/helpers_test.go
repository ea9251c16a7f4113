package pipeline

import (
	"context"
	"testing"

	"github.com/kbukum/pullstream/future"
	"github.com/kbukum/pullstream/loop"
)

// pull issues one read on s and drains the loop.
func pull(t *testing.T, l *loop.Loop, s Stage, n int) (Chunk, error) {
	t.Helper()
	f := s.Read(n)
	if err := l.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	c, ok, err := f.Poll()
	if !ok {
		t.Fatal("read did not settle")
	}
	return c, err
}

// recorder passes reads through and remembers every chunk it saw.
type recorder struct {
	up     Stage
	reads  int
	chunks []Chunk
}

func (r *recorder) Read(n int) *future.Future[Chunk] {
	r.reads++
	f := r.up.Read(n)
	f.Then(func(c Chunk) { r.chunks = append(r.chunks, c) }, nil)
	return f
}

// failing rejects every read with err.
type failing struct {
	sched loop.Scheduler
	err   error
}

func (f *failing) Read(int) *future.Future[Chunk] {
	return future.Rejected[Chunk](f.sched, f.err)
}

// fixed resolves every read with the same chunk, ignoring n.
type fixed struct {
	sched loop.Scheduler
	chunk Chunk
}

func (f *fixed) Read(int) *future.Future[Chunk] {
	return future.Resolved(f.sched, f.chunk)
}

// stuck never settles.
type stuck struct {
	sched loop.Scheduler
}

func (s *stuck) Read(int) *future.Future[Chunk] {
	return future.NewPromise[Chunk](s.sched).Future()
}
