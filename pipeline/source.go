package pipeline

import (
	"github.com/kbukum/pullstream/errors"
	"github.com/kbukum/pullstream/future"
	"github.com/kbukum/pullstream/logger"
	"github.com/kbukum/pullstream/loop"
)

// Source exposes a fixed block of bytes through the pull contract,
// consuming it from the front. It reports End exactly once; any read
// after that is rejected with READ_PAST_END.
type Source struct {
	sched    loop.Scheduler
	data     []byte
	ended    bool
	inFlight bool
	name     string
	log      *logger.Logger
}

// NewSource creates a Source over a copy of data.
func NewSource(s loop.Scheduler, data []byte, opts ...Option) *Source {
	o := resolveOptions("source", opts)
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Source{
		sched: s,
		data:  buf,
		name:  o.name,
		log:   o.log,
	}
}

// Read implements Stage.
func (s *Source) Read(n int) *future.Future[Chunk] {
	size, err := readSize(s.name, n)
	if err != nil {
		return future.Rejected[Chunk](s.sched, err)
	}
	if s.inFlight {
		return future.Rejected[Chunk](s.sched, errors.OverlappingRead(s.name))
	}

	s.inFlight = true
	exhausted := s.ended
	p := future.NewPromise[Chunk](s.sched)
	s.sched.Schedule(func() {
		s.inFlight = false
		if exhausted {
			s.log.Debug("read past end", logger.Fields(logger.FieldReadSize, size))
			_ = p.Reject(errors.ReadPastEnd(s.name, size))
			return
		}

		k := size
		if k > len(s.data) {
			k = len(s.data)
		}
		chunk := s.data[:k:k]
		s.data = s.data[k:]
		s.ended = len(s.data) == 0

		s.log.Debug("read", logger.Fields(
			logger.FieldReadSize, size,
			logger.FieldChunkLen, k,
			logger.FieldEnd, s.ended,
		))
		_ = p.Resolve(Chunk{Data: chunk, End: s.ended})
	})
	return p.Future()
}

// Remaining returns the number of units not yet read.
func (s *Source) Remaining() int { return len(s.data) }

// Ended reports whether End has been delivered.
func (s *Source) Ended() bool { return s.ended }
