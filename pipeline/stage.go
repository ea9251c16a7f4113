package pipeline

import (
	"github.com/kbukum/pullstream/errors"
	"github.com/kbukum/pullstream/future"
	"github.com/kbukum/pullstream/logger"
	"github.com/kbukum/pullstream/observability"
)

// DefaultReadSize is the number of units requested when Read is called with 0.
const DefaultReadSize = 4

// Chunk is the result of one read.
// Data holds at most the requested number of units and is shorter only when
// End is true. Data must be treated as read-only by downstream stages.
type Chunk struct {
	Data []byte
	End  bool
}

// Stage is anything that can be pulled from.
type Stage interface {
	// Read requests up to n units. n == 0 selects DefaultReadSize; n < 0 is
	// rejected. The returned future settles on a later scheduler turn.
	// Callers must not issue a new Read before the previous one settles.
	Read(n int) *future.Future[Chunk]
}

// Option configures a stage.
type Option func(*options)

type options struct {
	name     string
	log      *logger.Logger
	readSize int
	inst     *observability.Instruments
}

// resolveOptions applies all options over the given default name.
func resolveOptions(name string, opts []Option) *options {
	o := &options{name: name, log: logger.Nop(), readSize: DefaultReadSize}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.WithFields(logger.Fields(logger.FieldStage, o.name))
	return o
}

// WithName sets the stage name used in logs and errors.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the stage logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithReadSize sets how many units a Sink requests per read. Ignored by other stages.
func WithReadSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readSize = n
		}
	}
}

// WithTelemetry sets the instruments a Sink records runs on. Ignored by other stages.
func WithTelemetry(inst *observability.Instruments) Option {
	return func(o *options) {
		o.inst = inst
	}
}

// readSize maps a requested size to an effective one.
func readSize(stage string, n int) (int, error) {
	switch {
	case n == 0:
		return DefaultReadSize, nil
	case n < 0:
		return 0, errors.InvalidReadSize(stage, n)
	default:
		return n, nil
	}
}
