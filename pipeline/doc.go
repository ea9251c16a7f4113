// Package pipeline provides composable, pull-based asynchronous stream stages.
//
// Every stage implements Stage: a single Read(n) that returns a future of the
// next Chunk. Nothing moves until a Sink starts pulling; each stage asks its
// upstream for data only when its own downstream asks it, one chunk at a time.
// All work is deferred to a loop.Scheduler, so no read ever resolves inside
// the call that issued it.
//
// # Stages
//
//   - Source: owns a fixed block of bytes and slices it off the front
//   - Transform: maps each chunk with a TransformFunc, passing End through
//   - Sink: drives the read loop, accumulates, and notifies observers
//
// # Errors
//
// Reading a Source again after it reported End fails with READ_PAST_END.
// Failures are never recovered by a stage: they travel downstream unchanged
// until the Sink moves to Failed and fires its error observers once.
//
// # Usage
//
//	l := loop.New()
//	src := pipeline.NewSource(l, []byte("abcdEFGh\n"))
//	upper := pipeline.Map(l, src, pipeline.Upper)
//	sink := pipeline.NewSink(l, upper, pipeline.WithReadSize(4))
//	sink.OnFinished(func(b []byte) { fmt.Printf("%s", b) })
//	out, err := pipeline.Drive(ctx, l, sink)
package pipeline
