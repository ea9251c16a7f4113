// Package loop provides the single-threaded cooperative scheduler that every
// pullstream stage defers its work to.
//
// A Loop is an explicit value: create one before building a pipeline, drive
// it with Run (or Turn) until no work remains, then discard it. Nothing in
// pullstream reaches for a process-wide loop.
//
// # Turns
//
// Continuations run strictly in the order they were scheduled. A turn runs
// exactly the continuations that were queued when the turn began; anything
// scheduled while the turn is running waits for the next turn. This is what
// keeps a sink's read loop from recursing: each read is issued from a fresh
// turn, so stack depth does not grow with stream length.
//
//	l := loop.New()
//	l.Schedule(func() { fmt.Println("later") })
//	_ = l.Run(ctx)
package loop
