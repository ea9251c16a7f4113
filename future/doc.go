// Package future provides the single-resolution deferred result returned by
// every pullstream read.
//
// A Promise is the write side and a Future is the read side of one eventual
// outcome: a value or an error, settled exactly once. Handlers attached with
// Then are always dispatched through a loop.Scheduler, both when the promise
// settles and when Then is called on an already-settled future, so a handler
// never runs inside the call that attached or settled it.
//
//	p := future.NewPromise[int](l)
//	p.Future().Then(func(v int) { ... }, func(err error) { ... })
//	l.Schedule(func() { _ = p.Resolve(42) })
package future
