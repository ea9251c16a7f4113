// Package errors provides the structured error type shared by every pullstream
// package.
//
// Each failure carries a machine-readable ErrorCode so callers can tell a
// protocol violation (reading past end-of-stream, overlapping reads) from a
// failure raised by user code inside a transform. Errors produced by one stage
// travel through every downstream stage unmodified, so the code seen by the
// sink is the code of the stage that originated the failure.
package errors
