package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Protocol violations
const (
	// ErrCodeReadPastEnd indicates a read was issued after end-of-stream was reported.
	ErrCodeReadPastEnd ErrorCode = "READ_PAST_END"
	// ErrCodeOverlappingRead indicates a read was issued while another was still in flight.
	ErrCodeOverlappingRead ErrorCode = "OVERLAPPING_READ"
	// ErrCodeOversizedChunk indicates an upstream returned more units than were requested.
	ErrCodeOversizedChunk ErrorCode = "OVERSIZED_CHUNK"
	// ErrCodeInvalidReadSize indicates a read was requested with a negative size.
	ErrCodeInvalidReadSize ErrorCode = "INVALID_READ_SIZE"
)

// Stage errors
const (
	// ErrCodeTransformFailed indicates a transform function panicked.
	ErrCodeTransformFailed ErrorCode = "TRANSFORM_FAILED"
	// ErrCodeStalled indicates the scheduler drained while a sink was still running.
	ErrCodeStalled ErrorCode = "STALLED"
	// ErrCodeStopped indicates a sink was stopped before reaching a terminal state.
	ErrCodeStopped ErrorCode = "STOPPED"
	// ErrCodeAlreadySettled indicates a promise was settled more than once.
	ErrCodeAlreadySettled ErrorCode = "ALREADY_SETTLED"
)

// Setup errors
const (
	// ErrCodeInvalidConfig indicates the configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeUnknownTransform indicates a transform name is not registered.
	ErrCodeUnknownTransform ErrorCode = "UNKNOWN_TRANSFORM"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var protocolCodes = map[ErrorCode]bool{
	ErrCodeReadPastEnd:     true,
	ErrCodeOverlappingRead: true,
	ErrCodeOversizedChunk:  true,
	ErrCodeInvalidReadSize: true,
}

// IsProtocolCode returns true if the code marks a violation of the read contract.
func IsProtocolCode(code ErrorCode) bool {
	return protocolCodes[code]
}
