package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Input and configuration errors
const (
	// ErrCodeInvalidConfig indicates a configuration value is missing or out of range.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInvalidInput indicates malformed input such as a bad pairs file line.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates a referenced node or resource does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Graph structure errors
const (
	// ErrCodeCycleDetected indicates the node wiring is not a DAG.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"
	// ErrCodeInvalidState indicates an operation was attempted in the wrong lifecycle state.
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"
	// ErrCodeUnexpectedMessage indicates a node received a message kind it cannot handle.
	ErrCodeUnexpectedMessage ErrorCode = "UNEXPECTED_MESSAGE"
	// ErrCodeQueueClosed indicates a push onto a queue that no longer accepts messages.
	ErrCodeQueueClosed ErrorCode = "QUEUE_CLOSED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var structuralCodes = map[ErrorCode]bool{
	ErrCodeCycleDetected:     true,
	ErrCodeInvalidState:      true,
	ErrCodeUnexpectedMessage: true,
	ErrCodeQueueClosed:       true,
}

// IsStructuralCode reports whether the code points at a wiring bug in the
// surrounding graph rather than at bad data or configuration.
func IsStructuralCode(code ErrorCode) bool {
	return structuralCodes[code]
}
