package bytecode

import (
	"errors"
	"fmt"
)

var (
	// ErrCompile is matched by errors for bytes that are not a known opcode.
	ErrCompile = errors.New("compile error")

	// ErrRuntime is matched by stack underflow, out-of-range constant
	// handles and truncated operand bytes.
	ErrRuntime = errors.New("runtime error")

	// ErrStackOverflow is returned when a push exceeds the stack's capacity.
	ErrStackOverflow = errors.New("stack overflow")

	// ErrInterpreterBusy is returned by Interpret while a run is in progress.
	ErrInterpreterBusy = errors.New("interpreter is already running")

	// ErrChunkConsumed is the panic value for writes to (or a second
	// IntoStream of) a chunk that has already been consumed.
	ErrChunkConsumed = errors.New("chunk has been consumed")
)

// ErrorKind classifies an execution error.
type ErrorKind uint8

const (
	KindCompile ErrorKind = iota + 1
	KindRuntime
	KindStackOverflow
)

// String returns a human-readable name for ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindCompile:
		return "compile"
	case KindRuntime:
		return "runtime"
	case KindStackOverflow:
		return "stack overflow"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindCompile:
		return ErrCompile
	case KindRuntime:
		return ErrRuntime
	case KindStackOverflow:
		return ErrStackOverflow
	default:
		return nil
	}
}

// Error is returned by Interpret when a run halts. It records where in the
// chunk execution stopped and matches ErrCompile, ErrRuntime or
// ErrStackOverflow with errors.Is.
type Error struct {
	Kind   ErrorKind
	Offset int    // Offset of the failing instruction's opcode byte
	Line   int    // Source line of the failing instruction (0 if unknown)
	Op     Opcode // Opcode byte being executed
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %04d (line %d) %s: %s", e.Kind.sentinel(), e.Offset, e.Line, e.Op, e.Msg)
}

// Unwrap returns the sentinel matching the error's kind.
func (e *Error) Unwrap() error {
	return e.Kind.sentinel()
}
