package bytecode

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// State is the lifecycle state of an Interpreter.
type State int32

const (
	StateIdle    State = iota // Ready for Interpret
	StateRunning              // Executing a chunk
	StateHalted               // Last run stopped with an error
)

// String returns a human-readable name for State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithTracer reports every executed instruction to t. A nil tracer,
// NopTracer or a nil *TextTracer, *CBORTracer or *LogTracer disables tracing.
// Other Tracer implementations must be non-nil.
func WithTracer(t Tracer) Option {
	return func(in *Interpreter) {
		in.tracer = t
	}
}

// WithStrictReturn makes RETURN on an empty stack a runtime error instead of
// a no-op.
func WithStrictReturn(strict bool) Option {
	return func(in *Interpreter) {
		in.strictReturn = strict
	}
}

// WithReturnHandler calls fn with every value reported by RETURN.
func WithReturnHandler(fn func(Value)) Option {
	return func(in *Interpreter) {
		in.onReturn = fn
	}
}

// WithLogger sets the logger for run lifecycle messages.
func WithLogger(log commonlog.Logger) Option {
	return func(in *Interpreter) {
		in.log = log
	}
}

// Interpreter executes chunks against its own operand stack.
//
// Each Interpreter is an independent instance: callers that run chunks
// concurrently construct one Interpreter per goroutine. A call to Interpret
// while another is in progress on the same instance returns
// ErrInterpreterBusy.
type Interpreter struct {
	stack *Stack

	tracer       Tracer
	tracing      bool
	strictReturn bool
	onReturn     func(Value)
	log          commonlog.Logger

	state atomic.Int32
	err   error
	runID uuid.UUID
}

// NewInterpreter creates an idle interpreter with an empty stack.
func NewInterpreter(opts ...Option) *Interpreter {
	in := &Interpreter{
		stack: NewStack(),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.tracing = !isNopTracer(in.tracer)
	if in.log == nil {
		in.log = commonlog.GetLogger("stackvm.interpreter")
	}
	return in
}

// State returns the interpreter's current state.
func (in *Interpreter) State() State {
	return State(in.state.Load())
}

// Err returns the error that halted the last run, or nil.
func (in *Interpreter) Err() error {
	if in.State() != StateHalted {
		return nil
	}
	return in.err
}

// Stack returns the interpreter's operand stack. It is only meaningful
// between runs.
func (in *Interpreter) Stack() *Stack {
	return in.stack
}

// Interpret consumes chunk and executes it to completion.
//
// The interpreter must be idle, or halted by a previous error; every run
// starts with an empty stack. On success the interpreter returns to
// StateIdle. The first error aborts the run, leaves the interpreter in
// StateHalted and is returned as an *Error.
//
// Panics with ErrChunkConsumed if chunk has already been consumed.
func (in *Interpreter) Interpret(chunk *Chunk) error {
	chunk.checkWritable()

	if !in.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) &&
		!in.state.CompareAndSwap(int32(StateHalted), int32(StateRunning)) {
		return ErrInterpreterBusy
	}

	in.err = nil
	in.stack.Reset()
	in.runID = uuid.New()

	stream := chunk.IntoStream()
	defer stream.Close()

	in.log.Debugf("run %s: %d bytes", in.runID, stream.Remaining())

	if err := in.run(stream); err != nil {
		in.err = err
		in.state.Store(int32(StateHalted))
		in.log.Debugf("run %s halted: %s", in.runID, err)
		return err
	}

	in.state.Store(int32(StateIdle))
	in.log.Debugf("run %s finished", in.runID)
	return nil
}

// run is the main execution loop.
func (in *Interpreter) run(s *Stream) error {
	for {
		offset, b, ok := s.Next()
		if !ok {
			return nil
		}

		op := Opcode(b)
		info, known := LookupOpcode(op)
		if !known {
			return in.fail(s, KindCompile, offset, op, "unknown opcode")
		}

		var ev *TraceEvent
		if in.tracing {
			ev = in.newEvent(s, offset, op, info)
		}

		switch op {
		// ============ Constants ============
		case OpConstant, OpConstant16, OpConstant24:
			handle, ok := s.ReadOperand(info.OperandLen)
			if !ok {
				return in.fail(s, KindRuntime, offset, op,
					fmt.Sprintf("truncated operand: need %d bytes", info.OperandLen))
			}
			value, ok := s.Constant(handle)
			if !ok {
				return in.fail(s, KindRuntime, offset, op,
					fmt.Sprintf("constant handle %d out of range", handle))
			}
			if err := in.stack.Push(value); err != nil {
				return in.fail(s, KindStackOverflow, offset, op,
					fmt.Sprintf("cannot push [%d] onto a full stack (%d slots)", handle, StackMax))
			}
			if ev != nil {
				ev.Operand = &TraceOperand{Handle: handle, Value: value}
			}

		// ============ Arithmetic ============
		case OpAdd, OpSubtract, OpMultiply, OpDivide:
			right, ok := in.stack.Pop()
			if !ok {
				return in.fail(s, KindRuntime, offset, op, "stack underflow")
			}
			var left Value
			if !in.stack.Mutate(func(top *Value) {
				left = *top
				*top = arith(op, *top, right)
			}) {
				return in.fail(s, KindRuntime, offset, op, "stack underflow")
			}
			if ev != nil {
				ev.Args = []Value{left, right}
			}

		case OpNegate:
			var operand Value
			if !in.stack.Mutate(func(top *Value) {
				operand = *top
				*top = -*top
			}) {
				return in.fail(s, KindRuntime, offset, op, "stack underflow")
			}
			if ev != nil {
				ev.Args = []Value{operand}
			}

		// ============ Return ============
		case OpReturn:
			value, ok := in.stack.Pop()
			if !ok {
				if in.strictReturn {
					return in.fail(s, KindRuntime, offset, op, "return with empty stack")
				}
				break
			}
			if in.onReturn != nil {
				in.onReturn(value)
			}
			if ev != nil {
				ev.Args = []Value{value}
				ev.Returned = &value
			}
		}

		if ev != nil {
			ev.Stack = in.stack.Snapshot()
			in.tracer.Trace(ev)
		}
	}
}

// arith applies a binary arithmetic opcode. Division follows IEEE-754:
// dividing by zero yields an infinity or NaN.
func arith(op Opcode, a, b Value) Value {
	switch op {
	case OpAdd:
		return a + b
	case OpSubtract:
		return a - b
	case OpMultiply:
		return a * b
	case OpDivide:
		return a / b
	default:
		panic(fmt.Sprintf("bytecode: %s is not an arithmetic opcode", op))
	}
}

func (in *Interpreter) newEvent(s *Stream, offset int, op Opcode, info OpcodeInfo) *TraceEvent {
	line, same := lineColumn(s.Lines(), offset)
	return &TraceEvent{
		RunID:    in.runID,
		Offset:   offset,
		Line:     line,
		SameLine: same,
		Op:       op,
		Mnemonic: info.Name,
	}
}

func (in *Interpreter) fail(s *Stream, kind ErrorKind, offset int, op Opcode, msg string) error {
	line, _ := s.Lines().FindLine(offset)
	return &Error{
		Kind:   kind,
		Offset: offset,
		Line:   line,
		Op:     op,
		Msg:    msg,
	}
}
