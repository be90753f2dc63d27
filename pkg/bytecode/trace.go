package bytecode

import (
	"io"
	"strings"

	"github.com/google/uuid"
)

// Tracer receives one event per executed instruction. The interpreter
// allocates a fresh event for every step, so tracers may keep it.
type Tracer interface {
	Trace(ev *TraceEvent)
}

// TraceOperand is the decoded operand of a constant load.
type TraceOperand struct {
	Handle int   `cbor:"handle"` // Constant pool index
	Value  Value `cbor:"value"`  // Resolved pool entry
}

// TraceEvent describes one executed instruction.
type TraceEvent struct {
	RunID    uuid.UUID     `cbor:"run"`                // Identifies the Interpret call
	Offset   int           `cbor:"offset"`             // Offset of the opcode byte
	Line     int           `cbor:"line"`               // Source line of the instruction
	SameLine bool          `cbor:"same_line"`          // Line equals the previous instruction's
	Op       Opcode        `cbor:"op"`                 // Opcode byte
	Mnemonic string        `cbor:"mnemonic"`           // Opcode name
	Operand  *TraceOperand `cbor:"operand,omitempty"`  // Constant loads only
	Args     []Value       `cbor:"args,omitempty"`     // Values consumed, as read before consumption
	Returned *Value        `cbor:"returned,omitempty"` // Value reported by RETURN
	Stack    []Value       `cbor:"stack"`              // Stack after the step, bottom first
}

// NopTracer discards every event. An Interpreter configured with NopTracer
// (or no tracer) skips event construction entirely.
type NopTracer struct{}

// Trace does nothing.
func (NopTracer) Trace(*TraceEvent) {}

// isNopTracer reports whether t can never observe an event: nil, NopTracer,
// a nil pointer to one of this package's tracers, or a MultiTracer made only
// of such tracers.
func isNopTracer(t Tracer) bool {
	switch t := t.(type) {
	case nil, NopTracer, *NopTracer:
		return true
	case *TextTracer:
		return t == nil
	case *CBORTracer:
		return t == nil
	case *LogTracer:
		return t == nil
	case MultiTracer:
		for _, sub := range t {
			if !isNopTracer(sub) {
				return false
			}
		}
		return true
	}
	return false
}

// MultiTracer fans each event out to several tracers in order.
type MultiTracer []Tracer

// Trace forwards ev to every tracer.
func (m MultiTracer) Trace(ev *TraceEvent) {
	for _, t := range m {
		if !isNopTracer(t) {
			t.Trace(ev)
		}
	}
}

// TextTracer writes one listing line per event: the disassembly columns
// followed by the stack contents.
type TextTracer struct {
	w   io.Writer
	err error
}

// NewTextTracer creates a tracer writing to w.
func NewTextTracer(w io.Writer) *TextTracer {
	return &TextTracer{w: w}
}

// Trace formats ev and writes it. After the first write error further
// events are dropped; see Err.
func (t *TextTracer) Trace(ev *TraceEvent) {
	if t.err != nil {
		return
	}
	_, t.err = io.WriteString(t.w, FormatTraceEvent(ev)+"\n")
}

// Err returns the first write error, if any.
func (t *TextTracer) Err() error {
	return t.err
}

// FormatTraceEvent renders ev as a single listing line without a trailing
// newline.
func FormatTraceEvent(ev *TraceEvent) string {
	var sb strings.Builder
	writePreamble(&sb, ev.Offset, ev.Line, ev.SameLine)
	if ev.Operand != nil {
		writeConstant(&sb, ev.Mnemonic, ev.Operand.Handle, ev.Operand.Value, true)
	} else {
		sb.WriteString(ev.Mnemonic)
	}

	if pad := stackColumn - sb.Len(); pad > 0 {
		sb.WriteString(strings.Repeat(" ", pad))
	} else {
		sb.WriteByte(' ')
	}
	sb.WriteString(formatValues(ev.Stack))

	if ev.Returned != nil {
		sb.WriteString(" => ")
		sb.WriteString(ev.Returned.String())
	}
	return sb.String()
}
