package bytecode

import "strings"

// StackMax is the fixed depth of the operand stack.
const StackMax = 256

// Stack is a fixed-capacity LIFO of values. Its storage is allocated once
// with the stack and never reallocated.
type Stack struct {
	slots [StackMax]Value
	size  int
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Push places v on top of the stack. Returns ErrStackOverflow if the stack
// already holds StackMax values.
func (s *Stack) Push(v Value) error {
	if s.size == StackMax {
		return ErrStackOverflow
	}
	s.slots[s.size] = v
	s.size++
	return nil
}

// Pop removes and returns the top value, or false if the stack is empty.
func (s *Stack) Pop() (Value, bool) {
	if s.size == 0 {
		return 0, false
	}
	s.size--
	v := s.slots[s.size]
	s.slots[s.size] = 0
	return v, true
}

// Peek returns the top value without removing it.
func (s *Stack) Peek() (Value, bool) {
	if s.size == 0 {
		return 0, false
	}
	return s.slots[s.size-1], true
}

// Mutate applies f to the top value in place. Returns false, without
// calling f, if the stack is empty.
//
// Binary operators use Mutate to fold the popped right operand into the left
// operand instead of a pop/pop/push sequence.
func (s *Stack) Mutate(f func(top *Value)) bool {
	if s.size == 0 {
		return false
	}
	f(&s.slots[s.size-1])
	return true
}

// Len returns the number of values on the stack.
func (s *Stack) Len() int {
	return s.size
}

// IsEmpty returns true if the stack holds no values.
func (s *Stack) IsEmpty() bool {
	return s.size == 0
}

// Snapshot returns a copy of the stack contents, bottom first.
func (s *Stack) Snapshot() []Value {
	out := make([]Value, s.size)
	copy(out, s.slots[:s.size])
	return out
}

// Reset removes every value from the stack.
func (s *Stack) Reset() {
	clear(s.slots[:s.size])
	s.size = 0
}

// String returns the stack contents bottom first, e.g. "[1.2, 3.4]".
func (s *Stack) String() string {
	return formatValues(s.slots[:s.size])
}

func formatValues(vals []Value) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
