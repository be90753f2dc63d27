package bytecode

import "fmt"

// Chunk represents a unit of bytecode: the instruction stream, its constant
// pool and the line table attributing every byte to a source line.
//
// A chunk is built by a producer with WriteInstr and WriteConst and is then
// consumed exactly once by IntoStream (Interpreter.Interpret does this).
// Any write after consumption panics with ErrChunkConsumed.
type Chunk struct {
	code      Buffer[byte]
	constants Buffer[Value]
	lines     LineTable
	consumed  bool
}

// NewChunk creates a new empty chunk.
func NewChunk() *Chunk {
	return &Chunk{}
}

// WriteInstr appends a single-byte instruction attributed to line.
// Returns the offset of the opcode.
func (c *Chunk) WriteInstr(op Opcode, line int) int {
	c.checkWritable()
	offset := c.code.Len()
	c.write(byte(op), line)
	return offset
}

// WriteConst adds value to the constant pool and emits the narrowest
// constant-load instruction able to address its handle. Handles are assigned
// in insertion order starting at 0; equal values are not de-duplicated.
// Returns the offset of the opcode.
//
// Panics if the pool already holds MaxConstants values.
func (c *Chunk) WriteConst(value Value, line int) int {
	c.checkWritable()
	handle := c.addConstant(value)
	op := constantOpFor(handle)

	offset := c.code.Len()
	c.write(byte(op), line)

	var buf [3]byte
	for _, b := range appendOperand(buf[:0], handle, op.OperandLen()) {
		c.write(b, line)
	}
	return offset
}

func (c *Chunk) write(b byte, line int) {
	c.lines.Add(line, c.code.Len())
	c.code.Push(b)
}

func (c *Chunk) addConstant(value Value) int {
	handle := c.constants.Len()
	if handle >= MaxConstants {
		panic(fmt.Sprintf("bytecode: constant pool full (%d entries)", MaxConstants))
	}
	c.constants.Push(value)
	return handle
}

func (c *Chunk) checkWritable() {
	if c.consumed {
		panic(ErrChunkConsumed)
	}
}

// Len returns the length of the instruction stream in bytes.
func (c *Chunk) Len() int {
	return c.code.Len()
}

// Code returns the instruction bytes. Callers must not modify the slice.
func (c *Chunk) Code() []byte {
	return c.code.Slice()
}

// ConstantCount returns the number of constants in the pool.
func (c *Chunk) ConstantCount() int {
	return c.constants.Len()
}

// Constant returns the pool entry for handle, or false if out of range.
func (c *Chunk) Constant(handle int) (Value, bool) {
	if handle < 0 || handle >= c.constants.Len() {
		return 0, false
	}
	return c.constants.At(handle), true
}

// Lines returns the chunk's line table.
func (c *Chunk) Lines() *LineTable {
	return &c.lines
}

// Line returns the source line of the byte at offset.
func (c *Chunk) Line(offset int) (int, bool) {
	return c.lines.FindLine(offset)
}

// Consumed returns true once IntoStream has taken the chunk's contents.
func (c *Chunk) Consumed() bool {
	return c.consumed
}

// IntoStream consumes the chunk, moving its instructions, constants and
// lines into a one-shot Stream. The chunk is empty and unwritable
// afterwards.
func (c *Chunk) IntoStream() *Stream {
	c.checkWritable()
	s := &Stream{
		code:      c.code.IntoIter(),
		constants: c.constants,
		lines:     c.lines,
	}
	c.constants = Buffer[Value]{}
	c.lines = LineTable{}
	c.consumed = true
	return s
}

// DemoChunk builds the sample program: three expressions on lines 123-125,
// the last being -((1.2 + 3.4) / 5.6).
func DemoChunk() *Chunk {
	c := NewChunk()
	c.WriteConst(1.2, 123)
	c.WriteInstr(OpNegate, 123)
	c.WriteInstr(OpReturn, 123)

	c.WriteConst(420, 124)
	c.WriteConst(69, 124)
	c.WriteInstr(OpAdd, 124)
	c.WriteInstr(OpReturn, 124)

	c.WriteConst(1.2, 125)
	c.WriteConst(3.4, 125)
	c.WriteInstr(OpAdd, 125)
	c.WriteConst(5.6, 125)
	c.WriteInstr(OpDivide, 125)
	c.WriteInstr(OpNegate, 125)
	c.WriteInstr(OpReturn, 125)
	return c
}
