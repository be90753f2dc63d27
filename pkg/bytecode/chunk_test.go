package bytecode

import (
	"errors"
	"math"
	"testing"
)

func TestNewChunk(t *testing.T) {
	c := NewChunk()

	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	if c.ConstantCount() != 0 {
		t.Errorf("ConstantCount() = %d, want 0", c.ConstantCount())
	}
	if c.Consumed() {
		t.Error("new chunk reports Consumed()")
	}
}

func TestChunkWriteInstr(t *testing.T) {
	c := NewChunk()

	off0 := c.WriteInstr(OpNegate, 1)
	if off0 != 0 {
		t.Errorf("First write offset = %d, want 0", off0)
	}
	off1 := c.WriteInstr(OpReturn, 1)
	if off1 != 1 {
		t.Errorf("Second write offset = %d, want 1", off1)
	}

	code := c.Code()
	if len(code) != 2 {
		t.Fatalf("len(Code()) = %d, want 2", len(code))
	}
	if Opcode(code[0]) != OpNegate {
		t.Errorf("Code[0] = 0x%02X, want OpNegate", code[0])
	}
	if Opcode(code[1]) != OpReturn {
		t.Errorf("Code[1] = 0x%02X, want OpReturn", code[1])
	}
}

func TestChunkConstantHandlesInInsertionOrder(t *testing.T) {
	c := NewChunk()
	values := []Value{3.5, 1, 3.5, -2}
	for _, v := range values {
		c.WriteConst(v, 1)
	}

	// No de-duplication: the repeated 3.5 gets its own handle.
	if c.ConstantCount() != len(values) {
		t.Fatalf("ConstantCount() = %d, want %d", c.ConstantCount(), len(values))
	}
	code := c.Code()
	for i, want := range values {
		if handle := int(code[i*2+1]); handle != i {
			t.Errorf("instruction %d handle = %d, want %d", i, handle, i)
		}
		if got, ok := c.Constant(i); !ok || got != want {
			t.Errorf("Constant(%d) = %v, %v, want %v, true", i, got, ok, want)
		}
	}
	if _, ok := c.Constant(len(values)); ok {
		t.Error("Constant past end reported a value")
	}
}

func TestChunkWriteConstEncodingWidths(t *testing.T) {
	tests := []struct {
		handle int
		op     Opcode
		bytes  []byte
	}{
		{0, OpConstant, []byte{0x00}},
		{255, OpConstant, []byte{0xFF}},
		{256, OpConstant16, []byte{0x01, 0x00}},
		{65535, OpConstant16, []byte{0xFF, 0xFF}},
		{65536, OpConstant24, []byte{0x01, 0x00, 0x00}},
		{0xABCDEF, OpConstant24, []byte{0xAB, 0xCD, 0xEF}},
	}

	for _, tt := range tests {
		op := constantOpFor(tt.handle)
		if op != tt.op {
			t.Errorf("constantOpFor(%d) = %s, want %s", tt.handle, op, tt.op)
			continue
		}
		got := appendOperand(nil, tt.handle, op.OperandLen())
		if string(got) != string(tt.bytes) {
			t.Errorf("appendOperand(%d) = % X, want % X", tt.handle, got, tt.bytes)
		}
		if back := JoinOperand(got); back != tt.handle {
			t.Errorf("JoinOperand(% X) = %d, want %d", got, back, tt.handle)
		}
	}
}

// countConstantOps walks the chunk and counts each constant-load opcode.
func countConstantOps(t *testing.T, c *Chunk) map[Opcode]int {
	t.Helper()
	counts := make(map[Opcode]int)
	code := c.Code()
	for offset := 0; offset < len(code); {
		op := Opcode(code[offset])
		if !op.IsConstant() {
			t.Fatalf("unexpected opcode %s at %d", op, offset)
		}
		counts[op]++
		offset += op.InstructionLen()
	}
	return counts
}

func TestChunkMoreThan255Constants(t *testing.T) {
	c := NewChunk()
	line := 1
	for i := 0; i <= 265; i++ {
		if i > 0 && i%3 == 0 {
			line++
		}
		c.WriteConst(Value(i), line)
	}

	if c.ConstantCount() != 266 {
		t.Fatalf("ConstantCount() = %d, want 266", c.ConstantCount())
	}
	if v, _ := c.Constant(265); v != 265 {
		t.Errorf("Constant(265) = %v, want 265", v)
	}

	counts := countConstantOps(t, c)
	if counts[OpConstant] != 256 {
		t.Errorf("CONSTANT count = %d, want 256", counts[OpConstant])
	}
	if counts[OpConstant16] != 10 {
		t.Errorf("CONSTANT_16 count = %d, want 10", counts[OpConstant16])
	}

	// Handle 256 is the first wide load.
	firstWide := 256 * 2
	if op := Opcode(c.Code()[firstWide]); op != OpConstant16 {
		t.Errorf("opcode at %d = %s, want CONSTANT_16", firstWide, op)
	}
	if h := JoinOperand(c.Code()[firstWide+1 : firstWide+3]); h != 256 {
		t.Errorf("first CONSTANT_16 handle = %d, want 256", h)
	}
}

func TestChunkMoreThan65535Constants(t *testing.T) {
	if testing.Short() {
		t.Skip("large constant pool")
	}

	c := NewChunk()
	line := 1
	for i := 0; i <= math.MaxUint16+10; i++ {
		if i > 0 && i%100 == 0 {
			line++
		}
		c.WriteConst(Value(i), line)
	}

	if c.ConstantCount() != 65546 {
		t.Fatalf("ConstantCount() = %d, want 65546", c.ConstantCount())
	}
	if v, _ := c.Constant(65545); v != 65545 {
		t.Errorf("Constant(65545) = %v, want 65545", v)
	}

	counts := countConstantOps(t, c)
	if counts[OpConstant] != 256 || counts[OpConstant16] != 65280 || counts[OpConstant24] != 10 {
		t.Errorf("opcode counts = %v, want 256/65280/10", counts)
	}

	firstWide := 256*2 + 65280*3
	if op := Opcode(c.Code()[firstWide]); op != OpConstant24 {
		t.Errorf("opcode at %d = %s, want CONSTANT_24", firstWide, op)
	}
	if h := JoinOperand(c.Code()[firstWide+1 : firstWide+4]); h != 65536 {
		t.Errorf("first CONSTANT_24 handle = %d, want 65536", h)
	}
}

func TestChunkLineAttribution(t *testing.T) {
	c := NewChunk()
	c.WriteConst(1.5, 123) // 0-1
	c.WriteInstr(OpNegate, 123)
	c.WriteInstr(OpReturn, 123)
	c.WriteConst(2.5, 124) // 4-5
	c.WriteInstr(OpReturn, 124)

	if got := c.Lines().Len(); got != 2 {
		t.Fatalf("line runs = %d, want 2", got)
	}
	for offset := 0; offset < 4; offset++ {
		if line, _ := c.Line(offset); line != 123 {
			t.Errorf("Line(%d) = %d, want 123", offset, line)
		}
	}
	for offset := 4; offset < c.Len(); offset++ {
		if line, _ := c.Line(offset); line != 124 {
			t.Errorf("Line(%d) = %d, want 124", offset, line)
		}
	}
}

func TestChunkWideOperandBytesShareOpcodeLine(t *testing.T) {
	c := NewChunk()
	for i := 0; i < 256; i++ {
		c.WriteConst(0, 1)
	}
	start := c.WriteConst(7, 2) // CONSTANT_16 + 2 operand bytes

	for offset := start; offset < start+3; offset++ {
		if line, _ := c.Line(offset); line != 2 {
			t.Errorf("Line(%d) = %d, want 2", offset, line)
		}
	}
}

func TestChunkIntoStreamConsumes(t *testing.T) {
	c := NewChunk()
	c.WriteConst(1, 1)
	c.WriteInstr(OpReturn, 1)

	s := c.IntoStream()
	defer s.Close()

	if !c.Consumed() {
		t.Error("chunk not marked consumed")
	}
	if c.Len() != 0 || c.ConstantCount() != 0 || c.Lines().Len() != 0 {
		t.Error("consumed chunk still holds data")
	}
	if s.Remaining() != 3 {
		t.Errorf("stream Remaining() = %d, want 3", s.Remaining())
	}
}

func expectConsumedPanic(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrChunkConsumed) {
			t.Errorf("%s: recovered %v, want ErrChunkConsumed", name, r)
		}
	}()
	f()
}

func TestChunkWriteAfterConsumePanics(t *testing.T) {
	c := NewChunk()
	c.WriteInstr(OpReturn, 1)
	c.IntoStream().Close()

	expectConsumedPanic(t, "WriteInstr", func() { c.WriteInstr(OpReturn, 1) })
	expectConsumedPanic(t, "WriteConst", func() { c.WriteConst(1, 1) })
	expectConsumedPanic(t, "IntoStream", func() { c.IntoStream() })
}

func TestStreamDecodesOperands(t *testing.T) {
	c := NewChunk()
	for i := 0; i < 300; i++ {
		c.WriteConst(Value(i), 1)
	}
	s := c.IntoStream()
	defer s.Close()

	for want := 0; want < 300; want++ {
		offset, b, ok := s.Next()
		if !ok {
			t.Fatalf("stream ended before handle %d", want)
		}
		op := Opcode(b)
		handle, ok := s.ReadOperand(op.OperandLen())
		if !ok || handle != want {
			t.Fatalf("handle at %d = %d, %v, want %d", offset, handle, ok, want)
		}
		if v, _ := s.Constant(handle); v != Value(want) {
			t.Errorf("Constant(%d) = %v, want %d", handle, v, want)
		}
	}
	if _, _, ok := s.Next(); ok {
		t.Error("stream has bytes past the last instruction")
	}
}

func TestStreamTruncatedOperand(t *testing.T) {
	c := NewChunk()
	c.WriteInstr(OpConstant24, 1)
	c.WriteInstr(Opcode(0x01), 1) // only one of three operand bytes

	s := c.IntoStream()
	defer s.Close()
	s.Next()
	if _, ok := s.ReadOperand(3); ok {
		t.Error("ReadOperand on truncated stream reported success")
	}
}

func TestStreamCloseReleasesRemaining(t *testing.T) {
	c := DemoChunk()
	total := c.Len()
	s := c.IntoStream()

	for i := 0; i < 5; i++ {
		s.Next()
	}
	if s.Remaining() != total-5 {
		t.Errorf("Remaining() = %d, want %d", s.Remaining(), total-5)
	}

	s.Close()
	s.Close()

	if s.Remaining() != 0 {
		t.Errorf("Remaining() after Close = %d, want 0", s.Remaining())
	}
	if _, ok := s.Constant(0); ok {
		t.Error("constant pool still readable after Close")
	}
	if s.Lines().Len() != 0 {
		t.Error("line table still populated after Close")
	}
}
