package bytecode

// Stream is the one-shot execution view of a consumed Chunk. Bytes are read
// front to back exactly once; Close releases whatever remains.
type Stream struct {
	code      *BufferIter[byte]
	constants Buffer[Value]
	lines     LineTable
}

// Next returns the next byte and its offset, or false at end of stream.
func (s *Stream) Next() (offset int, b byte, ok bool) {
	offset = s.code.Pos()
	b, ok = s.code.Next()
	return offset, b, ok
}

// ReadOperand consumes n (1 to 3) operand bytes and joins them big-endian.
// Returns false if fewer than n bytes remain; the bytes that were present
// are consumed either way.
func (s *Stream) ReadOperand(n int) (int, bool) {
	var buf [3]byte
	if n < 1 || n > len(buf) {
		return 0, false
	}
	for i := 0; i < n; i++ {
		b, ok := s.code.Next()
		if !ok {
			return 0, false
		}
		buf[i] = b
	}
	return JoinOperand(buf[:n]), true
}

// Constant returns the pool entry for handle, or false if out of range.
func (s *Stream) Constant(handle int) (Value, bool) {
	if handle < 0 || handle >= s.constants.Len() {
		return 0, false
	}
	return s.constants.At(handle), true
}

// Lines returns the line table of the consumed chunk.
func (s *Stream) Lines() *LineTable {
	return &s.lines
}

// Offset returns the offset of the next unread byte.
func (s *Stream) Offset() int {
	return s.code.Pos()
}

// Remaining returns the number of unread bytes.
func (s *Stream) Remaining() int {
	return s.code.Remaining()
}

// Close releases the unread bytes, the constant pool and the line table.
// It is safe to call more than once.
func (s *Stream) Close() {
	s.code.Close()
	s.constants.Release()
	s.lines.runs.Release()
}
