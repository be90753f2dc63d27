package bytecode

import (
	"fmt"
	"strings"
)

// Listing column layout. The stack column is only used by TextTracer.
const (
	mnemonicWidth = 16
	stackColumn   = 40
)

// Disassemble returns a human-readable listing of the chunk, one
// instruction per line, e.g.
//
//	0000   123 CONSTANT          [0] '1.2'
//	0002     | RETURN
//
// Unknown opcode bytes and truncated instructions are rendered as bracketed
// markers; disassembly never aborts.
func (c *Chunk) Disassemble() string {
	return strings.Join(c.DisassembleToLines(), "\n")
}

// DisassembleToLines returns the disassembly as a slice of lines.
func (c *Chunk) DisassembleToLines() []string {
	var lines []string
	offset := 0
	for offset < c.code.Len() {
		line, instrLen := c.DisassembleInstruction(offset)
		lines = append(lines, line)
		offset += instrLen
	}
	return lines
}

// DisassembleInstruction formats the instruction at offset and returns it
// with the number of bytes it occupies.
func (c *Chunk) DisassembleInstruction(offset int) (string, int) {
	code := c.code.Slice()
	if offset < 0 || offset >= len(code) {
		return "<end of code>", 0
	}

	var sb strings.Builder
	line, same := c.lineColumn(offset)
	writePreamble(&sb, offset, line, same)

	op := Opcode(code[offset])
	info, known := LookupOpcode(op)
	switch {
	case !known:
		fmt.Fprintf(&sb, "<%s>", info.Name)
		return sb.String(), 1

	case op.IsConstant():
		end := offset + 1 + info.OperandLen
		if end > len(code) {
			fmt.Fprintf(&sb, "<TRUNCATED %s>", info.Name)
			return sb.String(), len(code) - offset
		}
		handle := JoinOperand(code[offset+1 : end])
		value, ok := c.Constant(handle)
		writeConstant(&sb, info.Name, handle, value, ok)
		return sb.String(), end - offset

	default:
		sb.WriteString(info.Name)
		return sb.String(), 1 + info.OperandLen
	}
}

// lineColumn returns the line for offset and whether it repeats the line of
// the preceding instruction.
func (c *Chunk) lineColumn(offset int) (int, bool) {
	return lineColumn(&c.lines, offset)
}

func lineColumn(lines *LineTable, offset int) (int, bool) {
	line, _ := lines.FindLine(offset)
	if offset == 0 {
		return line, false
	}
	prev, _ := lines.FindLine(offset - 1)
	return line, prev == line
}

// writePreamble writes the offset and line columns.
func writePreamble(sb *strings.Builder, offset, line int, sameLine bool) {
	fmt.Fprintf(sb, "%04d  ", offset)
	if sameLine {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(sb, "%4d ", line)
	}
}

// writeConstant writes a constant-load mnemonic with its handle and value.
func writeConstant(sb *strings.Builder, name string, handle int, value Value, ok bool) {
	if !ok {
		fmt.Fprintf(sb, "%-*s  [%d] <INVALID HANDLE>", mnemonicWidth, name, handle)
		return
	}
	fmt.Fprintf(sb, "%-*s  [%d] '%s'", mnemonicWidth, name, handle, value)
}

// InstructionCount returns the number of instructions in the chunk.
// Note: This iterates through all code, so it's O(n).
func (c *Chunk) InstructionCount() int {
	code := c.code.Slice()
	count := 0
	offset := 0
	for offset < len(code) {
		offset += Opcode(code[offset]).InstructionLen()
		count++
	}
	return count
}
