package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category. Numeric values are an
// internal contract between Chunk producers and the Interpreter and are not
// stable across versions.
type Opcode byte

const (
	// ========================================================================
	// Constants (0x00-0x0F)
	// ========================================================================

	OpConstant   Opcode = 0x00 // Push constant: OpConstant <handle:u8>
	OpConstant16 Opcode = 0x01 // Push constant: OpConstant16 <handle:u16>
	OpConstant24 Opcode = 0x02 // Push constant: OpConstant24 <handle:u24>

	// ========================================================================
	// Arithmetic (0x10-0x1F)
	// ========================================================================

	OpAdd      Opcode = 0x10 // Pop two, push sum
	OpSubtract Opcode = 0x11 // Pop two, push difference (a - b where b is TOS)
	OpMultiply Opcode = 0x12 // Pop two, push product
	OpDivide   Opcode = 0x13 // Pop two, push quotient (IEEE-754, no error on zero)
	OpNegate   Opcode = 0x14 // Negate top of stack in place

	// ========================================================================
	// Return (0xF0-0xFF)
	// ========================================================================

	OpReturn Opcode = 0xFF // Pop and report top of stack
)

// OpcodeInfo provides metadata about each opcode for decoding and listings.
type OpcodeInfo struct {
	Name       string // Mnemonic printed in listings and traces
	StackPop   int    // How many values popped from stack
	StackPush  int    // How many values pushed to stack
	OperandLen int    // Number of operand bytes following the opcode
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Constants
	OpConstant:   {"CONSTANT", 0, 1, 1},
	OpConstant16: {"CONSTANT_16", 0, 1, 2},
	OpConstant24: {"CONSTANT_24", 0, 1, 3},

	// Arithmetic
	OpAdd:      {"ADD", 2, 1, 0},
	OpSubtract: {"SUBTRACT", 2, 1, 0},
	OpMultiply: {"MULTIPLY", 2, 1, 0},
	OpDivide:   {"DIVIDE", 2, 1, 0},
	OpNegate:   {"NEGATE", 1, 1, 0},

	// Return
	OpReturn: {"RETURN", 1, 0, 0},
}

// LookupOpcode returns metadata for an opcode and whether the byte is a
// known instruction.
func LookupOpcode(op Opcode) (OpcodeInfo, bool) {
	info, ok := opcodeInfoTable[op]
	return info, ok
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with an "UNKNOWN" name if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN: 0x%02x", byte(op))}
}

// String returns the mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the total length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsConstant returns true if this opcode loads from the constant pool.
func (op Opcode) IsConstant() bool {
	return op >= OpConstant && op <= OpConstant24
}

// IsBinary returns true if this opcode folds two operands into one.
func (op Opcode) IsBinary() bool {
	return op >= OpAdd && op <= OpDivide
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
