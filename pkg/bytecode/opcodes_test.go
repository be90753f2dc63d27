package bytecode

import (
	"strings"
	"testing"
)

func TestAllOpcodesHaveMetadata(t *testing.T) {
	// Ensure every defined opcode has metadata
	for _, op := range AllOpcodes() {
		info := GetOpcodeInfo(op)
		if info.Name == "" || strings.HasPrefix(info.Name, "UNKNOWN") {
			t.Errorf("Opcode 0x%02X has no metadata", byte(op))
		}
	}
}

func TestOpcodeCount(t *testing.T) {
	if got := OpcodeCount(); got != 9 {
		t.Errorf("OpcodeCount() = %d, want 9", got)
	}
}

func TestOpcodeString(t *testing.T) {
	tests := []struct {
		op   Opcode
		want string
	}{
		{OpConstant, "CONSTANT"},
		{OpConstant16, "CONSTANT_16"},
		{OpConstant24, "CONSTANT_24"},
		{OpAdd, "ADD"},
		{OpSubtract, "SUBTRACT"},
		{OpMultiply, "MULTIPLY"},
		{OpDivide, "DIVIDE"},
		{OpNegate, "NEGATE"},
		{OpReturn, "RETURN"},
	}

	for _, tt := range tests {
		got := tt.op.String()
		if got != tt.want {
			t.Errorf("Opcode(0x%02X).String() = %q, want %q", byte(tt.op), got, tt.want)
		}
	}
}

func TestUnknownOpcodeString(t *testing.T) {
	op := Opcode(0xEE) // Not defined
	if got := op.String(); got != "UNKNOWN: 0xee" {
		t.Errorf("Opcode(0xEE).String() = %q, want %q", got, "UNKNOWN: 0xee")
	}
	if _, ok := LookupOpcode(op); ok {
		t.Error("LookupOpcode(0xEE) reported a known opcode")
	}
}

func TestOpcodeOperandLen(t *testing.T) {
	tests := []struct {
		op   Opcode
		want int
	}{
		{OpConstant, 1},   // u8 handle
		{OpConstant16, 2}, // u16 handle
		{OpConstant24, 3}, // u24 handle
		{OpAdd, 0},
		{OpNegate, 0},
		{OpReturn, 0},
		{Opcode(0x05), 0}, // unknown
	}

	for _, tt := range tests {
		if got := tt.op.OperandLen(); got != tt.want {
			t.Errorf("%s.OperandLen() = %d, want %d", tt.op, got, tt.want)
		}
		if got := tt.op.InstructionLen(); got != tt.want+1 {
			t.Errorf("%s.InstructionLen() = %d, want %d", tt.op, got, tt.want+1)
		}
	}
}

func TestOpcodeCategories(t *testing.T) {
	for _, op := range AllOpcodes() {
		wantConst := op == OpConstant || op == OpConstant16 || op == OpConstant24
		if op.IsConstant() != wantConst {
			t.Errorf("%s.IsConstant() = %v, want %v", op, op.IsConstant(), wantConst)
		}
		wantBinary := op == OpAdd || op == OpSubtract || op == OpMultiply || op == OpDivide
		if op.IsBinary() != wantBinary {
			t.Errorf("%s.IsBinary() = %v, want %v", op, op.IsBinary(), wantBinary)
		}
	}
}

func TestOpcodeStackEffects(t *testing.T) {
	for _, op := range AllOpcodes() {
		info := GetOpcodeInfo(op)
		switch {
		case op.IsConstant():
			if info.StackPop != 0 || info.StackPush != 1 {
				t.Errorf("%s stack effect = -%d+%d, want -0+1", op, info.StackPop, info.StackPush)
			}
		case op.IsBinary():
			if info.StackPop != 2 || info.StackPush != 1 {
				t.Errorf("%s stack effect = -%d+%d, want -2+1", op, info.StackPop, info.StackPush)
			}
		}
	}
}
