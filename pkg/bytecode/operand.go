package bytecode

// MaxConstants is the number of pool entries a chunk can address. The
// widest constant load carries a 24-bit handle.
const MaxConstants = 1 << 24

// constantOpFor picks the narrowest constant-load opcode able to carry
// handle.
func constantOpFor(handle int) Opcode {
	switch {
	case handle <= 0xFF:
		return OpConstant
	case handle <= 0xFFFF:
		return OpConstant16
	default:
		return OpConstant24
	}
}

// appendOperand appends handle as width big-endian bytes.
func appendOperand(dst []byte, handle, width int) []byte {
	for shift := (width - 1) * 8; shift >= 0; shift -= 8 {
		dst = append(dst, byte(handle>>shift))
	}
	return dst
}

// JoinOperand joins 1 to 3 big-endian operand bytes into an unsigned index.
func JoinOperand(b []byte) int {
	n := 0
	for _, x := range b {
		n = n<<8 | int(x)
	}
	return n
}
