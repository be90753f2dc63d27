// Package bytecode provides the execution core of a stack-based virtual
// machine for numeric expressions: the instruction encoding, the line table
// mapping instructions back to source lines, a fixed-capacity operand stack
// and the fetch-decode-execute loop.
//
// The bytecode format is designed for:
//   - Compact representation (1-4 bytes per instruction)
//   - Fast decoding (single-byte opcodes, big-endian operands)
//   - Constant pools far larger than a single operand byte can address
//
// # Architecture Overview
//
// The package consists of several components:
//
//   - Buffer: a growable contiguous store (capacity 8, doubling) backing the
//     instruction bytes, the constant pool and the line table.
//
//   - Chunk: an instruction stream plus its constant pool and LineTable.
//     Producers append with WriteInstr and WriteConst. A chunk is consumed
//     exactly once by IntoStream, which hands its storage to a Stream.
//
//   - Stack: a 256-slot operand stack of float64 values that never
//     reallocates.
//
//   - Interpreter: runs a chunk's Stream against a Stack, reporting each
//     executed instruction to an optional Tracer.
//
// # Constant Encoding
//
// Constant loads are tiered by pool handle:
//
//	handle 0..255            CONSTANT    <u8>
//	handle 256..65535        CONSTANT_16 <u16 big-endian>
//	handle 65536..16777215   CONSTANT_24 <u24 big-endian>
//
// # Line Table
//
// Lines are stored as runs: a LineRun records the offset where a line starts
// and covers every byte until the next run. Consecutive writes on the same
// line share one run.
//
// # Tracing
//
// Tracers receive a TraceEvent after every executed instruction. An
// interpreter built without a tracer (or with NopTracer) never constructs
// events, so tracing costs nothing when disabled.
package bytecode
