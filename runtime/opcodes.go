package runtime

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Stack manipulation (0x00-0x0F)
	// ========================================================================

	OpNop  Opcode = 0x00 // No operation
	OpDrop Opcode = 0x01 // Pop and discard top of stack
	OpDup  Opcode = 0x02 // Duplicate top of stack

	// ========================================================================
	// Constants (0x10-0x1F)
	// ========================================================================

	OpConst     Opcode = 0x10 // Push constant from pool: OpConst <index:u16>
	OpConstZero Opcode = 0x11 // Push 0
	OpConstOne  Opcode = 0x12 // Push 1

	// ========================================================================
	// Local variables (0x20-0x2F)
	// ========================================================================

	OpLocalGet Opcode = 0x20 // Push local slot: OpLocalGet <slot:u8>
	OpLocalSet Opcode = 0x21 // Pop and store to local slot: OpLocalSet <slot:u8>

	// ========================================================================
	// Compartment globals (0x30-0x3F) - shared across all contexts
	// ========================================================================

	OpGlobalGet Opcode = 0x30 // Push compartment global: OpGlobalGet <index:u8>
	OpGlobalSet Opcode = 0x31 // Pop and store to compartment global: OpGlobalSet <index:u8>

	// ========================================================================
	// Arithmetic (0x40-0x4F)
	// ========================================================================

	OpAdd  Opcode = 0x40 // Pop two, push sum
	OpSub  Opcode = 0x41 // Pop two, push a - b where b is TOS
	OpMul  Opcode = 0x42 // Pop two, push product
	OpDivS Opcode = 0x43 // Pop two, push signed quotient; traps on zero divisor
	OpRemS Opcode = 0x44 // Pop two, push signed remainder; traps on zero divisor

	// ========================================================================
	// Comparison (0x50-0x5F) - push 1 or 0
	// ========================================================================

	OpEq  Opcode = 0x50
	OpNe  Opcode = 0x51
	OpLtS Opcode = 0x52
	OpLeS Opcode = 0x53
	OpGtS Opcode = 0x54
	OpGeS Opcode = 0x55
	OpEqz Opcode = 0x56 // Pop one, push 1 if zero

	// ========================================================================
	// Control flow (0x60-0x6F)
	// ========================================================================

	OpJump      Opcode = 0x60 // Unconditional relative jump: OpJump <offset:i16>
	OpJumpTrue  Opcode = 0x61 // Jump if popped value is nonzero: OpJumpTrue <offset:i16>
	OpJumpFalse Opcode = 0x62 // Jump if popped value is zero: OpJumpFalse <offset:i16>

	// ========================================================================
	// Calls and returns (0x70-0x7F)
	// ========================================================================

	OpCall        Opcode = 0x70 // Call module function: OpCall <index:u16>
	OpFuncRef     Opcode = 0x71 // Push function-table index as a funcref: OpFuncRef <index:u16>
	OpReturn      Opcode = 0x72 // Return from the current function
	OpUnreachable Opcode = 0x73 // Trap unconditionally
)

// OpcodeInfo describes an opcode for disassembly and validation.
type OpcodeInfo struct {
	Name     string
	Operands int // operand bytes following the opcode
}

var opcodeTable = map[Opcode]OpcodeInfo{
	OpNop:         {"nop", 0},
	OpDrop:        {"drop", 0},
	OpDup:         {"dup", 0},
	OpConst:       {"const", 2},
	OpConstZero:   {"const.zero", 0},
	OpConstOne:    {"const.one", 0},
	OpLocalGet:    {"local.get", 1},
	OpLocalSet:    {"local.set", 1},
	OpGlobalGet:   {"global.get", 1},
	OpGlobalSet:   {"global.set", 1},
	OpAdd:         {"add", 0},
	OpSub:         {"sub", 0},
	OpMul:         {"mul", 0},
	OpDivS:        {"div_s", 0},
	OpRemS:        {"rem_s", 0},
	OpEq:          {"eq", 0},
	OpNe:          {"ne", 0},
	OpLtS:         {"lt_s", 0},
	OpLeS:         {"le_s", 0},
	OpGtS:         {"gt_s", 0},
	OpGeS:         {"ge_s", 0},
	OpEqz:         {"eqz", 0},
	OpJump:        {"jump", 2},
	OpJumpTrue:    {"jump.true", 2},
	OpJumpFalse:   {"jump.false", 2},
	OpCall:        {"call", 2},
	OpFuncRef:     {"func.ref", 2},
	OpReturn:      {"return", 0},
	OpUnreachable: {"unreachable", 0},
}

// GetOpcodeInfo returns the info entry for an opcode, or a synthetic
// entry for unknown bytes.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("unknown(0x%02x)", byte(op)), Operands: 0}
}
