package runtime

// Chunk is compiled bytecode for one function: the instruction stream,
// its i64 constant pool, and the number of extra local slots the body
// needs beyond its parameters.
type Chunk struct {
	Code       []byte
	Constants  []int64
	LocalCount uint8
}

// NewChunk creates a new empty chunk.
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 64),
		Constants: make([]int64, 0, 8),
	}
}

// AddConstant adds a constant to the pool and returns its index.
// If the constant already exists, returns the existing index.
func (c *Chunk) AddConstant(value int64) uint16 {
	for i, v := range c.Constants {
		if v == value {
			return uint16(i)
		}
	}
	idx := uint16(len(c.Constants))
	c.Constants = append(c.Constants, value)
	return idx
}

// Emit appends a single-byte opcode to the code section.
func (c *Chunk) Emit(op Opcode) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	return offset
}

// EmitWithOperand appends an opcode with operand bytes.
func (c *Chunk) EmitWithOperand(op Opcode, operands ...byte) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	c.Code = append(c.Code, operands...)
	return offset
}

// EmitConstant emits an OpConst instruction for the given value,
// adding it to the pool if not already present.
func (c *Chunk) EmitConstant(value int64) int {
	switch value {
	case 0:
		return c.Emit(OpConstZero)
	case 1:
		return c.Emit(OpConstOne)
	}
	idx := c.AddConstant(value)
	return c.EmitWithOperand(OpConst, byte(idx>>8), byte(idx))
}

// EmitCall emits an OpCall for the given function-table index.
func (c *Chunk) EmitCall(index uint16) int {
	return c.EmitWithOperand(OpCall, byte(index>>8), byte(index))
}

// EmitFuncRef emits an OpFuncRef pushing the given function-table index.
func (c *Chunk) EmitFuncRef(index uint16) int {
	return c.EmitWithOperand(OpFuncRef, byte(index>>8), byte(index))
}

// EmitJump emits a jump instruction with a placeholder offset.
// Returns the offset of the placeholder for later patching.
func (c *Chunk) EmitJump(op Opcode) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op), 0xFF, 0xFF)
	return offset + 1
}

// PatchJump patches a jump instruction's offset to jump to the current position.
func (c *Chunk) PatchJump(placeholderOffset int) {
	// Relative to the byte after the 2-byte offset.
	jumpFrom := placeholderOffset + 2
	delta := len(c.Code) - jumpFrom

	c.Code[placeholderOffset] = byte(delta >> 8)
	c.Code[placeholderOffset+1] = byte(delta)
}

// EmitLoop emits a backward jump to the given loop start.
func (c *Chunk) EmitLoop(loopStart int) {
	jumpFrom := len(c.Code) + 3
	delta := loopStart - jumpFrom

	c.Code = append(c.Code, byte(OpJump))
	c.Code = append(c.Code, byte(delta>>8), byte(delta))
}

// CurrentOffset returns the current offset in the code section.
func (c *Chunk) CurrentOffset() int {
	return len(c.Code)
}
