package runtime

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Disassemble returns a human-readable bytecode listing for the chunk.
func (c *Chunk) Disassemble(name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	if c.LocalCount > 0 {
		sb.WriteString(fmt.Sprintf("; Locals: %d slots\n", c.LocalCount))
	}
	if len(c.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		for i, v := range c.Constants {
			sb.WriteString(fmt.Sprintf(";   [%3d] %d\n", i, v))
		}
	}

	ip := 0
	for ip < len(c.Code) {
		offset := ip
		op := Opcode(c.Code[ip])
		ip++
		info := GetOpcodeInfo(op)

		sb.WriteString(fmt.Sprintf("%04x  %-12s", offset, info.Name))

		if info.Operands > 0 {
			if ip+info.Operands > len(c.Code) {
				sb.WriteString(" <truncated>")
				ip = len(c.Code)
			} else {
				switch info.Operands {
				case 1:
					sb.WriteString(fmt.Sprintf(" %d", c.Code[ip]))
				case 2:
					v := binary.BigEndian.Uint16(c.Code[ip:])
					switch op {
					case OpJump, OpJumpTrue, OpJumpFalse:
						// Jumps are relative; show the resolved target.
						target := ip + 2 + int(int16(v))
						sb.WriteString(fmt.Sprintf(" %+d -> %04x", int16(v), target))
					case OpConst:
						sb.WriteString(fmt.Sprintf(" %d", v))
						if int(v) < len(c.Constants) {
							sb.WriteString(fmt.Sprintf(" ; %d", c.Constants[v]))
						}
					default:
						sb.WriteString(fmt.Sprintf(" %d", v))
					}
				}
				ip += info.Operands
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// DisassembleModule lists every bytecode function in the module.
func DisassembleModule(mod *Module) string {
	var sb strings.Builder
	for _, fn := range mod.funcs {
		if fn == nil {
			continue
		}
		if fn.Host != nil {
			sb.WriteString(fmt.Sprintf("; [%3d] %s %s (host)\n\n", fn.index, fn.Name, fn.Type))
			continue
		}
		sb.WriteString(fmt.Sprintf("; [%3d] %s %s\n", fn.index, fn.Name, fn.Type))
		sb.WriteString(fn.Chunk.Disassemble(""))
		sb.WriteString("\n")
	}
	return sb.String()
}
