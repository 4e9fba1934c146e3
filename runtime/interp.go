package runtime

import "encoding/binary"

// Call is the environment handed to a host function: the context it was
// called on and the host function's own table entry, from which the
// calling module is reachable for funcref resolution.
type Call struct {
	Context  *Context
	Function *Function
}

// Module returns the module the call was dispatched through.
func (c *Call) Module() *Module { return c.Function.module }

var threadEntryType = FunctionType{Params: []ValueType{I32}, Results: []ValueType{I64}}

// ThreadEntryType is the required shape for a thread entry function:
// one i32 argument, one i64 result.
func ThreadEntryType() FunctionType { return threadEntryType }

// Invoke runs fn on ctx with the given arguments and returns its result
// (0 for functions with no results). The context must be idle: invoking
// on a context that still has frames is a programming error.
func Invoke(ctx *Context, fn *Function, args ...int64) (int64, error) {
	if fn == nil {
		return 0, Trapf(TrapSignatureMismatch, "null function")
	}
	if len(args) != len(fn.Type.Params) {
		return 0, Trapf(TrapSignatureMismatch, "%q takes %d arguments, got %d",
			fn.Name, len(fn.Type.Params), len(args))
	}
	if fn.Host != nil {
		results, err := fn.Host(&Call{Context: ctx, Function: fn}, args)
		if err != nil {
			return 0, err
		}
		if len(results) > 0 {
			return results[0], nil
		}
		return 0, nil
	}
	if len(ctx.frames) != 0 {
		panic("runtime: Invoke on a context that is already executing")
	}
	if err := ctx.pushFrame(fn, args); err != nil {
		return 0, err
	}
	return Resume(ctx)
}

// InvokeI32I64 is the typed invoker for thread entry functions. It
// validates the (i32)->(i64) shape before invoking.
func InvokeI32I64(ctx *Context, fn *Function, arg int32) (int64, error) {
	if fn == nil || !fn.Type.Equal(threadEntryType) {
		return 0, Trapf(TrapSignatureMismatch, "entry function must be %s", threadEntryType)
	}
	return Invoke(ctx, fn, int64(arg))
}

// Resume runs the context's frame stack to completion and returns the
// outermost function's result. It is the entry point for continuations
// cloned mid-call: push the pending call's result first, then Resume.
func Resume(ctx *Context) (int64, error) {
	for len(ctx.frames) > 0 {
		f := ctx.top()
		chunk := f.fn.Chunk

		if f.ip >= len(chunk.Code) {
			// Implicit return: result is TOS if the function produces one.
			result, err := implicitReturn(f)
			if err != nil {
				return 0, err
			}
			if final, done := ctx.popFrame(result, len(f.fn.Type.Results) > 0); done {
				return final, nil
			}
			continue
		}

		op := Opcode(chunk.Code[f.ip])
		f.ip++

		switch op {
		case OpNop:

		case OpDrop:
			if _, err := f.pop(); err != nil {
				return 0, err
			}

		case OpDup:
			if len(f.stack) == 0 {
				return 0, Trapf(TrapOutOfBounds, "dup on empty stack in %q", f.fn.Name)
			}
			f.push(f.stack[len(f.stack)-1])

		case OpConst:
			idx, err := readU16(f, chunk.Code)
			if err != nil {
				return 0, err
			}
			if int(idx) >= len(chunk.Constants) {
				return 0, Trapf(TrapOutOfBounds, "constant %d of %d in %q",
					idx, len(chunk.Constants), f.fn.Name)
			}
			f.push(chunk.Constants[idx])

		case OpConstZero:
			f.push(0)

		case OpConstOne:
			f.push(1)

		case OpLocalGet:
			operand, err := readU8(f, chunk.Code)
			if err != nil {
				return 0, err
			}
			slot := int(operand)
			if slot >= len(f.locals) {
				return 0, Trapf(TrapOutOfBounds, "local %d of %d in %q", slot, len(f.locals), f.fn.Name)
			}
			f.push(f.locals[slot])

		case OpLocalSet:
			operand, err := readU8(f, chunk.Code)
			if err != nil {
				return 0, err
			}
			slot := int(operand)
			if slot >= len(f.locals) {
				return 0, Trapf(TrapOutOfBounds, "local %d of %d in %q", slot, len(f.locals), f.fn.Name)
			}
			v, err := f.pop()
			if err != nil {
				return 0, err
			}
			f.locals[slot] = v

		case OpGlobalGet:
			operand, err := readU8(f, chunk.Code)
			if err != nil {
				return 0, err
			}
			v, err := ctx.compartment.Global(int(operand))
			if err != nil {
				return 0, err
			}
			f.push(v)

		case OpGlobalSet:
			operand, err := readU8(f, chunk.Code)
			if err != nil {
				return 0, err
			}
			v, err := f.pop()
			if err != nil {
				return 0, err
			}
			if err := ctx.compartment.SetGlobal(int(operand), v); err != nil {
				return 0, err
			}

		case OpAdd, OpSub, OpMul, OpDivS, OpRemS:
			b, err := f.pop()
			if err != nil {
				return 0, err
			}
			a, err := f.pop()
			if err != nil {
				return 0, err
			}
			switch op {
			case OpAdd:
				f.push(a + b)
			case OpSub:
				f.push(a - b)
			case OpMul:
				f.push(a * b)
			case OpDivS:
				if b == 0 {
					return 0, Trapf(TrapIntegerDivideByZero, "in %q", f.fn.Name)
				}
				f.push(a / b)
			case OpRemS:
				if b == 0 {
					return 0, Trapf(TrapIntegerDivideByZero, "in %q", f.fn.Name)
				}
				f.push(a % b)
			}

		case OpEq, OpNe, OpLtS, OpLeS, OpGtS, OpGeS:
			b, err := f.pop()
			if err != nil {
				return 0, err
			}
			a, err := f.pop()
			if err != nil {
				return 0, err
			}
			var cond bool
			switch op {
			case OpEq:
				cond = a == b
			case OpNe:
				cond = a != b
			case OpLtS:
				cond = a < b
			case OpLeS:
				cond = a <= b
			case OpGtS:
				cond = a > b
			case OpGeS:
				cond = a >= b
			}
			f.push(boolToI64(cond))

		case OpEqz:
			a, err := f.pop()
			if err != nil {
				return 0, err
			}
			f.push(boolToI64(a == 0))

		case OpJump:
			offset, err := readI16(f, chunk.Code)
			if err != nil {
				return 0, err
			}
			if err := f.branch(int(offset), chunk); err != nil {
				return 0, err
			}

		case OpJumpTrue, OpJumpFalse:
			offset, err := readI16(f, chunk.Code)
			if err != nil {
				return 0, err
			}
			v, err := f.pop()
			if err != nil {
				return 0, err
			}
			if (op == OpJumpTrue) == (v != 0) {
				if err := f.branch(int(offset), chunk); err != nil {
					return 0, err
				}
			}

		case OpFuncRef:
			idx, err := readU16(f, chunk.Code)
			if err != nil {
				return 0, err
			}
			f.push(int64(idx))

		case OpCall:
			idx, err := readU16(f, chunk.Code)
			if err != nil {
				return 0, err
			}
			target := f.fn.module.FunctionAt(int64(idx))
			if target == nil {
				return 0, Trapf(TrapInvalidArgument, "call to null function %d in %q", idx, f.fn.Name)
			}
			args := make([]int64, len(target.Type.Params))
			for i := len(args) - 1; i >= 0; i-- {
				v, err := f.pop()
				if err != nil {
					return 0, err
				}
				args[i] = v
			}
			if target.Host != nil {
				results, err := target.Host(&Call{Context: ctx, Function: target}, args)
				if err != nil {
					return 0, err
				}
				for _, r := range results {
					f.push(r)
				}
				continue
			}
			if err := ctx.pushFrame(target, args); err != nil {
				return 0, err
			}

		case OpReturn:
			result, err := implicitReturn(f)
			if err != nil {
				return 0, err
			}
			if final, done := ctx.popFrame(result, len(f.fn.Type.Results) > 0); done {
				return final, nil
			}

		case OpUnreachable:
			return 0, Trapf(TrapUnreachable, "in %q", f.fn.Name)

		default:
			return 0, Trapf(TrapOutOfBounds, "unknown opcode 0x%02x at offset %d in %q",
				byte(op), f.ip-1, f.fn.Name)
		}
	}
	return 0, nil
}

// branch applies a relative jump. A target equal to len(Code) is the
// implicit-return position; anything outside [0, len(Code)] is
// malformed bytecode and traps.
func (f *Frame) branch(offset int, chunk *Chunk) error {
	target := f.ip + offset
	if target < 0 || target > len(chunk.Code) {
		return Trapf(TrapOutOfBounds, "jump to offset %d of %d in %q", target, len(chunk.Code), f.fn.Name)
	}
	f.ip = target
	return nil
}

func implicitReturn(f *Frame) (int64, error) {
	if len(f.fn.Type.Results) == 0 {
		return 0, nil
	}
	return f.pop()
}

func boolToI64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Operand reads bounds-check against the code section: a truncated
// operand is malformed guest bytecode and traps like any other
// out-of-range access, it never indexes past the chunk.

func readU8(f *Frame, code []byte) (byte, error) {
	if f.ip >= len(code) {
		return 0, Trapf(TrapOutOfBounds, "truncated operand at offset %d in %q", f.ip-1, f.fn.Name)
	}
	v := code[f.ip]
	f.ip++
	return v, nil
}

func readU16(f *Frame, code []byte) (uint16, error) {
	if f.ip+2 > len(code) {
		return 0, Trapf(TrapOutOfBounds, "truncated operand at offset %d in %q", f.ip-1, f.fn.Name)
	}
	v := binary.BigEndian.Uint16(code[f.ip:])
	f.ip += 2
	return v, nil
}

func readI16(f *Frame, code []byte) (int16, error) {
	v, err := readU16(f, code)
	return int16(v), err
}
