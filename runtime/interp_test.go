package runtime

import (
	"testing"
)

// buildModule is a test helper that assembles a module from chunks.
func buildModule(t *testing.T) *Module {
	t.Helper()
	return NewModule("test")
}

func invoke(t *testing.T, mod *Module, name string, globals int, args ...int64) (int64, error) {
	t.Helper()
	fn := mod.Function(name)
	if fn == nil {
		t.Fatalf("function %q not found", name)
	}
	compartment := NewCompartment(globals)
	ctx := compartment.NewContext()
	defer ctx.Release()
	return Invoke(ctx, fn, args...)
}

func TestArithmetic(t *testing.T) {
	mod := buildModule(t)
	// (10 + 2) * 4 - 9 / 3
	c := NewChunk()
	c.EmitConstant(10)
	c.EmitConstant(2)
	c.Emit(OpAdd)
	c.EmitConstant(4)
	c.Emit(OpMul)
	c.EmitConstant(9)
	c.EmitConstant(3)
	c.Emit(OpDivS)
	c.Emit(OpSub)
	c.Emit(OpReturn)
	mod.AddFunction("calc", FunctionType{Results: []ValueType{I64}}, c)

	result, err := invoke(t, mod, "calc", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 45 {
		t.Errorf("expected 45, got %d", result)
	}
}

func TestRemainderAndComparisons(t *testing.T) {
	mod := buildModule(t)
	// 17 % 5 == 2 -> 1
	c := NewChunk()
	c.EmitConstant(17)
	c.EmitConstant(5)
	c.Emit(OpRemS)
	c.EmitConstant(2)
	c.Emit(OpEq)
	c.Emit(OpReturn)
	mod.AddFunction("rem", FunctionType{Results: []ValueType{I64}}, c)

	result, err := invoke(t, mod, "rem", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 1 {
		t.Errorf("expected 1, got %d", result)
	}
}

func TestLocalsAndLoop(t *testing.T) {
	mod := buildModule(t)
	// sum(n): total = 0; while n > 0 { total += n; n -= 1 }; return total
	c := NewChunk()
	c.LocalCount = 1 // local 0 = n (param), local 1 = total
	loopStart := c.CurrentOffset()
	c.EmitWithOperand(OpLocalGet, 0)
	c.Emit(OpConstZero)
	c.Emit(OpGtS)
	exit := c.EmitJump(OpJumpFalse)
	c.EmitWithOperand(OpLocalGet, 1)
	c.EmitWithOperand(OpLocalGet, 0)
	c.Emit(OpAdd)
	c.EmitWithOperand(OpLocalSet, 1)
	c.EmitWithOperand(OpLocalGet, 0)
	c.Emit(OpConstOne)
	c.Emit(OpSub)
	c.EmitWithOperand(OpLocalSet, 0)
	c.EmitLoop(loopStart)
	c.PatchJump(exit)
	c.EmitWithOperand(OpLocalGet, 1)
	c.Emit(OpReturn)
	mod.AddFunction("sum", FunctionType{Params: []ValueType{I64}, Results: []ValueType{I64}}, c)

	result, err := invoke(t, mod, "sum", 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 55 {
		t.Errorf("expected 55, got %d", result)
	}
}

func TestGlobalsSharedAcrossContexts(t *testing.T) {
	mod := buildModule(t)
	set := NewChunk()
	set.EmitConstant(42)
	set.EmitWithOperand(OpGlobalSet, 0)
	set.Emit(OpReturn)
	mod.AddFunction("set", FunctionType{}, set)

	get := NewChunk()
	get.EmitWithOperand(OpGlobalGet, 0)
	get.Emit(OpReturn)
	mod.AddFunction("get", FunctionType{Results: []ValueType{I64}}, get)

	compartment := NewCompartment(1)

	ctx1 := compartment.NewContext()
	defer ctx1.Release()
	if _, err := Invoke(ctx1, mod.Function("set")); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	ctx2 := compartment.NewContext()
	defer ctx2.Release()
	result, err := Invoke(ctx2, mod.Function("get"))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42 through second context, got %d", result)
	}
}

func TestFunctionCall(t *testing.T) {
	mod := buildModule(t)
	double := NewChunk()
	double.EmitWithOperand(OpLocalGet, 0)
	double.EmitConstant(2)
	double.Emit(OpMul)
	double.Emit(OpReturn)
	d := mod.AddFunction("double", FunctionType{Params: []ValueType{I64}, Results: []ValueType{I64}}, double)

	main := NewChunk()
	main.EmitConstant(21)
	main.EmitCall(d.Index())
	main.Emit(OpReturn)
	mod.AddFunction("main", FunctionType{Results: []ValueType{I64}}, main)

	result, err := invoke(t, mod, "main", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got %d", result)
	}
}

func TestHostFunctionCall(t *testing.T) {
	mod := buildModule(t)
	var got int64
	h := mod.AddHostFunction("host.record",
		FunctionType{Params: []ValueType{I64}, Results: []ValueType{I64}},
		func(call *Call, args []int64) ([]int64, error) {
			got = args[0]
			return []int64{args[0] + 1}, nil
		})

	main := NewChunk()
	main.EmitConstant(7)
	main.EmitCall(h.Index())
	main.Emit(OpReturn)
	mod.AddFunction("main", FunctionType{Results: []ValueType{I64}}, main)

	result, err := invoke(t, mod, "main", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7 {
		t.Errorf("host function saw %d, expected 7", got)
	}
	if result != 8 {
		t.Errorf("expected 8, got %d", result)
	}
}

func TestDivideByZeroTraps(t *testing.T) {
	mod := buildModule(t)
	c := NewChunk()
	c.EmitConstant(5)
	c.Emit(OpConstZero)
	c.Emit(OpDivS)
	c.Emit(OpReturn)
	mod.AddFunction("boom", FunctionType{Results: []ValueType{I64}}, c)

	_, err := invoke(t, mod, "boom", 0)
	if !IsTrap(err, TrapIntegerDivideByZero) {
		t.Errorf("expected divide-by-zero trap, got %v", err)
	}
}

func TestCallDepthLimit(t *testing.T) {
	mod := buildModule(t)
	c := NewChunk()
	c.EmitCall(1) // calls itself, slot 1
	c.Emit(OpReturn)
	mod.AddFunction("recurse", FunctionType{Results: []ValueType{I64}}, c)

	compartment := NewCompartment(0)
	compartment.SetMaxCallDepth(16)
	ctx := compartment.NewContext()
	defer ctx.Release()

	_, err := Invoke(ctx, mod.Function("recurse"))
	if !IsTrap(err, TrapStackOverflow) {
		t.Errorf("expected stack overflow trap, got %v", err)
	}
}

func TestCallNullFuncref(t *testing.T) {
	mod := buildModule(t)
	c := NewChunk()
	c.EmitCall(0) // slot 0 is the null reference
	c.Emit(OpReturn)
	mod.AddFunction("bad", FunctionType{Results: []ValueType{I64}}, c)

	_, err := invoke(t, mod, "bad", 0)
	if !IsTrap(err, TrapInvalidArgument) {
		t.Errorf("expected invalid-argument trap, got %v", err)
	}
}

func TestUnreachableTraps(t *testing.T) {
	mod := buildModule(t)
	c := NewChunk()
	c.Emit(OpUnreachable)
	mod.AddFunction("dead", FunctionType{}, c)

	_, err := invoke(t, mod, "dead", 0)
	if !IsTrap(err, TrapUnreachable) {
		t.Errorf("expected unreachable trap, got %v", err)
	}
}

func TestTruncatedOperandTraps(t *testing.T) {
	// Raw code bytes as a hostile program would carry them: each ends
	// mid-operand.
	cases := map[string][]byte{
		"const":      {byte(OpConst), 0x00},
		"local.get":  {byte(OpLocalGet)},
		"local.set":  {byte(OpLocalSet)},
		"global.get": {byte(OpGlobalGet)},
		"jump":       {byte(OpJump), 0x00},
		"jump.true":  {byte(OpJumpTrue)},
		"call":       {byte(OpCall), 0x00},
		"func.ref":   {byte(OpFuncRef)},
	}
	for name, code := range cases {
		mod := buildModule(t)
		mod.AddFunction(name, FunctionType{}, &Chunk{Code: code})
		_, err := invoke(t, mod, name, 0)
		if !IsTrap(err, TrapOutOfBounds) {
			t.Errorf("%s: expected out-of-bounds trap, got %v", name, err)
		}
	}
}

func TestJumpOutOfRangeTraps(t *testing.T) {
	cases := map[string][]byte{
		"backward": {byte(OpJump), 0xFF, 0x9C}, // offset -100
		"forward":  {byte(OpJump), 0x00, 0x7F}, // offset +127, past the end
	}
	for name, code := range cases {
		mod := buildModule(t)
		mod.AddFunction(name, FunctionType{}, &Chunk{Code: code})
		_, err := invoke(t, mod, name, 0)
		if !IsTrap(err, TrapOutOfBounds) {
			t.Errorf("%s: expected out-of-bounds trap, got %v", name, err)
		}
	}
}

func TestJumpToEndIsImplicitReturn(t *testing.T) {
	mod := buildModule(t)
	c := NewChunk()
	c.EmitConstant(9)
	exit := c.EmitJump(OpJump)
	c.Emit(OpUnreachable)
	c.PatchJump(exit) // lands exactly at len(Code)
	mod.AddFunction("skip", FunctionType{Results: []ValueType{I64}}, c)

	result, err := invoke(t, mod, "skip", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 9 {
		t.Errorf("expected 9, got %d", result)
	}
}

func TestInvokeArityMismatch(t *testing.T) {
	mod := buildModule(t)
	c := NewChunk()
	c.EmitWithOperand(OpLocalGet, 0)
	c.Emit(OpReturn)
	mod.AddFunction("id", FunctionType{Params: []ValueType{I64}, Results: []ValueType{I64}}, c)

	_, err := invoke(t, mod, "id", 0) // no args
	if !IsTrap(err, TrapSignatureMismatch) {
		t.Errorf("expected signature-mismatch trap, got %v", err)
	}
}

func TestCloneIsIndependentMidCall(t *testing.T) {
	mod := buildModule(t)
	var cloned *Context
	h := mod.AddHostFunction("host.fork",
		FunctionType{Results: []ValueType{I64}},
		func(call *Call, args []int64) ([]int64, error) {
			cloned = call.Context.Clone()
			return []int64{1}, nil
		})

	main := NewChunk()
	main.EmitCall(h.Index())
	main.EmitConstant(100)
	main.Emit(OpAdd)
	main.Emit(OpReturn)
	mod.AddFunction("main", FunctionType{Results: []ValueType{I64}}, main)

	compartment := NewCompartment(0)
	ctx := compartment.NewContext()
	defer ctx.Release()

	result, err := Invoke(ctx, mod.Function("main"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 101 {
		t.Errorf("expected 101 on the original, got %d", result)
	}

	if cloned == nil {
		t.Fatal("host function did not clone the context")
	}
	defer cloned.Release()
	// The clone resumes after the host call with its own pushed result.
	cloned.Push(41)
	result, err = Resume(cloned)
	if err != nil {
		t.Fatalf("clone resume failed: %v", err)
	}
	if result != 141 {
		t.Errorf("expected 141 on the clone, got %d", result)
	}
}

func TestLiveContextAccounting(t *testing.T) {
	compartment := NewCompartment(0)
	ctx := compartment.NewContext()
	dup := ctx.Clone()
	if n := compartment.LiveContexts(); n != 2 {
		t.Fatalf("expected 2 live contexts, got %d", n)
	}
	ctx.Release()
	ctx.Release() // idempotent
	dup.Release()
	if n := compartment.LiveContexts(); n != 0 {
		t.Errorf("expected 0 live contexts, got %d", n)
	}
}
