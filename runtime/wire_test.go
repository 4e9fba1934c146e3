package runtime

import (
	"testing"
)

func TestProgramRoundTrip(t *testing.T) {
	mod := NewModule("original")
	mod.AddHostFunction("host.nop", FunctionType{},
		func(call *Call, args []int64) ([]int64, error) { return nil, nil })

	double := NewChunk()
	double.EmitWithOperand(OpLocalGet, 0)
	double.EmitConstant(2)
	double.Emit(OpMul)
	double.Emit(OpReturn)
	d := mod.AddFunction("double", FunctionType{Params: []ValueType{I64}, Results: []ValueType{I64}}, double)

	main := NewChunk()
	main.EmitConstant(33)
	main.EmitCall(d.Index())
	main.Emit(OpReturn)
	mod.AddFunction("main", FunctionType{Results: []ValueType{I64}}, main)

	data, err := MarshalProgram(ProgramFromModule(mod, "main", 2))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	prog, err := UnmarshalProgram(data)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if prog.Globals != 2 {
		t.Errorf("expected 2 globals, got %d", prog.Globals)
	}

	// The binder re-installs the host function at slot 1, so the
	// decoded bytecode's call indices resolve identically.
	decoded, err := prog.Instantiate("decoded", func(m *Module) {
		m.AddHostFunction("host.nop", FunctionType{},
			func(call *Call, args []int64) ([]int64, error) { return nil, nil })
	})
	if err != nil {
		t.Fatalf("instantiate failed: %v", err)
	}

	ctx := NewCompartment(prog.Globals).NewContext()
	defer ctx.Release()
	result, err := Invoke(ctx, decoded.Function("main"))
	if err != nil {
		t.Fatalf("decoded program failed: %v", err)
	}
	if result != 66 {
		t.Errorf("expected 66, got %d", result)
	}
}

func TestUnmarshalRejectsNewerVersion(t *testing.T) {
	data, err := MarshalProgram(&Program{Main: "main"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var p Program
	p.Version = ProgramVersion + 1
	bad, err := cborEncMode.Marshal(&p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if _, err := UnmarshalProgram(bad); err == nil {
		t.Error("expected version error")
	}
	if _, err := UnmarshalProgram(data); err != nil {
		t.Errorf("current version rejected: %v", err)
	}
}

func TestUnmarshalRejectsNegativeGlobals(t *testing.T) {
	bad, err := cborEncMode.Marshal(&Program{Version: ProgramVersion, Main: "main", Globals: -1})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if _, err := UnmarshalProgram(bad); err == nil {
		t.Error("expected negative-globals error")
	}
}

func TestInstantiateMissingMain(t *testing.T) {
	prog := &Program{Version: ProgramVersion, Main: "nope"}
	if _, err := prog.Instantiate("bad"); err == nil {
		t.Error("expected missing-main error")
	}
}
