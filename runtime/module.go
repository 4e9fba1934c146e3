package runtime

import "fmt"

// HostFunc is a function implemented by the embedder and callable from
// guest bytecode. It receives the active call environment and the popped
// arguments, and returns the result slots. Returning an error aborts the
// guest call chain.
type HostFunc func(call *Call, args []int64) ([]int64, error)

// Function is one entry in a module's function table: either compiled
// bytecode or a host function, never both.
type Function struct {
	Name string
	Type FunctionType

	Chunk *Chunk   // non-nil for bytecode functions
	Host  HostFunc // non-nil for host functions

	module *Module
	index  uint16
}

// Index returns the function's slot in its module's function table.
func (f *Function) Index() uint16 { return f.index }

// Module returns the module owning this function.
func (f *Function) Module() *Module { return f.module }

// IsHost reports whether this is a host function.
func (f *Function) IsHost() bool { return f.Host != nil }

// Module is an ordered function table mixing bytecode and host
// functions. Slot 0 is reserved: a funcref of 0 is the null reference,
// matching the convention that zero denotes an invalid handle.
type Module struct {
	Name string

	funcs  []*Function
	byName map[string]uint16
}

// NewModule creates an empty module with the null slot reserved.
func NewModule(name string) *Module {
	return &Module{
		Name:   name,
		funcs:  []*Function{nil},
		byName: make(map[string]uint16),
	}
}

// AddFunction registers a bytecode function and returns it.
// Names must be unique within the module.
func (m *Module) AddFunction(name string, ft FunctionType, chunk *Chunk) *Function {
	return m.add(&Function{Name: name, Type: ft, Chunk: chunk})
}

// AddHostFunction registers a host function and returns it.
func (m *Module) AddHostFunction(name string, ft FunctionType, host HostFunc) *Function {
	return m.add(&Function{Name: name, Type: ft, Host: host})
}

func (m *Module) add(f *Function) *Function {
	if _, exists := m.byName[f.Name]; exists {
		panic(fmt.Sprintf("runtime: duplicate function %q in module %q", f.Name, m.Name))
	}
	f.module = m
	f.index = uint16(len(m.funcs))
	m.funcs = append(m.funcs, f)
	m.byName[f.Name] = f.index
	return f
}

// Function looks a function up by name. Returns nil if absent.
func (m *Module) Function(name string) *Function {
	idx, ok := m.byName[name]
	if !ok {
		return nil
	}
	return m.funcs[idx]
}

// FunctionAt resolves a funcref. Returns nil for the null reference (0)
// and for out-of-range indices.
func (m *Module) FunctionAt(ref int64) *Function {
	if ref <= 0 || ref >= int64(len(m.funcs)) {
		return nil
	}
	return m.funcs[ref]
}

// NumFunctions returns the number of registered functions, excluding
// the reserved null slot.
func (m *Module) NumFunctions() int {
	return len(m.funcs) - 1
}
