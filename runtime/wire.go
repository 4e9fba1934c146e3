package runtime

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("wavm.runtime")

// ProgramVersion is the current program wire-format version.
// Increment when making incompatible changes to the format.
const ProgramVersion uint16 = 1

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("runtime: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ProgramFunc is the wire form of one bytecode function.
type ProgramFunc struct {
	Name       string      `cbor:"name"`
	Params     []ValueType `cbor:"params"`
	Results    []ValueType `cbor:"results"`
	Code       []byte      `cbor:"code"`
	Constants  []int64     `cbor:"constants,omitempty"`
	LocalCount uint8       `cbor:"locals,omitempty"`
}

// Program is a serializable guest program: its bytecode functions, the
// name of the start function, and the number of compartment globals it
// expects. Host functions are never serialized; they are bound at
// instantiation time, before the program's own functions, so call
// indices in Code stay stable across encode/decode.
type Program struct {
	Version uint16        `cbor:"version"`
	Main    string        `cbor:"main"`
	Globals int           `cbor:"globals,omitempty"`
	Funcs   []ProgramFunc `cbor:"funcs"`
}

// MarshalProgram serializes a Program to CBOR bytes.
func MarshalProgram(p *Program) ([]byte, error) {
	p.Version = ProgramVersion
	return cborEncMode.Marshal(p)
}

// UnmarshalProgram deserializes a Program from CBOR bytes.
func UnmarshalProgram(data []byte) (*Program, error) {
	var p Program
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("runtime: unmarshal program: %w", err)
	}
	if p.Version > ProgramVersion {
		return nil, fmt.Errorf("runtime: program version %d is newer than supported version %d",
			p.Version, ProgramVersion)
	}
	if p.Globals < 0 {
		return nil, fmt.Errorf("runtime: program declares %d globals", p.Globals)
	}
	return &p, nil
}

// Instantiate builds a module from the program. Each binder runs first,
// in order, to install host functions at the table indices the program's
// bytecode was emitted against.
func (p *Program) Instantiate(name string, binders ...func(*Module)) (*Module, error) {
	mod := NewModule(name)
	for _, bind := range binders {
		bind(mod)
	}
	for _, pf := range p.Funcs {
		chunk := &Chunk{
			Code:       pf.Code,
			Constants:  pf.Constants,
			LocalCount: pf.LocalCount,
		}
		mod.AddFunction(pf.Name, FunctionType{Params: pf.Params, Results: pf.Results}, chunk)
	}
	if p.Main != "" && mod.Function(p.Main) == nil {
		return nil, fmt.Errorf("runtime: program main %q not found", p.Main)
	}
	log.Debugf("instantiated module %q with %d functions", name, mod.NumFunctions())
	return mod, nil
}

// ProgramFromModule captures a module's bytecode functions for
// serialization. Host functions are skipped; they are re-bound at
// instantiation time.
func ProgramFromModule(mod *Module, main string, globals int) *Program {
	p := &Program{Version: ProgramVersion, Main: main, Globals: globals}
	for _, fn := range mod.funcs {
		if fn == nil || fn.Host != nil {
			continue
		}
		p.Funcs = append(p.Funcs, ProgramFunc{
			Name:       fn.Name,
			Params:     fn.Type.Params,
			Results:    fn.Type.Results,
			Code:       fn.Chunk.Code,
			Constants:  fn.Chunk.Constants,
			LocalCount: fn.Chunk.LocalCount,
		})
	}
	return p
}
