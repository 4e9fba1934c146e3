package threads

import (
	"github.com/dio/wavm/runtime"
)

// Bind installs the guest-visible thread operations into mod. The
// binder form lets module instantiation register these before any
// program functions, keeping function indices stable.
func (m *Manager) Bind(mod *runtime.Module) {
	mod.AddHostFunction("threadTest.createThread",
		runtime.FunctionType{
			Params:  []runtime.ValueType{runtime.I64, runtime.I32},
			Results: []runtime.ValueType{runtime.I64},
		},
		func(call *runtime.Call, args []int64) ([]int64, error) {
			entry := call.Module().FunctionAt(args[0])
			if entry == nil {
				return nil, runtime.Trapf(runtime.TrapSignatureMismatch,
					"createThread: %d is not a function reference", args[0])
			}
			id, err := m.Create(call.Context, entry, int32(args[1]))
			if err != nil {
				return nil, err
			}
			return []int64{int64(id)}, nil
		})

	mod.AddHostFunction("threadTest.forkThread",
		runtime.FunctionType{
			Results: []runtime.ValueType{runtime.I64},
		},
		func(call *runtime.Call, args []int64) ([]int64, error) {
			id, err := m.Fork(call)
			if err != nil {
				return nil, err
			}
			return []int64{id}, nil
		})

	mod.AddHostFunction("threadTest.exitThread",
		runtime.FunctionType{
			Params: []runtime.ValueType{runtime.I64},
		},
		func(call *runtime.Call, args []int64) ([]int64, error) {
			m.Exit(args[0])
			panic("unreachable")
		})

	mod.AddHostFunction("threadTest.joinThread",
		runtime.FunctionType{
			Params:  []runtime.ValueType{runtime.I64},
			Results: []runtime.ValueType{runtime.I64},
		},
		func(call *runtime.Call, args []int64) ([]int64, error) {
			code, err := m.Join(uint64(args[0]))
			if err != nil {
				return nil, err
			}
			return []int64{code}, nil
		})

	mod.AddHostFunction("threadTest.detachThread",
		runtime.FunctionType{
			Params: []runtime.ValueType{runtime.I64},
		},
		func(call *runtime.Call, args []int64) ([]int64, error) {
			if err := m.Detach(uint64(args[0])); err != nil {
				return nil, err
			}
			return nil, nil
		})
}
