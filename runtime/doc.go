// Package runtime implements the WAVM guest execution core.
//
// This package contains:
//   - the i32/i64 value and function-type model
//   - bytecode chunks and the stack-machine opcode set
//   - modules mixing bytecode functions with host functions
//   - compartments (shared globals) and cloneable execution contexts
//   - the interpreter, including mid-call resumption of cloned contexts
//   - the trap taxonomy for guest-visible failures
package runtime
