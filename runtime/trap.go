package runtime

import (
	"errors"
	"fmt"
)

// TrapCode classifies guest-visible abnormal terminations.
type TrapCode int

const (
	// TrapInvalidArgument - the guest passed an unknown or stale handle
	// (for example a thread id that was already joined or detached).
	TrapInvalidArgument TrapCode = iota + 1

	// TrapSignatureMismatch - a function reference does not have the shape
	// the operation requires.
	TrapSignatureMismatch

	// TrapStackOverflow - the call-frame limit was exceeded.
	TrapStackOverflow

	// TrapIntegerDivideByZero - integer division or remainder by zero.
	TrapIntegerDivideByZero

	// TrapOutOfBounds - an out-of-range constant, global, or operand
	// stack access in guest bytecode.
	TrapOutOfBounds

	// TrapUnreachable - the guest executed an unreachable instruction.
	TrapUnreachable
)

// String returns a stable name for the trap code.
func (c TrapCode) String() string {
	switch c {
	case TrapInvalidArgument:
		return "invalid argument"
	case TrapSignatureMismatch:
		return "signature mismatch"
	case TrapStackOverflow:
		return "stack overflow"
	case TrapIntegerDivideByZero:
		return "integer divide by zero"
	case TrapOutOfBounds:
		return "out of bounds"
	case TrapUnreachable:
		return "unreachable executed"
	default:
		return fmt.Sprintf("TrapCode(%d)", int(c))
	}
}

// Trap is a guest-triggered abnormal termination of a call chain. Traps
// propagate as ordinary errors up through the interpreter and abort only
// the offending call chain, never the process.
type Trap struct {
	Code    TrapCode
	Message string
}

func (t *Trap) Error() string {
	if t.Message == "" {
		return t.Code.String()
	}
	return t.Code.String() + ": " + t.Message
}

// Trapf builds a trap with a formatted message.
func Trapf(code TrapCode, format string, args ...interface{}) *Trap {
	return &Trap{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsTrap reports whether err is (or wraps) a trap with the given code.
func IsTrap(err error, code TrapCode) bool {
	var t *Trap
	return errors.As(err, &t) && t.Code == code
}
