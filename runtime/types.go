package runtime

import (
	"fmt"
	"strings"
)

// ValueType identifies the type of a guest value.
type ValueType uint8

const (
	I32 ValueType = iota + 1
	I64
)

// String returns the conventional lowercase name for the type.
func (t ValueType) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	default:
		return fmt.Sprintf("ValueType(%d)", uint8(t))
	}
}

// FunctionType describes the shape of a guest-callable function.
// Guest values travel in int64 slots regardless of declared type; the
// declared types exist for shape validation and wire encoding.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// Equal reports whether two function types have identical shapes.
func (ft FunctionType) Equal(other FunctionType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i, p := range ft.Params {
		if p != other.Params[i] {
			return false
		}
	}
	for i, r := range ft.Results {
		if r != other.Results[i] {
			return false
		}
	}
	return true
}

// String renders the type as "(i32)->(i64)".
func (ft FunctionType) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, p := range ft.Params {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(")->(")
	for i, r := range ft.Results {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(r.String())
	}
	sb.WriteString(")")
	return sb.String()
}
