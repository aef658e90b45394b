package resolve

import (
	"fmt"

	"elnino/internal/diag"
)

// ErrorKind enumerates fatal resolution errors.
type ErrorKind uint8

const (
	// ErrUnknownBuiltinCode: a primitive code matched no decoding rule.
	ErrUnknownBuiltinCode ErrorKind = iota + 1
	// ErrUnknownLeafKind: an uninterpreted leaf kind in strict mode.
	ErrUnknownLeafKind
	// ErrNotAggregate: BuildAggregate was handed something other than a
	// structure or union.
	ErrNotAggregate
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnknownBuiltinCode:
		return "unknown builtin code"
	case ErrUnknownLeafKind:
		return "unknown leaf kind"
	case ErrNotAggregate:
		return "not an aggregate"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Code maps the kind onto its diagnostic code.
func (k ErrorKind) Code() diag.Code {
	switch k {
	case ErrUnknownBuiltinCode:
		return diag.ResUnknownBuiltinCode
	case ErrUnknownLeafKind:
		return diag.ResUnknownLeafKind
	default:
		return diag.UnknownCode
	}
}

// Error is a fatal resolution error. It aborts the whole load.
type Error struct {
	Kind    ErrorKind
	Subject string // aggregate or enum being built, if known
	Leaf    string // for ErrUnknownLeafKind, ErrNotAggregate
	Err     error  // for ErrUnknownBuiltinCode
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var msg string
	switch e.Kind {
	case ErrUnknownBuiltinCode:
		msg = "unknown builtin type code"
		if e.Err != nil {
			msg = e.Err.Error()
		}
	case ErrUnknownLeafKind:
		msg = fmt.Sprintf("unknown leaf kind %s", e.Leaf)
	case ErrNotAggregate:
		msg = fmt.Sprintf("%s record is not a structure or union", e.Leaf)
	default:
		msg = fmt.Sprintf("resolve error kind=%d", e.Kind)
	}
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s", e.Subject, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
