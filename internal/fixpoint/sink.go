package fixpoint

import (
	"fmt"

	"elnino/internal/types"
)

// Sink receives every resolved aggregate and enum. The scheduler calls
// DefineType at most once per name and kind namespace.
type Sink interface {
	DefineType(name string, kind types.Kind, t *types.Type) error
}

// SinkError wraps a sink failure. It aborts the load.
type SinkError struct {
	Name string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("define %s: %v", e.Name, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

type nopSink struct{}

func (nopSink) DefineType(string, types.Kind, *types.Type) error { return nil }
