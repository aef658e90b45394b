package diagfmt

import (
	"fmt"
	"io"

	"elnino/internal/diag"
)

// Short prints one grep-friendly line per diagnostic:
// <CODE>:<SEV>:<subject>: <Message>
func Short(w io.Writer, bag *diag.Bag) error {
	for _, d := range bag.Items() {
		if _, err := fmt.Fprintf(w, "%s:%s:%s: %s\n", d.Code.ID(), d.Severity, d.Subject, d.Message); err != nil {
			return err
		}
	}
	return nil
}
