package trace

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/sarchlab/cachesim/mem/hierarchy"
)

// An OutcomeWriter writes one "L1 L2" line of outcome codes per access.
type OutcomeWriter struct {
	w     *bufio.Writer
	lines int
}

// NewOutcomeWriter creates a buffered writer. Call Flush when done.
func NewOutcomeWriter(w io.Writer) *OutcomeWriter {
	return &OutcomeWriter{w: bufio.NewWriter(w)}
}

// Write writes the outcome codes of one access.
func (w *OutcomeWriter) Write(result hierarchy.Result) error {
	_, err := fmt.Fprintf(w.w, "%d %d\n", result.L1.Code(), result.L2.Code())
	if err != nil {
		return errors.Wrap(err, "write outcome")
	}

	w.lines++

	return nil
}

// Lines returns the number of outcomes written.
func (w *OutcomeWriter) Lines() int {
	return w.lines
}

// Flush writes any buffered outcomes to the underlying writer.
func (w *OutcomeWriter) Flush() error {
	return errors.Wrap(w.w.Flush(), "flush outcomes")
}
