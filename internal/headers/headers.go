// Package headers implements tail's "==> name <==" output multiplexer:
// it decides, for each descriptor about to produce stdout bytes, whether a
// header is due, and tracks the "focus" (the descriptor that produced the
// most recent byte) so redundant headers are elided.
package headers

import (
	"fmt"
	"io"
)

// Multiplexer decides when to print a file header before writing bytes
// from a given source name, mirroring GNU tail's header elision rules.
type Multiplexer struct {
	w       io.Writer
	enabled bool
	focus   string
	started bool // whether any header has been printed yet (for blank-line elision)
}

// New creates a Multiplexer. enabled should be the caller's precomputed
// "(multiFile || verbose) && !quiet" decision (quiet always wins over
// verbose, regardless of flag order).
func New(w io.Writer, enabled bool) *Multiplexer {
	return &Multiplexer{w: w, enabled: enabled}
}

// BeforeWrite emits a header for name if it differs from the current focus
// and headers are enabled, then updates focus to name. It must be called
// once before the first byte written on behalf of name in any given burst
// of output.
func (m *Multiplexer) BeforeWrite(name string) {
	if !m.enabled || m.focus == name {
		return
	}
	if m.started {
		fmt.Fprintln(m.w)
	}
	fmt.Fprintf(m.w, "==> %s <==\n", name)
	m.focus = name
	m.started = true
}

// Focus returns the name of the descriptor that most recently produced
// output, or "" if none has yet.
func (m *Multiplexer) Focus() string {
	return m.focus
}
