// Package diag is the single stderr writer the follow engine uses for
// diagnostics. Every message is prefixed with the program
// name and written immediately (no buffering across calls) so it appears
// ahead of any stdout output produced as its consequence.
package diag

import (
	"fmt"
	"io"
	"os"
)

// Formatter writes "<prog>: ..." diagnostics to an underlying writer.
type Formatter struct {
	w       io.Writer
	prog    string
	verbose bool
}

// New creates a Formatter. verbose gates Debugf output; it does not affect
// the normative event messages below, which are always emitted.
func New(w io.Writer, prog string, verbose bool) *Formatter {
	return &Formatter{w: w, prog: prog, verbose: verbose}
}

// CannotOpen reports that name could not be opened at startup.
func (f *Formatter) CannotOpen(name string, reason error) {
	text := reasonText(reason)
	if os.IsNotExist(reason) {
		text = "No such file or directory"
	} else if os.IsPermission(reason) {
		text = "Permission denied"
	}
	fmt.Fprintf(f.w, "%s: cannot open '%s': %s\n", f.prog, name, text)
}

// NoSuchFile reports that name has disappeared.
func (f *Formatter) NoSuchFile(name string) {
	fmt.Fprintf(f.w, "%s: %s: No such file or directory\n", f.prog, name)
}

// Truncated reports that name was truncated.
func (f *Formatter) Truncated(name string) {
	fmt.Fprintf(f.w, "%s: %s: file truncated\n", f.prog, name)
}

// Appeared reports that name, previously missing, now resolves to a file.
// Note the doubled space before "following" — this is normative wording.
func (f *Formatter) Appeared(name string) {
	fmt.Fprintf(f.w, "%s: '%s' has appeared;  following new file\n", f.prog, name)
}

// Replaced reports that name now resolves to a different device+inode.
// Note the doubled space before "following" — this is normative wording.
func (f *Formatter) Replaced(name string) {
	fmt.Fprintf(f.w, "%s: '%s' has been replaced;  following new file\n", f.prog, name)
}

// Errorf reports a generic mid-stream error built from format and args.
func (f *Formatter) Errorf(format string, args ...any) {
	fmt.Fprintf(f.w, "%s: %s\n", f.prog, fmt.Sprintf(format, args...))
}

// Debugf emits operational (non-normative) detail, gated on verbose.
func (f *Formatter) Debugf(format string, args ...any) {
	if !f.verbose {
		return
	}
	fmt.Fprintf(f.w, "%s: %s\n", f.prog, fmt.Sprintf(format, args...))
}

// reasonText trims the common os.PathError wrapping down to its underlying
// message so "cannot open 'x': open x: no such file or directory" reads
// as "cannot open 'x': no such file or directory".
func reasonText(err error) string {
	type unwrapper interface{ Unwrap() error }
	for {
		if u, ok := err.(unwrapper); ok {
			if inner := u.Unwrap(); inner != nil {
				err = inner
				continue
			}
		}
		break
	}
	return err.Error()
}
