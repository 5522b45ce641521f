// Package source implements InputDescriptor, the per-input state record the
// follow engine and window selector share: a display name, its kind
// (stdin or file), an open handle if any, the last-read offset, device+
// inode identity, and presence status.
package source

import (
	"io"
	"os"

	"github.com/lurktail/lurk/internal/filesystem"
)

// Kind distinguishes standard input from a named file.
type Kind int

const (
	File Kind = iota
	Stdin
)

// Presence is whether a descriptor's underlying file is currently reachable.
type Presence int

const (
	Present Presence = iota
	Missing
)

// Descriptor is one tracked input: a file argument, or the single synthetic
// descriptor standing in for standard input.
//
// Device+inode identity (spec's term for "is this still the same file") is
// tracked via os.SameFile rather than raw dev/ino integers: os.FileInfo's
// underlying sys value already carries that pair on Unix and the
// equivalent file-index pair on Windows, and os.SameFile compares them
// portably without this package needing a build-tagged variant per OS.
type Descriptor struct {
	Name   string
	Kind   Kind
	handle filesystem.ReadSeekCloser
	stdin  io.Reader

	Offset   int64
	identity os.FileInfo
	Presence Presence

	// focus-elision bookkeeping lives in headers.Multiplexer, not here —
	// Descriptor only owns identity and handle lifecycle, per spec's rule
	// that it's the unique owner of device+inode transitions.
}

// NewFile creates a Descriptor for a path argument, not yet opened.
func NewFile(name string) *Descriptor {
	return &Descriptor{Name: name, Kind: File, Presence: Missing}
}

// NewStdin creates the synthetic Descriptor standing in for os.Stdin.
func NewStdin(r io.Reader) *Descriptor {
	return &Descriptor{Name: "standard input", Kind: Stdin, Presence: Present, stdin: r}
}

// Open opens the descriptor's file (for stdin it only marks the descriptor
// Present and returns nil) and records its identity. On success Presence becomes Present.
func (d *Descriptor) Open(opener filesystem.FileOpener) error {
	if d.Kind == Stdin {
		d.Presence = Present
		return nil
	}
	h, err := opener.Open(d.Name)
	if err != nil {
		d.Presence = Missing
		return err
	}
	d.handle = h
	d.Presence = Present
	d.Offset = 0
	if fi, serr := os.Stat(d.Name); serr == nil {
		d.identity = fi
	}
	return nil
}

// Close releases the handle, if any, and marks the descriptor Missing. It
// does not forget the descriptor's Name or Offset — callers that want the
// descriptor to re-track from zero should reset Offset themselves.
func (d *Descriptor) Close() {
	if d.handle != nil {
		d.handle.Close()
		d.handle = nil
	}
	if d.Kind == File {
		d.Presence = Missing
	}
}

// Reader returns the active reader: the open file handle, or stdin's
// reader for the synthetic stdin descriptor.
func (d *Descriptor) Reader() io.Reader {
	if d.Kind == Stdin {
		return d.stdin
	}
	return d.handle
}

// Seekable reports whether the descriptor's current handle can seek — true
// for regular files, false for stdin (even though os.Stdin implements
// io.Seeker, seeking on a pipe fails at call time).
func (d *Descriptor) Seekable() bool {
	return d.Kind == File && d.handle != nil
}

// Seek seeks the open file handle. Only valid when Seekable().
func (d *Descriptor) Seek(offset int64, whence int) (int64, error) {
	return d.handle.Seek(offset, whence)
}

// ReadToEnd reads from the descriptor's current Offset to EOF, writing to
// out, and advances Offset by the number of bytes read.
func (d *Descriptor) ReadToEnd(out io.Writer) error {
	if d.Kind == File {
		if _, err := d.handle.Seek(d.Offset, io.SeekStart); err != nil {
			return err
		}
	}
	buf := make([]byte, 64*1024)
	for {
		n, err := d.Reader().Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return werr
			}
			d.Offset += int64(n)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Stat stats the descriptor's current path (not the open handle, so
// rotation where the path now points at a different inode is visible even
// before the engine reopens).
func (d *Descriptor) Stat() (os.FileInfo, error) {
	return os.Stat(d.Name)
}

// SameIdentity reports whether fi is the same underlying file as the one
// this descriptor last opened.
func (d *Descriptor) SameIdentity(fi os.FileInfo) bool {
	if d.identity == nil {
		return false
	}
	return os.SameFile(d.identity, fi)
}

// SetIdentity records fi as the descriptor's current identity snapshot.
// Open records the identity itself, so a reopen does not need this.
func (d *Descriptor) SetIdentity(fi os.FileInfo) {
	d.identity = fi
}
