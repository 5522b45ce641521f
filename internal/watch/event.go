// Package watch implements the two follow-engine watcher backends
// (event-driven and polling) behind one normalized event vocabulary, so the
// follow engine never has to know which one is active.
package watch

import (
	"os"

	"github.com/lurktail/lurk/internal/source"
)

// Kind is the normalized event vocabulary both backends produce.
type Kind int

const (
	// Appended means the descriptor grew; the engine should read-to-end
	// from its current offset.
	Appended Kind = iota
	// Truncated means the descriptor's size decreased below the size the
	// backend last observed; the engine resets the offset to 0 and then
	// behaves as if Appended had fired.
	Truncated
	// Disappeared means the descriptor is no longer reachable by name.
	Disappeared
	// Appeared means a name previously Missing now resolves to a file.
	Appeared
	// Replaced means the name resolves to the same path but a different
	// device+inode than last observed.
	Replaced
	// Unwatchable means the backend cannot observe this descriptor (e.g. a
	// special file); the engine falls back to polling for it.
	Unwatchable
)

// Event pairs a Kind with the descriptor it concerns.
type Event struct {
	Kind Kind
	D    *source.Descriptor
}

// Backend is the common interface both watcher implementations satisfy.
// Events is a single-producer channel: the backend may run an internal
// goroutine to adapt a blocking API, but it never touches the descriptors'
// mutable fields itself, only reads Stat/Name.
type Backend interface {
	Events() <-chan Event
	Close() error
}

// trackedState is what each backend remembers per descriptor between looks,
// to turn a before/after stat comparison into one of the six event kinds.
type trackedState struct {
	present  bool
	size     int64
	identity os.FileInfo
}

// classify compares a descriptor's previously tracked state to a fresh
// stat result and returns the event kind it implies, or false if nothing
// changed. This is the one place both backends funnel through, so
// Appended/Truncated/Replaced/Appeared/Disappeared decisions are made
// identically regardless of which backend observed the change.
func classify(prev trackedState, fi os.FileInfo, statErr error) (Kind, trackedState, bool) {
	now := trackedState{present: statErr == nil}
	if statErr != nil {
		if prev.present {
			return Disappeared, now, true
		}
		return 0, prev, false
	}

	now.size = fi.Size()
	now.identity = fi

	if !prev.present {
		return Appeared, now, true
	}

	if prev.identity != nil && !os.SameFile(prev.identity, fi) {
		return Replaced, now, true
	}

	switch {
	case fi.Size() < prev.size:
		return Truncated, now, true
	case fi.Size() > prev.size:
		return Appended, now, true
	default:
		now.identity = prev.identity
		return 0, now, false
	}
}
