package watch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/lurktail/lurk/internal/source"
)

// notifyBackend watches each descriptor's parent directory only (not the
// file itself); create, rename, write and remove events for tracked names
// in those directories all arrive as directory events, so Appeared/Replaced
// are seen even while the file is absent. Raw fsnotify.Events are
// translated through classify into the normalized vocabulary.
type notifyBackend struct {
	watcher *fsnotify.Watcher
	events  chan Event
	cancel  context.CancelFunc
}

// NewNotify starts an fsnotify-backed Backend over descs. If the underlying
// watcher cannot be created (platform without inotify/kqueue/ReadDirectory-
// ChangesW support, or resource exhaustion), it returns an error and the
// caller should fall back to NewPolling.
func NewNotify(ctx context.Context, descs []*source.Descriptor) (Backend, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dirs := make(map[string]bool)
	for _, d := range descs {
		if d.Kind != source.File {
			continue
		}
		dir := filepath.Dir(d.Name)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, err
		}
		dirs[dir] = true
	}

	ctx, cancel := context.WithCancel(ctx)
	b := &notifyBackend{
		watcher: w,
		events:  make(chan Event),
		cancel:  cancel,
	}
	go b.run(ctx, descs)
	return b, nil
}

func (b *notifyBackend) Events() <-chan Event { return b.events }

func (b *notifyBackend) Close() error {
	b.cancel()
	return b.watcher.Close()
}

// run is the backend's single internal goroutine: it owns the raw fsnotify
// channel and states map exclusively, never letting descriptors' mutable
// fields be touched from outside this goroutine, and forwards only
// normalized events on the single-producer Events channel.
func (b *notifyBackend) run(ctx context.Context, descs []*source.Descriptor) {
	defer close(b.events)

	byName := make(map[string]*source.Descriptor, len(descs))
	states := make(map[*source.Descriptor]trackedState, len(descs))
	for _, d := range descs {
		if d.Kind != source.File {
			continue
		}
		byName[d.Name] = d
		states[d] = initialState(d)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			_ = err // watcher errors are discarded; nothing is reported

		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			d, tracked := byName[ev.Name]
			if !tracked {
				continue
			}
			fi, statErr := d.Stat()
			kind, next, changed := classify(states[d], fi, statErr)
			states[d] = next
			if !changed {
				continue
			}
			select {
			case b.events <- Event{Kind: kind, D: d}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Watchable reports whether fsnotify can meaningfully watch name's parent
// directory. Special files (FIFOs, devices) and paths whose directory
// doesn't exist yet are Unwatchable; the engine falls back to polling them.
func Watchable(name string) bool {
	if fi, err := os.Stat(name); err == nil && !fi.Mode().IsRegular() {
		return false
	}
	dir := filepath.Dir(name)
	fi, err := os.Stat(dir)
	if err != nil {
		return false
	}
	return fi.IsDir()
}
