// Package follow implements the follow engine: the single-threaded
// cooperative loop that emits each input's initial window, then — when
// requested — dispatches normalized watcher events for the lifetime of the
// process, handling growth, truncation, rotation, deletion, and
// recreation, until the process is signalled or a sentinel PID exits.
package follow

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/lurktail/lurk/internal/config"
	"github.com/lurktail/lurk/internal/diag"
	"github.com/lurktail/lurk/internal/filesystem"
	"github.com/lurktail/lurk/internal/headers"
	"github.com/lurktail/lurk/internal/procwatch"
	"github.com/lurktail/lurk/internal/source"
	"github.com/lurktail/lurk/internal/watch"
	"github.com/lurktail/lurk/internal/window"
)

// ErrInputError is returned by Run when at least one descriptor failed to
// open or read cleanly; the caller (cmd/lurk) maps this to exit code 1
// without printing anything further, since the diagnostic was already
// written to stderr at the point of failure.
var ErrInputError = errors.New("one or more inputs failed")

// Engine is the per-invocation follow engine: the ordered descriptor list
// and the collaborators described in FollowState. The watch backend is
// chosen per run inside followLoop rather than stored here.
type Engine struct {
	cfg      config.Config
	opener   filesystem.FileOpener
	out      io.Writer
	diag     *diag.Formatter
	mux      *headers.Multiplexer
	liveness procwatch.Liveness
	descs    []*source.Descriptor
}

// New builds an Engine for cfg. stdin is only read from for a "-" path
// argument.
func New(cfg config.Config, opener filesystem.FileOpener, out io.Writer, d *diag.Formatter, liveness procwatch.Liveness, stdin io.Reader) *Engine {
	descs := make([]*source.Descriptor, 0, len(cfg.Paths))
	for _, p := range cfg.Paths {
		if p == "-" {
			descs = append(descs, source.NewStdin(stdin))
		} else {
			descs = append(descs, source.NewFile(p))
		}
	}
	show := cfg.ShowHeaders(len(descs))
	return &Engine{
		cfg:      cfg,
		opener:   opener,
		out:      out,
		diag:     d,
		mux:      headers.New(out, show),
		liveness: liveness,
		descs:    descs,
	}
}

// Run performs the initial window emission for every descriptor and, if
// follow mode was requested, enters the follow loop until ctx is cancelled
// or a configured sentinel PID exits.
func (e *Engine) Run(ctx context.Context) error {
	hadError := e.emitInitialWindows()

	if e.cfg.Follow == config.FollowNone {
		if hadError {
			return ErrInputError
		}
		return nil
	}

	e.followLoop(ctx)

	if hadError {
		return ErrInputError
	}
	return nil
}

// emitInitialWindows runs the window selector over every descriptor in
// argument order before any follow event is processed, per spec's ordering
// guarantee. It returns whether any descriptor failed to open or read.
func (e *Engine) emitInitialWindows() bool {
	hadError := false
	for _, d := range e.descs {
		if d.Kind == source.File {
			if err := d.Open(e.opener); err != nil {
				e.diag.CannotOpen(d.Name, err)
				hadError = true
				continue
			}
		}

		e.mux.BeforeWrite(d.Name)
		if _, err := window.Select(d.Reader(), e.cfg.Spec, e.cfg.Delim, e.out); err != nil {
			e.diag.Errorf("%s: %v", d.Name, err)
			hadError = true
			continue
		}
		if d.Seekable() {
			if off, err := d.Seek(0, io.SeekCurrent); err == nil {
				d.Offset = off
			}
		}
	}
	return hadError
}

// followLoop is the event dispatch loop described in spec §4.6 step 3,
// plus the sentinel-PID check from step 4 run on every tick.
func (e *Engine) followLoop(ctx context.Context) {
	fileDescs := make([]*source.Descriptor, 0, len(e.descs))
	for _, d := range e.descs {
		if d.Kind == source.File {
			fileDescs = append(fileDescs, d)
		}
	}

	backend := e.chooseBackend(ctx, fileDescs)
	defer backend.Close()

	interval := e.cfg.SleepInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	unchanged := make(map[*source.Descriptor]int, len(fileDescs))

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-backend.Events():
			if !ok {
				return
			}
			unchanged[ev.D] = 0
			e.handleEvent(ev)

		case <-ticker.C:
			e.pollStdin()
			e.checkMaxUnchanged(fileDescs, unchanged)
			if e.cfg.HasPID && !e.liveness.Alive(e.cfg.PID) {
				return
			}
		}
	}
}

// chooseBackend splits descs into fsnotify-watchable and unwatchable
// subsets (special files, or paths whose directory doesn't yet exist),
// running the event backend over the former and the polling backend over
// the latter, merged into one Backend — so a single FIFO among several
// regular files never forces the whole run onto polling.
func (e *Engine) chooseBackend(ctx context.Context, descs []*source.Descriptor) watch.Backend {
	var watchable, polled []*source.Descriptor
	for _, d := range descs {
		if watch.Watchable(d.Name) {
			watchable = append(watchable, d)
		} else {
			polled = append(polled, d)
		}
	}

	var backends []watch.Backend
	if !e.cfg.DisableInotify && len(watchable) > 0 {
		if b, err := watch.NewNotify(ctx, watchable); err == nil {
			e.diag.Debugf("using event backend for %d descriptor(s)", len(watchable))
			backends = append(backends, b)
		} else {
			e.diag.Debugf("event backend unavailable (%v), falling back to polling", err)
			polled = append(polled, watchable...)
			watchable = nil
		}
	} else {
		polled = append(polled, watchable...)
	}

	if len(polled) > 0 || len(backends) == 0 {
		e.diag.Debugf("using polling backend for %d descriptor(s)", len(polled))
		backends = append(backends, watch.NewPolling(ctx, polled, e.cfg.SleepInterval))
	}

	if len(backends) == 1 {
		return backends[0]
	}
	return watch.Merge(backends...)
}

// handleEvent dispatches a normalized watch event. Disappeared/Appeared/
// Replaced are name-mode concepts: --follow=descriptor keeps reading the
// already-open handle across a rename or unlink (the handle stays valid
// until the last reader closes it on Unix, and the teacher's descriptor
// mode never reopens), so those three events are only acted on when the
// engine is actually running in name mode.
func (e *Engine) handleEvent(ev watch.Event) {
	d := ev.D
	switch ev.Kind {
	case watch.Appended:
		e.appended(d)
	case watch.Truncated:
		e.diag.Truncated(d.Name)
		d.Offset = 0
		e.appended(d)
	case watch.Disappeared:
		if e.cfg.Follow != config.FollowName {
			return
		}
		e.diag.NoSuchFile(d.Name)
		d.Close()
	case watch.Appeared:
		if e.cfg.Follow != config.FollowName {
			return
		}
		e.diag.Appeared(d.Name)
		e.reopenFromZero(d)
	case watch.Replaced:
		if e.cfg.Follow != config.FollowName {
			return
		}
		e.diag.Replaced(d.Name)
		e.reopenFromZero(d)
	case watch.Unwatchable:
		// The backend split in chooseBackend keeps this from firing in
		// practice; nothing to do per-event if it ever does.
	}
}

func (e *Engine) appended(d *source.Descriptor) {
	e.mux.BeforeWrite(d.Name)
	if err := d.ReadToEnd(e.out); err != nil {
		e.diag.Errorf("%s: %v", d.Name, err)
	}
}

func (e *Engine) reopenFromZero(d *source.Descriptor) {
	d.Close()
	if err := d.Open(e.opener); err != nil {
		e.diag.CannotOpen(d.Name, err)
		return
	}
	d.Offset = 0
	e.appended(d)
}

// pollStdin reads any stdin descriptor to EOF on every tick, since stdin
// has no identity or size for a backend to watch.
func (e *Engine) pollStdin() {
	for _, d := range e.descs {
		if d.Kind == source.Stdin {
			e.appended(d)
		}
	}
}

// checkMaxUnchanged re-stats a --follow=name descriptor after
// MaxUnchangedStats consecutive ticks with no delivered event, to catch
// rotation the active backend missed (spec §6's --max-unchanged-stats).
func (e *Engine) checkMaxUnchanged(descs []*source.Descriptor, unchanged map[*source.Descriptor]int) {
	if e.cfg.Follow != config.FollowName || e.cfg.MaxUnchangedStats <= 0 {
		return
	}
	for _, d := range descs {
		if d.Presence != source.Present {
			continue
		}
		unchanged[d]++
		if unchanged[d] < e.cfg.MaxUnchangedStats {
			continue
		}
		unchanged[d] = 0

		fi, err := d.Stat()
		if err != nil {
			e.diag.NoSuchFile(d.Name)
			d.Close()
			continue
		}
		if !d.SameIdentity(fi) {
			e.diag.Replaced(d.Name)
			e.reopenFromZero(d)
		}
	}
}
