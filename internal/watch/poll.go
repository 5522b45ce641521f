package watch

import (
	"context"
	"time"

	"github.com/lurktail/lurk/internal/source"
)

// pollBackend wakes every interval, stats every descriptor, and synthesizes
// events from the before/after comparison in classify. It is the teacher's
// single-file watcher generalized from one path to the full ordered
// descriptor list.
type pollBackend struct {
	events chan Event
	cancel context.CancelFunc
}

// NewPolling starts a polling backend over descs, waking every interval.
// The returned Backend owns its own goroutine; call Close to stop it.
func NewPolling(ctx context.Context, descs []*source.Descriptor, interval time.Duration) Backend {
	ctx, cancel := context.WithCancel(ctx)
	b := &pollBackend{
		events: make(chan Event),
		cancel: cancel,
	}
	go b.run(ctx, descs, clampInterval(interval))
	return b
}

// clampInterval guards time.NewTicker against a non-positive interval.
// --sleep-interval 0 is valid input (spec: must be >= 0) and must poll as
// fast as practical, not panic.
func clampInterval(interval time.Duration) time.Duration {
	if interval <= 0 {
		return time.Millisecond
	}
	return interval
}

func (b *pollBackend) Events() <-chan Event { return b.events }

func (b *pollBackend) Close() error {
	b.cancel()
	return nil
}

func (b *pollBackend) run(ctx context.Context, descs []*source.Descriptor, interval time.Duration) {
	defer close(b.events)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	states := make(map[*source.Descriptor]trackedState, len(descs))
	for _, d := range descs {
		states[d] = initialState(d)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, d := range descs {
				fi, err := d.Stat()
				kind, next, changed := classify(states[d], fi, err)
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
}

// initialState seeds a descriptor's tracked state from its current
// presence, so the first tick after a successful startup Open doesn't
// immediately fire a spurious Appended for the bytes already emitted as
// the initial window.
func initialState(d *source.Descriptor) trackedState {
	fi, err := d.Stat()
	if err != nil {
		return trackedState{present: false}
	}
	return trackedState{present: true, size: fi.Size(), identity: fi}
}
