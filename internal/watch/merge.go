package watch

import "sync"

// mergedBackend fans multiple backends' event channels into one, for the
// follow engine's split between the event backend (watchable descriptors)
// and the polling backend (descriptors fsnotify cannot watch).
type mergedBackend struct {
	events  chan Event
	backends []Backend
	done    chan struct{}
	once    sync.Once
}

// Merge combines backends into a single Backend. Close on the result closes
// every underlying backend.
func Merge(backends ...Backend) Backend {
	m := &mergedBackend{
		events:   make(chan Event),
		backends: backends,
		done:     make(chan struct{}),
	}
	var wg sync.WaitGroup
	for _, b := range backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			for {
				select {
				case ev, ok := <-b.Events():
					if !ok {
						return
					}
					select {
					case m.events <- ev:
					case <-m.done:
						return
					}
				case <-m.done:
					return
				}
			}
		}(b)
	}
	go func() {
		wg.Wait()
		close(m.events)
	}()
	return m
}

func (m *mergedBackend) Events() <-chan Event { return m.events }

func (m *mergedBackend) Close() error {
	m.once.Do(func() { close(m.done) })
	var firstErr error
	for _, b := range m.backends {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
