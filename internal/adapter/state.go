package adapter

import "sync"

// State is the UI-visible cell an adapter writes into: a single-writer,
// many-reader container holding the last mapped value, or the initial value
// before the first matching event.
type State[T any] struct {
	mu       sync.RWMutex
	value    T
	err      error
	closed   bool
	watchers map[int]func(T)
	nextID   int

	// cbMu serializes watcher callbacks against Close, so no callback runs
	// once Close has returned. Callbacks may still call Get and Snapshot.
	cbMu sync.Mutex
}

// NewState creates a cell seeded with initial.
func NewState[T any](initial T) *State[T] {
	return &State[T]{value: initial, watchers: make(map[int]func(T))}
}

// Get returns the current value.
func (s *State[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Snapshot returns the current value together with the last mapping error.
// A non-nil error means the value is the last known good one.
func (s *State[T]) Snapshot() (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.err
}

// Watch registers fn to run on every overwrite and returns an unsubscribe
// closure. Callbacks run on the writer's goroutine.
func (s *State[T]) Watch(fn func(T)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// set overwrites the value and clears any recorded error. Writes to a closed
// cell are no-ops, so a mapping that finishes after teardown lands nowhere.
func (s *State[T]) set(v T) bool {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.value = v
	s.err = nil
	watchers := make([]func(T), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(v)
	}
	return true
}

// setErr records a mapping failure, keeping the last good value.
func (s *State[T]) setErr(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.err = err
	return true
}

// Close freezes the cell. Further writes are silently dropped, and any
// watcher callback in flight has finished by the time Close returns.
func (s *State[T]) Close() {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.watchers = make(map[int]func(T))
}
