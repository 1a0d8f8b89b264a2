package system

import (
	"sync"

	"statecast/internal/domain"
	"statecast/internal/receiver"
)

// fanout holds the registered-receiver bookkeeping shared by every source in
// this package.
type fanout struct {
	mu        sync.Mutex
	receivers map[*receiver.Receiver]struct{}
}

func newFanout() fanout {
	return fanout{receivers: make(map[*receiver.Receiver]struct{})}
}

func (f *fanout) Register(r *receiver.Receiver) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receivers[r] = struct{}{}
	return nil
}

func (f *fanout) Unregister(r *receiver.Receiver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.receivers, r)
}

// deliver pushes ev to every registered receiver. Events that originate
// outside the process only reach receivers registered with the exported
// flag.
func (f *fanout) deliver(ev domain.Event, external bool) {
	f.mu.Lock()
	receivers := make([]*receiver.Receiver, 0, len(f.receivers))
	for r := range f.receivers {
		receivers = append(receivers, r)
	}
	f.mu.Unlock()

	for _, r := range receivers {
		if external && !r.Exported() {
			continue
		}
		r.OnEvent(ev)
	}
}

// SimSource is a deterministic in-process source, used by tests and by the
// demo app to inject events on demand.
type SimSource struct {
	fanout
}

// NewSimSource creates an empty simulated source.
func NewSimSource() *SimSource {
	return &SimSource{fanout: newFanout()}
}

// Emit delivers ev as an in-process event.
func (s *SimSource) Emit(ev domain.Event) {
	s.deliver(ev, false)
}

// EmitExternal delivers ev as if it came from outside the process; only
// exported receivers see it.
func (s *SimSource) EmitExternal(ev domain.Event) {
	s.deliver(ev, true)
}

// MultiSource registers each receiver with every underlying source, so one
// registrar can span signal, battery, and simulated sources at once.
type MultiSource struct {
	sources []receiver.Source
}

// NewMultiSource combines sources into one.
func NewMultiSource(sources ...receiver.Source) *MultiSource {
	return &MultiSource{sources: sources}
}

func (m *MultiSource) Register(r *receiver.Receiver) error {
	for i, s := range m.sources {
		if err := s.Register(r); err != nil {
			for _, done := range m.sources[:i] {
				done.Unregister(r)
			}
			return err
		}
	}
	return nil
}

func (m *MultiSource) Unregister(r *receiver.Receiver) {
	for _, s := range m.sources {
		s.Unregister(r)
	}
}
