package receiver

import (
	"fmt"
	"sync"

	"statecast/internal/domain"
)

// Tags reserved for the built-in convenience watchers.
const (
	TagBattery  = "statecast.battery"
	TagCharging = "statecast.charging"
	TagHeadset  = "statecast.headset"
	TagTimeTick = "statecast.tick"
)

var reservedTags = map[string]struct{}{
	TagBattery:  {},
	TagCharging: {},
	TagHeadset:  {},
	TagTimeTick: {},
}

// Reserved reports whether tag belongs to a built-in watcher.
func Reserved(tag string) bool {
	_, ok := reservedTags[tag]
	return ok
}

// Channels is the bridge surface the registrar manages: channel lifetime
// plus publishing.
type Channels interface {
	Publisher
	Add(tag string)
	Remove(tag string)
}

// Registrar creates receivers and tracks which tags are active so two live
// listeners can never alias the same bridge channel. Collisions fail fast at
// registration time with a recoverable error.
type Registrar struct {
	mu       sync.Mutex
	source   Source
	channels Channels
	active   map[string]*Receiver
}

// NewRegistrar creates a registrar backed by the given source and bridge.
func NewRegistrar(source Source, channels Channels) *Registrar {
	return &Registrar{
		source:   source,
		channels: channels,
		active:   make(map[string]*Receiver),
	}
}

// Register allocates tag's bridge channel and registers a listener for the
// union of the given filters. Reserved tags are rejected; the built-in
// watchers use RegisterReserved.
func (g *Registrar) Register(tag string, filters domain.Filters, exported bool) (*Receiver, error) {
	if Reserved(tag) {
		return nil, fmt.Errorf("tag %q is reserved for built-in watchers", tag)
	}
	return g.register(tag, filters, exported)
}

// RegisterReserved is Register without the reserved-tag guard, for the
// built-in watchers.
func (g *Registrar) RegisterReserved(tag string, filters domain.Filters, exported bool) (*Receiver, error) {
	return g.register(tag, filters, exported)
}

func (g *Registrar) register(tag string, filters domain.Filters, exported bool) (*Receiver, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("tag %q declares no filters", tag)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.active[tag]; ok {
		return nil, fmt.Errorf("tag %q already has an active listener", tag)
	}

	r := &Receiver{tag: tag, filters: filters, exported: exported, pub: g.channels}

	// Channel before listener, so the first delivery has somewhere to land.
	g.channels.Add(tag)
	if err := g.source.Register(r); err != nil {
		g.channels.Remove(tag)
		return nil, fmt.Errorf("registering listener for %q: %w", tag, err)
	}
	g.active[tag] = r
	return r, nil
}

// Unregister tears down r's listener and bridge channel. Calling it twice,
// or with a receiver the registrar never issued, is a no-op.
func (g *Registrar) Unregister(r *Receiver) {
	if r == nil {
		return
	}
	g.mu.Lock()
	current, ok := g.active[r.tag]
	if !ok || current != r {
		g.mu.Unlock()
		return
	}
	delete(g.active, r.tag)
	g.mu.Unlock()

	g.source.Unregister(r)
	g.channels.Remove(r.tag)
}

// Active reports whether tag currently has a live listener.
func (g *Registrar) Active(tag string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[tag]
	return ok
}
