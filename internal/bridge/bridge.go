package bridge

import (
	"log"
	"sync"

	"statecast/internal/domain"
)

// Bridge decouples source-side listeners from UI-side subscribers. It maps a
// subscription tag to a conflated channel holding the latest event for that
// tag. Listeners publish into it from arbitrary goroutines; each mounted
// adapter reads its own tag's channel.
//
// A Bridge is an explicit value passed to both sides rather than a package
// global, so tests never share hidden state.
type Bridge struct {
	mu       sync.RWMutex
	channels map[string]*channel
}

// New creates an empty bridge.
func New() *Bridge {
	return &Bridge{channels: make(map[string]*channel)}
}

// Add ensures a channel exists for tag. Calling it again for the same tag is
// a no-op.
func (b *Bridge) Add(tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.channels[tag]; ok {
		return
	}
	b.channels[tag] = newChannel()
}

// Subscribe returns the receive side of tag's channel. The second result is
// false when no channel exists for tag. The channel closes when the tag is
// removed or the bridge is cleared; readers should treat closure as "stop",
// not as an error.
func (b *Bridge) Subscribe(tag string) (<-chan domain.Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.channels[tag]
	if !ok {
		return nil, false
	}
	return c.ch, true
}

// Publish delivers ev to tag's channel. Publishing to an unknown tag is a
// silent no-op. A slow consumer only ever sees the most recent event: the
// channel holds one pending event and publishing drops the older one.
func (b *Bridge) Publish(tag string, ev domain.Event) {
	b.mu.RLock()
	c, ok := b.channels[tag]
	b.mu.RUnlock()
	if !ok {
		return
	}
	switch ev.Action {
	case domain.ActionTimeTick, domain.ActionBatteryChanged:
		// Too frequent to log.
	default:
		log.Printf("bridge: publishing %s to %q", ev.Action, tag)
	}
	c.send(ev)
}

// Remove closes and forgets tag's channel. Removing an unknown tag is a
// no-op. Subscribers on the old channel stop receiving silently; a later Add
// under the same tag starts fresh.
func (b *Bridge) Remove(tag string) {
	b.mu.Lock()
	c, ok := b.channels[tag]
	delete(b.channels, tag)
	b.mu.Unlock()
	if ok {
		c.close()
	}
}

// Clear removes every channel. This is the legacy whole-bridge teardown run
// when the owning lifecycle reaches its terminal stage; adapters normally
// remove their own tag on unmount instead.
func (b *Bridge) Clear() {
	b.mu.Lock()
	channels := b.channels
	b.channels = make(map[string]*channel)
	b.mu.Unlock()
	for _, c := range channels {
		c.close()
	}
	log.Printf("bridge: cleared %d channels", len(channels))
}

// channel is a one-slot conflated conduit: at most one pending event, with
// drop-oldest back-pressure.
type channel struct {
	mu     sync.Mutex
	ch     chan domain.Event
	closed bool
}

func newChannel() *channel {
	return &channel{ch: make(chan domain.Event, 1)}
}

func (c *channel) send(ev domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for {
		select {
		case c.ch <- ev:
			return
		default:
			// Slot occupied, drop the stale event and retry.
			select {
			case <-c.ch:
			default:
			}
		}
	}
}

func (c *channel) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}
