package receiver

import (
	"statecast/internal/domain"
)

// Source is a push-based event source. Implementations call OnEvent on every
// registered receiver whose declared actions fire, from whatever goroutine
// the underlying mechanism uses. Unregister must be idempotent.
type Source interface {
	Register(r *Receiver) error
	Unregister(r *Receiver)
}

// Publisher is the bridge side a receiver republishes into.
type Publisher interface {
	Publish(tag string, ev domain.Event)
}

// Receiver ties one subscription tag to a filter union. A source delivers
// matching events to it; the receiver republishes each one to the bridge
// synchronously, preserving per-tag delivery order. Bridge publishing never
// blocks (drop-oldest), so the source's delivery thread is never stalled.
type Receiver struct {
	tag      string
	filters  domain.Filters
	exported bool
	pub      Publisher
}

// Tag returns the subscription tag.
func (r *Receiver) Tag() string { return r.tag }

// Filters returns the declared filter union.
func (r *Receiver) Filters() domain.Filters { return r.filters }

// Exported reports whether events from outside the process are accepted.
func (r *Receiver) Exported() bool { return r.exported }

// OnEvent is the source-side entry point. Non-matching events are dropped
// here; matching ones go straight to the bridge so back-to-back deliveries
// keep their order.
func (r *Receiver) OnEvent(ev domain.Event) {
	if !r.filters.Matches(ev) {
		return
	}
	r.pub.Publish(r.tag, ev)
}
