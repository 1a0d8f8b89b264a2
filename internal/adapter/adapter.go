package adapter

import (
	"context"
	"fmt"
	"log"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"statecast/internal/domain"
	"statecast/internal/receiver"
)

// Notifier marshals a "state changed" notification onto the UI loop.
// *tea.Program implements it; the adapter never touches UI state directly
// from the subscription goroutine.
type Notifier interface {
	Send(msg tea.Msg)
}

// StateChangedMsg is sent to the UI whenever an adapter overwrites its cell.
type StateChangedMsg struct {
	Tag string
}

// MappingErrorMsg is sent when a mapping function fails; the cell keeps its
// last good value.
type MappingErrorMsg struct {
	Tag string
	Err error
}

// Channels is the bridge surface the adapter reads from.
type Channels interface {
	Subscribe(tag string) (<-chan domain.Event, bool)
}

// MapFunc converts a matching event into the cell's value type. Returning an
// error keeps the previous value and records the error on the cell.
type MapFunc[T any] func(ctx context.Context, ev domain.Event) (T, error)

// Options declares one subscription.
type Options[T any] struct {
	Tag      string
	Initial  T
	Filters  domain.Filters
	Exported bool // whether out-of-process senders may reach this listener
	Reserved bool // set only by the built-in watchers
	Map      MapFunc[T]
}

// Adapter runs one subscription over a mount's lifetime: on Mount it
// registers a listener for the union of its filters and starts a loop that
// filters, maps, and publishes incoming events into its state cell; Unmount
// cancels the loop and releases the listener and channel.
type Adapter[T any] struct {
	registrar *receiver.Registrar
	channels  Channels
	notifier  Notifier
	opts      Options[T]
	state     *State[T]

	mu      sync.Mutex
	mounted bool
	cancel  context.CancelFunc
	rcv     *receiver.Receiver
	done    chan struct{}
}

// New creates an unmounted adapter.
func New[T any](registrar *receiver.Registrar, channels Channels, notifier Notifier, opts Options[T]) *Adapter[T] {
	return &Adapter[T]{
		registrar: registrar,
		channels:  channels,
		notifier:  notifier,
		opts:      opts,
		state:     NewState(opts.Initial),
	}
}

// State returns the observable cell. It holds the initial value until the
// first matching event arrives.
func (a *Adapter[T]) State() *State[T] { return a.state }

// Mount registers the listener and starts the subscription loop. The loop
// also stops when ctx is canceled. Mounting an already-mounted adapter is an
// error; registration failures (tag collision, reserved tag, dead source)
// propagate synchronously.
func (a *Adapter[T]) Mount(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mounted {
		return fmt.Errorf("adapter %q already mounted", a.opts.Tag)
	}
	if a.opts.Map == nil {
		return fmt.Errorf("adapter %q has no mapping function", a.opts.Tag)
	}

	register := a.registrar.Register
	if a.opts.Reserved {
		register = a.registrar.RegisterReserved
	}
	rcv, err := register(a.opts.Tag, a.opts.Filters, a.opts.Exported)
	if err != nil {
		return err
	}

	ch, ok := a.channels.Subscribe(a.opts.Tag)
	if !ok {
		a.registrar.Unregister(rcv)
		return fmt.Errorf("no bridge channel for %q", a.opts.Tag)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.rcv = rcv
	a.cancel = cancel
	a.done = done
	a.mounted = true

	go a.loop(loopCtx, ch, done)
	return nil
}

func (a *Adapter[T]) loop(ctx context.Context, ch <-chan domain.Event, done chan struct{}) {
	defer close(done)
	actions := a.opts.Filters
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				// Bridge channel removed or cleared: stop silently.
				return
			}
			if !actions.MatchesAction(ev.Action) {
				continue
			}
			v, err := a.opts.Map(ctx, ev)
			if ctx.Err() != nil {
				// Torn down while mapping; the result lands nowhere.
				return
			}
			if err != nil {
				if a.state.setErr(err) {
					log.Printf("adapter %q: mapping %s failed: %v", a.opts.Tag, ev.Action, err)
					a.notify(MappingErrorMsg{Tag: a.opts.Tag, Err: err})
				}
				continue
			}
			if a.state.set(v) {
				a.notify(StateChangedMsg{Tag: a.opts.Tag})
			}
		}
	}
}

func (a *Adapter[T]) notify(msg tea.Msg) {
	if a.notifier == nil {
		return
	}
	a.notifier.Send(msg)
}

// Unmount deregisters the listener, removes the tag's channel, and freezes
// the cell. Safe to call twice.
func (a *Adapter[T]) Unmount() {
	a.mu.Lock()
	if !a.mounted {
		a.mu.Unlock()
		return
	}
	a.mounted = false
	cancel, rcv, done := a.cancel, a.rcv, a.done
	a.cancel, a.rcv, a.done = nil, nil, nil
	a.mu.Unlock()

	cancel()
	a.registrar.Unregister(rcv)
	<-done
	a.state.Close()
}

// Mounted reports whether the subscription loop is live.
func (a *Adapter[T]) Mounted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mounted
}
