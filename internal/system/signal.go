package system

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"statecast/internal/domain"
)

// DefaultSignalActions maps the signals the demo app cares about onto
// actions. SIGTERM becomes Shutdown; the user signals become custom actions
// callers can filter on.
func DefaultSignalActions() map[os.Signal]domain.Action {
	return map[os.Signal]domain.Action{
		syscall.SIGTERM: domain.ActionShutdown,
		syscall.SIGUSR1: domain.CustomAction("sigusr1"),
		syscall.SIGUSR2: domain.CustomAction("sigusr2"),
		syscall.SIGHUP:  domain.CustomAction("sighup"),
	}
}

// SignalSource republishes process signals as events. Signals arrive on the
// runtime's signal goroutine; delivery to receivers goes through the usual
// fire-and-forget handoff.
type SignalSource struct {
	fanout
	actions map[os.Signal]domain.Action
	cancel  context.CancelFunc
}

// NewSignalSource creates a source for the given signal→action mapping.
func NewSignalSource(actions map[os.Signal]domain.Action) *SignalSource {
	return &SignalSource{fanout: newFanout(), actions: actions}
}

// Start subscribes to the configured signals until ctx is canceled or Stop
// is called.
func (s *SignalSource) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	signals := make([]os.Signal, 0, len(s.actions))
	for sig := range s.actions {
		signals = append(signals, sig)
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)

	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-ch:
				action, ok := s.actions[sig]
				if !ok {
					continue
				}
				log.Printf("system: signal %v -> %s", sig, action)
				ev := domain.NewEvent(action, map[string]any{"signal": sig.String()})
				// Signals come from outside the process.
				s.deliver(ev, true)
			}
		}
	}()
}

// Stop unsubscribes from signals. Safe to call before Start or twice.
func (s *SignalSource) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}
