package system

import (
	"context"
	"time"

	"statecast/internal/domain"
)

// TickSource emits a TimeTick event on a fixed cadence, the way a host
// broadcasts its minute tick.
type TickSource struct {
	fanout
	interval time.Duration
	cancel   context.CancelFunc
}

// NewTickSource ticks every interval (default one minute).
func NewTickSource(interval time.Duration) *TickSource {
	if interval <= 0 {
		interval = time.Minute
	}
	return &TickSource{fanout: newFanout(), interval: interval}
}

// Start begins ticking until ctx is canceled or Stop is called.
func (s *TickSource) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.deliver(domain.NewEvent(domain.ActionTimeTick, nil), false)
			}
		}
	}()
}

// Stop halts ticking. Safe to call before Start or twice.
func (s *TickSource) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}
