package system

import (
	"context"
	"time"

	"statecast/internal/adapter"
	"statecast/internal/domain"
	"statecast/internal/receiver"
)

// The built-in watchers: thin specializations of the adapter over the
// reserved tags. Each returns an unmounted adapter; callers Mount it for the
// lifetime of their composition.

// WatchBatteryPercent observes the battery percentage, -1 until the first
// reading.
func WatchBatteryPercent(reg *receiver.Registrar, ch adapter.Channels, n adapter.Notifier) *adapter.Adapter[int] {
	return adapter.New(reg, ch, n, adapter.Options[int]{
		Tag:      receiver.TagBattery,
		Initial:  -1,
		Filters:  domain.ForActions(domain.ActionBatteryChanged),
		Reserved: true,
		Map: func(_ context.Context, ev domain.Event) (int, error) {
			return domain.BatteryPercentFromEvent(ev)
		},
	})
}

// WatchCharging observes whether external power is connected.
func WatchCharging(reg *receiver.Registrar, ch adapter.Channels, n adapter.Notifier, initial bool) *adapter.Adapter[bool] {
	return adapter.New(reg, ch, n, adapter.Options[bool]{
		Tag:      receiver.TagCharging,
		Initial:  initial,
		Filters:  domain.ForActions(domain.ActionPowerConnected, domain.ActionPowerDisconnected),
		Reserved: true,
		Map: func(_ context.Context, ev domain.Event) (bool, error) {
			return ev.Action == domain.ActionPowerConnected, nil
		},
	})
}

// WatchHeadset observes wired-headset plug state from HeadsetPlug events.
func WatchHeadset(reg *receiver.Registrar, ch adapter.Channels, n adapter.Notifier, initial bool) *adapter.Adapter[bool] {
	return adapter.New(reg, ch, n, adapter.Options[bool]{
		Tag:      receiver.TagHeadset,
		Initial:  initial,
		Filters:  domain.ForActions(domain.ActionHeadsetPlug),
		Reserved: true,
		Map: func(_ context.Context, ev domain.Event) (bool, error) {
			state, err := ev.IntExtra(domain.ExtraHeadsetState)
			if err != nil {
				return false, err
			}
			return state == 1, nil
		},
	})
}

// WatchTimeTick observes the timestamp of the latest tick.
func WatchTimeTick(reg *receiver.Registrar, ch adapter.Channels, n adapter.Notifier) *adapter.Adapter[time.Time] {
	return adapter.New(reg, ch, n, adapter.Options[time.Time]{
		Tag:      receiver.TagTimeTick,
		Filters:  domain.ForActions(domain.ActionTimeTick),
		Reserved: true,
		Map: func(_ context.Context, ev domain.Event) (time.Time, error) {
			return ev.Time, nil
		},
	})
}
