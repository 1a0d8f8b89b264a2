package adapter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"statecast/internal/bridge"
	"statecast/internal/domain"
	"statecast/internal/receiver"
)

// loopSource delivers events synchronously to every registered receiver.
type loopSource struct {
	mu        sync.Mutex
	receivers map[*receiver.Receiver]struct{}
}

func newLoopSource() *loopSource {
	return &loopSource{receivers: make(map[*receiver.Receiver]struct{})}
}

func (s *loopSource) Register(r *receiver.Receiver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receivers[r] = struct{}{}
	return nil
}

func (s *loopSource) Unregister(r *receiver.Receiver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.receivers, r)
}

func (s *loopSource) deliver(ev domain.Event) {
	s.mu.Lock()
	receivers := make([]*receiver.Receiver, 0, len(s.receivers))
	for r := range s.receivers {
		receivers = append(receivers, r)
	}
	s.mu.Unlock()
	for _, r := range receivers {
		r.OnEvent(ev)
	}
}

// recordingNotifier collects messages the way a tea.Program would.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (n *recordingNotifier) Send(msg tea.Msg) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

func (n *recordingNotifier) last() tea.Msg {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.msgs) == 0 {
		return nil
	}
	return n.msgs[len(n.msgs)-1]
}

type fixture struct {
	src       *loopSource
	bridge    *bridge.Bridge
	registrar *receiver.Registrar
	notifier  *recordingNotifier
}

func newFixture() *fixture {
	src := newLoopSource()
	b := bridge.New()
	return &fixture{
		src:       src,
		bridge:    b,
		registrar: receiver.NewRegistrar(src, b),
		notifier:  &recordingNotifier{},
	}
}

func batteryEvent(level, scale int) domain.Event {
	return domain.NewEvent(domain.ActionBatteryChanged, map[string]any{
		domain.ExtraLevel: level,
		domain.ExtraScale: scale,
	})
}

func percentOptions(tag string) Options[int] {
	return Options[int]{
		Tag:     tag,
		Initial: -1,
		Filters: domain.ForActions(domain.ActionBatteryChanged),
		Map: func(_ context.Context, ev domain.Event) (int, error) {
			return domain.BatteryPercentFromEvent(ev)
		},
	}
}

func TestInitialValueBeforeFirstEvent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := New(f.registrar, f.bridge, f.notifier, percentOptions("app.battery"))
	require.NoError(t, a.Mount(context.Background()))
	defer a.Unmount()

	require.Equal(t, -1, a.State().Get())
}

func TestMatchingEventOverwritesValue(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := New(f.registrar, f.bridge, f.notifier, percentOptions("app.battery"))
	require.NoError(t, a.Mount(context.Background()))
	defer a.Unmount()

	f.src.deliver(batteryEvent(33, 50))

	require.Eventually(t, func() bool {
		return a.State().Get() == 66
	}, time.Second, 5*time.Millisecond)

	msg := f.notifier.last()
	changed, ok := msg.(StateChangedMsg)
	require.True(t, ok, "expected StateChangedMsg, got %T", msg)
	require.Equal(t, "app.battery", changed.Tag)
}

func TestMappingRunsExactlyOncePerEvent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	var calls atomic.Int64
	opts := Options[int]{
		Tag:     "app.count",
		Filters: domain.ForActions(domain.ActionPowerConnected),
		Map: func(_ context.Context, _ domain.Event) (int, error) {
			return int(calls.Add(1)), nil
		},
	}
	a := New(f.registrar, f.bridge, f.notifier, opts)
	require.NoError(t, a.Mount(context.Background()))
	defer a.Unmount()

	f.src.deliver(domain.NewEvent(domain.ActionPowerConnected, nil))
	require.Eventually(t, func() bool { return a.State().Get() == 1 }, time.Second, 5*time.Millisecond)

	f.src.deliver(domain.NewEvent(domain.ActionPowerConnected, nil))
	require.Eventually(t, func() bool { return a.State().Get() == 2 }, time.Second, 5*time.Millisecond)

	require.Equal(t, int64(2), calls.Load())
}

func TestNonMatchingActionLeavesValueUntouched(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := New(f.registrar, f.bridge, f.notifier, Options[string]{
		Tag:     "app.multi",
		Initial: "none",
		Filters: domain.ForActions(domain.ActionPowerConnected, domain.ActionPowerDisconnected),
		Map: func(_ context.Context, ev domain.Event) (string, error) {
			return string(ev.Action), nil
		},
	})
	require.NoError(t, a.Mount(context.Background()))
	defer a.Unmount()

	// Union semantics: either declared action updates the cell.
	f.src.deliver(domain.NewEvent(domain.ActionPowerDisconnected, nil))
	require.Eventually(t, func() bool {
		return a.State().Get() == string(domain.ActionPowerDisconnected)
	}, time.Second, 5*time.Millisecond)

	// An undeclared action never does.
	f.src.deliver(domain.NewEvent(domain.ActionHeadsetPlug, nil))
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, string(domain.ActionPowerDisconnected), a.State().Get())
}

func TestMappingErrorRetainsLastGoodValue(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := New(f.registrar, f.bridge, f.notifier, percentOptions("app.battery"))
	require.NoError(t, a.Mount(context.Background()))
	defer a.Unmount()

	f.src.deliver(batteryEvent(50, 100))
	require.Eventually(t, func() bool { return a.State().Get() == 50 }, time.Second, 5*time.Millisecond)

	// Missing scale extra: the mapping fails, the value stays.
	f.src.deliver(domain.NewEvent(domain.ActionBatteryChanged, map[string]any{domain.ExtraLevel: 10}))

	require.Eventually(t, func() bool {
		_, err := a.State().Snapshot()
		return err != nil
	}, time.Second, 5*time.Millisecond)

	v, err := a.State().Snapshot()
	require.Equal(t, 50, v)
	var malformed *domain.MalformedEventError
	require.ErrorAs(t, err, &malformed)

	// A good event clears the error again.
	f.src.deliver(batteryEvent(75, 100))
	require.Eventually(t, func() bool {
		v, err := a.State().Snapshot()
		return v == 75 && err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestUnmountStopsDeliveryAndIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := New(f.registrar, f.bridge, f.notifier, percentOptions("app.battery"))
	require.NoError(t, a.Mount(context.Background()))

	f.src.deliver(batteryEvent(50, 100))
	require.Eventually(t, func() bool { return a.State().Get() == 50 }, time.Second, 5*time.Millisecond)

	a.Unmount()
	a.Unmount() // double teardown must not fail
	require.False(t, a.Mounted())

	f.src.deliver(batteryEvent(100, 100))
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 50, a.State().Get(), "no publish may reach a torn-down subscriber")
}

func TestRemountAfterUnmountReusesTag(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := New(f.registrar, f.bridge, f.notifier, percentOptions("app.battery"))
	require.NoError(t, a.Mount(context.Background()))
	a.Unmount()

	b := New(f.registrar, f.bridge, f.notifier, percentOptions("app.battery"))
	require.NoError(t, b.Mount(context.Background()))
	defer b.Unmount()

	f.src.deliver(batteryEvent(25, 100))
	require.Eventually(t, func() bool { return b.State().Get() == 25 }, time.Second, 5*time.Millisecond)
}

func TestDoubleMountFails(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := New(f.registrar, f.bridge, f.notifier, percentOptions("app.battery"))
	require.NoError(t, a.Mount(context.Background()))
	defer a.Unmount()

	require.Error(t, a.Mount(context.Background()))
}

func TestTagCollisionSurfacesAtMount(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := New(f.registrar, f.bridge, f.notifier, percentOptions("app.battery"))
	require.NoError(t, a.Mount(context.Background()))
	defer a.Unmount()

	b := New(f.registrar, f.bridge, f.notifier, percentOptions("app.battery"))
	err := b.Mount(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "already has an active listener")
}

func TestBridgeClearSilencesMountedAdapter(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := New(f.registrar, f.bridge, f.notifier, percentOptions("app.battery"))
	require.NoError(t, a.Mount(context.Background()))

	f.src.deliver(batteryEvent(40, 100))
	require.Eventually(t, func() bool { return a.State().Get() == 40 }, time.Second, 5*time.Millisecond)

	f.bridge.Clear()

	// The adapter stays mounted but receives nothing further.
	f.src.deliver(batteryEvent(90, 100))
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 40, a.State().Get())
	require.True(t, a.Mounted())

	// Its own teardown still succeeds afterwards.
	a.Unmount()
	require.False(t, a.Mounted())
}

func TestContextCancelStopsLoop(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := New(f.registrar, f.bridge, f.notifier, percentOptions("app.battery"))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Mount(ctx))
	cancel()

	time.Sleep(20 * time.Millisecond)
	f.src.deliver(batteryEvent(80, 100))
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, -1, a.State().Get())

	a.Unmount()
}

func TestWatchCallbackAndUnsubscribe(t *testing.T) {
	t.Parallel()

	s := NewState(0)
	var got atomic.Int64
	cancel := s.Watch(func(v int) { got.Store(int64(v)) })

	require.True(t, s.set(7))
	require.Equal(t, int64(7), got.Load())

	cancel()
	require.True(t, s.set(9))
	require.Equal(t, int64(7), got.Load(), "unsubscribed watcher must not fire")

	s.Close()
	require.False(t, s.set(11), "writes after close are dropped")
	require.Equal(t, 9, s.Get())
}

func TestCloseWaitsForInFlightWatchers(t *testing.T) {
	t.Parallel()

	s := NewState(0)
	entered := make(chan struct{})
	release := make(chan struct{})
	s.Watch(func(int) {
		close(entered)
		<-release
	})

	writeDone := make(chan struct{})
	go func() {
		s.set(1)
		close(writeDone)
	}()
	<-entered

	closeDone := make(chan struct{})
	go func() {
		s.Close()
		close(closeDone)
	}()

	select {
	case <-closeDone:
		t.Fatal("Close returned while a watcher callback was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-writeDone
	<-closeDone
	require.False(t, s.set(2), "writes after close are dropped")
}
