package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"statecast/internal/adapter"
	"statecast/internal/bridge"
	"statecast/internal/config"
	"statecast/internal/domain"
	"statecast/internal/lifecycle"
	"statecast/internal/receiver"
	"statecast/internal/system"
	"statecast/internal/ui"
)

// lateNotifier forwards notifications once the program exists.
type lateNotifier struct {
	mu sync.Mutex
	p  *tea.Program
}

func (n *lateNotifier) set(p *tea.Program) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.p = p
}

func (n *lateNotifier) Send(msg tea.Msg) {
	n.mu.Lock()
	p := n.p
	n.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Simulation-only variant of the dashboard: no host sources, every event
// comes from key presses.
func main() {
	// Set up logging
	cfg := config.Default()
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Could not open log file: %v", err)
	} else {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	b := bridge.New()
	life := lifecycle.NewWatcher()
	lifecycle.BindBridge(life, b)

	sim := system.NewSimSource()
	reg := receiver.NewRegistrar(sim, b)
	notifier := &lateNotifier{}

	batteryWatch := system.WatchBatteryPercent(reg, b, notifier)
	chargingWatch := system.WatchCharging(reg, b, notifier, false)
	headsetWatch := system.WatchHeadset(reg, b, notifier, system.HeadsetConnected(system.StaticEnumerator{}))
	tickWatch := system.WatchTimeTick(reg, b, notifier)

	eventLog := ui.NewEventLog(200)
	logTap := adapter.New(reg, b, notifier, adapter.Options[domain.Action]{
		Tag: "app.eventlog",
		Filters: domain.ForActions(
			domain.ActionBatteryChanged,
			domain.ActionPowerConnected,
			domain.ActionPowerDisconnected,
			domain.ActionHeadsetPlug,
			domain.CustomAction("demo"),
		),
		Map: func(_ context.Context, ev domain.Event) (domain.Action, error) {
			eventLog.Record(ev)
			return ev.Action, nil
		},
	})

	for _, a := range []interface {
		Mount(context.Context) error
	}{batteryWatch, chargingWatch, headsetWatch, tickWatch, logTap} {
		if err := a.Mount(ctx); err != nil {
			fmt.Printf("Error mounting watcher: %v\n", err)
			os.Exit(1)
		}
	}

	cells := ui.Cells{
		Battery:  batteryWatch.State(),
		Charging: chargingWatch.State(),
		Headset:  headsetWatch.State(),
		Tick:     tickWatch.State(),
	}
	model := ui.NewModel(cfg, cells, sim, eventLog, false)

	p := tea.NewProgram(model, tea.WithAltScreen())
	model.SetProgram(p)
	notifier.set(p)

	if _, err := p.Run(); err != nil {
		log.Printf("Error running program: %v", err)
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}

	batteryWatch.Unmount()
	chargingWatch.Unmount()
	headsetWatch.Unmount()
	tickWatch.Unmount()
	logTap.Unmount()
	life.Destroy()
	cancel()
}
