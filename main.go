package main

import (
	"context"
	"flag"
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

// programNotifier forwards state-change notifications to the Bubble Tea
// program once it exists. Adapters are built before the program, so sends
// before SetProgram are dropped.
type programNotifier struct {
	mu sync.Mutex
	p  *tea.Program
}

func (n *programNotifier) SetProgram(p *tea.Program) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.p = p
}

func (n *programNotifier) Send(msg tea.Msg) {
	n.mu.Lock()
	p := n.p
	n.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	var configPath string
	var simOnly bool
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.BoolVar(&simOnly, "sim", false, "Disable host sources, simulated events only")
	flag.Parse()

	// The simulated source doubles as the config service's emitter, so config
	// load/save events show up in the event log like any other broadcast.
	sim := system.NewSimSource()

	// Load configuration
	configSvc := config.NewServiceWithEmitter(sim)
	cfg := loadOrDefaultConfig(configSvc, configPath)

	// Set up logging
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Could not open log file: %v", err)
	} else {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT)
	go func() {
		<-sigChan
		cancel()
	}()

	// Bridge and lifecycle: the bridge is cleared when the outer lifecycle
	// reaches its terminal stage.
	b := bridge.New()
	life := lifecycle.NewWatcher()
	lifecycle.BindBridge(life, b)

	// Sources
	sources := []receiver.Source{sim}

	battery := system.NewBatterySource(cfg.PowerSupplyPath, cfg.PollInterval)
	tick := system.NewTickSource(cfg.TickInterval)
	signals := system.NewSignalSource(system.DefaultSignalActions())
	if !simOnly {
		sources = append(sources, battery, tick, signals)
	}

	reg := receiver.NewRegistrar(system.NewMultiSource(sources...), b)
	notifier := &programNotifier{}

	// Built-in watchers
	headsetInitial := system.HeadsetConnected(system.StaticEnumerator{})
	batteryWatch := system.WatchBatteryPercent(reg, b, notifier)
	chargingWatch := system.WatchCharging(reg, b, notifier, false)
	headsetWatch := system.WatchHeadset(reg, b, notifier, headsetInitial)
	tickWatch := system.WatchTimeTick(reg, b, notifier)

	// Event log tap: a plain adapter over every action the demo emits.
	eventLog := ui.NewEventLog(500)
	logTap := adapter.New(reg, b, notifier, adapter.Options[domain.Action]{
		Tag: "app.eventlog",
		Filters: domain.ForActions(
			domain.ActionBatteryChanged,
			domain.ActionPowerConnected,
			domain.ActionPowerDisconnected,
			domain.ActionHeadsetPlug,
			domain.ActionPackageChanged,
			domain.ActionTimeTick,
			domain.ActionShutdown,
			domain.CustomAction("demo"),
			domain.CustomAction("sigusr1"),
			domain.CustomAction("sigusr2"),
			domain.CustomAction("sighup"),
			config.ActionConfigLoaded,
			config.ActionConfigSaved,
		),
		Map: func(_ context.Context, ev domain.Event) (domain.Action, error) {
			eventLog.Record(ev)
			return ev.Action, nil
		},
	})

	mustMount(ctx, batteryWatch)
	mustMount(ctx, chargingWatch)
	mustMount(ctx, headsetWatch)
	mustMount(ctx, tickWatch)
	mustMount(ctx, logTap)
	unmount := func() {
		batteryWatch.Unmount()
		chargingWatch.Unmount()
		headsetWatch.Unmount()
		tickWatch.Unmount()
		logTap.Unmount()
	}

	// Start host sources after the watchers are listening.
	if !simOnly {
		battery.Start(ctx)
		tick.Start(ctx)
		signals.Start(ctx)
	}

	// Quit the UI when a shutdown event fires.
	shutdownWatch := adapter.New(reg, b, notifier, adapter.Options[bool]{
		Tag:     "app.shutdown",
		Filters: domain.ForActions(domain.ActionShutdown),
		Map: func(_ context.Context, _ domain.Event) (bool, error) {
			return true, nil
		},
	})
	mustMount(ctx, shutdownWatch)

	// Build the UI
	cells := ui.Cells{
		Battery:  batteryWatch.State(),
		Charging: chargingWatch.State(),
		Headset:  headsetWatch.State(),
		Tick:     tickWatch.State(),
	}
	model := ui.NewModel(cfg, cells, sim, eventLog, !simOnly && battery.Available())

	log.Printf("Creating Bubble Tea program...")
	p := tea.NewProgram(model, tea.WithAltScreen())
	model.SetProgram(p)
	notifier.SetProgram(p)

	shutdownWatch.State().Watch(func(quit bool) {
		if quit {
			p.Send(tea.Quit())
		}
	})

	if _, err := p.Run(); err != nil {
		log.Printf("Error running program: %v", err)
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
	log.Printf("UI exited normally")

	// Teardown: watchers first, then the outer lifecycle clears the bridge.
	unmount()
	shutdownWatch.Unmount()
	battery.Stop()
	tick.Stop()
	signals.Stop()
	life.Destroy()
	cancel()
}

// loadOrDefaultConfig loads the config from an explicit path, the default
// location, or falls back to defaults.
func loadOrDefaultConfig(svc config.Service, path string) *config.Config {
	if path != "" {
		cfg, err := svc.LoadFromPath(path)
		if err != nil {
			fmt.Printf("Error loading config %s: %v\n", path, err)
			os.Exit(1)
		}
		return cfg
	}
	cfg, err := svc.Load()
	if err != nil {
		log.Printf("Error loading config: %v", err)
		return config.Default()
	}
	return cfg
}

// mountable is any adapter regardless of its value type.
type mountable interface {
	Mount(ctx context.Context) error
}

func mustMount(ctx context.Context, a mountable) {
	if err := a.Mount(ctx); err != nil {
		fmt.Printf("Error mounting watcher: %v\n", err)
		os.Exit(1)
	}
}
