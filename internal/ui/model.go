package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"statecast/internal/adapter"
	"statecast/internal/config"
	"statecast/internal/domain"
	"statecast/internal/system"
)

// Cells groups the observable state the dashboard renders. Each cell is
// written by its own adapter; the model only ever reads snapshots.
type Cells struct {
	Battery  *adapter.State[int]
	Charging *adapter.State[bool]
	Headset  *adapter.State[bool]
	Tick     *adapter.State[time.Time]
}

// Model is the dashboard: a read-only view over the adapter cells plus keys
// that inject simulated events.
type Model struct {
	cfg   *config.Config
	cells Cells
	sim   *system.SimSource
	log   *EventLog

	keys   keyMap
	help   help.Model
	width  int
	height int

	batteryReal bool // a real battery source is running; b key disabled
	simLevel    int
	simPower    bool
	simHeadset  bool
	lastErr     string
	inPager     bool

	program *tea.Program
}

// NewModel creates the dashboard model.
func NewModel(cfg *config.Config, cells Cells, sim *system.SimSource, log *EventLog, batteryReal bool) *Model {
	h := help.New()
	h.ShowAll = cfg.UISettings.ShowHelp
	return &Model{
		cfg:         cfg,
		cells:       cells,
		sim:         sim,
		log:         log,
		keys:        defaultKeyMap(),
		help:        h,
		batteryReal: batteryReal,
		simLevel:    100,
	}
}

// SetProgram hands the model its program for pager terminal management.
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case adapter.StateChangedMsg:
		// A cell changed; re-render happens by returning.
		return m, nil

	case adapter.MappingErrorMsg:
		m.lastErr = msg.Err.Error()
		m.log.Note("mapping error on %s: %v", msg.Tag, msg.Err)
		return m, nil

	case pagerDoneMsg:
		m.inPager = false
		if msg.err != nil {
			m.log.Note("pager: %v", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inPager {
		return m, nil
	}
	keys := m.keys
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, keys.Headset):
		m.simHeadset = !m.simHeadset
		state := 0
		if m.simHeadset {
			state = 1
		}
		m.sim.Emit(domain.NewEvent(domain.ActionHeadsetPlug, map[string]any{
			domain.ExtraHeadsetState: state,
			"name":                   "simulated jack",
		}))
		return m, nil

	case key.Matches(msg, keys.Power):
		m.simPower = !m.simPower
		action := domain.ActionPowerDisconnected
		if m.simPower {
			action = domain.ActionPowerConnected
		}
		m.sim.Emit(domain.NewEvent(action, map[string]any{domain.ExtraPlugged: "simulated"}))
		return m, nil

	case key.Matches(msg, keys.Battery):
		if m.batteryReal {
			m.log.Note("battery key ignored: real battery source active")
			return m, nil
		}
		m.simLevel -= 10
		if m.simLevel < 0 {
			m.simLevel = 100
		}
		m.sim.Emit(domain.NewEvent(domain.ActionBatteryChanged, map[string]any{
			domain.ExtraLevel: m.simLevel,
			domain.ExtraScale: 100,
		}))
		return m, nil

	case key.Matches(msg, keys.Custom):
		m.sim.Emit(domain.NewEvent(domain.CustomAction("demo"), map[string]any{
			"pressed_at": time.Now().Format(time.RFC3339),
		}))
		return m, nil

	case key.Matches(msg, keys.Log):
		m.inPager = true
		program, content := m.program, m.log.Content()
		return m, func() tea.Msg {
			return pagerDoneMsg{err: showPager(program, content)}
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("statecast"))
	b.WriteString("\n")

	battery, batteryErr := m.cells.Battery.Snapshot()
	batteryText := "unknown"
	if battery >= 0 {
		batteryText = fmt.Sprintf("%d%%", battery)
	}
	b.WriteString(row("Battery", valueStyle.Render(batteryText)))
	if batteryErr != nil {
		b.WriteString(row("", errStyle.Render(batteryErr.Error())))
	}

	b.WriteString(row("Charging", onOff(m.cells.Charging.Get())))

	headset, headsetErr := m.cells.Headset.Snapshot()
	b.WriteString(row("Headset", onOff(headset)))
	if headsetErr != nil {
		b.WriteString(row("", errStyle.Render(headsetErr.Error())))
	}

	tick := m.cells.Tick.Get()
	tickText := "never"
	if !tick.IsZero() {
		tickText = tick.Format("15:04:05")
	}
	b.WriteString(row("Last tick", dimStyle.Render(tickText)))

	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(errStyle.Render("last error: " + m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("events recorded: %d", m.log.Len())))
	b.WriteString("\n")
	for _, line := range m.log.Tail(5) {
		b.WriteString(logStyle.Render("  " + line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func row(label, value string) string {
	return labelStyle.Render(label) + value + "\n"
}
