package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"

	"statecast/internal/domain"
)

// EventLog keeps the most recent events for the pager view.
type EventLog struct {
	mu    sync.Mutex
	lines []string
	max   int
}

// NewEventLog keeps at most max lines.
func NewEventLog(max int) *EventLog {
	if max <= 0 {
		max = 500
	}
	return &EventLog{max: max}
}

// Record appends one event.
func (l *EventLog) Record(ev domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("%s  %-20s %s", ev.Time.Format("15:04:05.000"), ev.Action, formatExtras(ev))
	l.lines = append(l.lines, line)
	if len(l.lines) > l.max {
		l.lines = l.lines[len(l.lines)-l.max:]
	}
}

// Note appends a free-form line.
func (l *EventLog) Note(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("%s  %s", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
	l.lines = append(l.lines, line)
	if len(l.lines) > l.max {
		l.lines = l.lines[len(l.lines)-l.max:]
	}
}

// Len returns the number of recorded lines.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

// Content returns the log as one string, newest last.
func (l *EventLog) Content() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.lines) == 0 {
		return "no events recorded yet"
	}
	return strings.Join(l.lines, "\n")
}

// Tail returns up to n of the newest lines.
func (l *EventLog) Tail(n int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n >= len(l.lines) {
		out := make([]string, len(l.lines))
		copy(out, l.lines)
		return out
	}
	out := make([]string, n)
	copy(out, l.lines[len(l.lines)-n:])
	return out
}

func formatExtras(ev domain.Event) string {
	if len(ev.Extras) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ev.Extras))
	for k, v := range ev.Extras {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, " ")
}

// pagerDoneMsg reports the pager exiting.
type pagerDoneMsg struct {
	err error
}

// showPager hands content to ov, releasing the terminal first and restoring
// it when the pager exits.
func showPager(program *tea.Program, content string) error {
	if program == nil {
		return fmt.Errorf("program not set")
	}

	if err := program.ReleaseTerminal(); err != nil {
		return err
	}
	defer func() {
		// Give ov a moment to fully exit before taking the terminal back.
		time.Sleep(100 * time.Millisecond)
		_ = program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(content))
	if err != nil {
		return err
	}

	cfg := oviewer.NewConfig()
	cfg.IsWriteOnExit = false
	cfg.IsWriteOriginal = false
	root.SetConfig(cfg)

	return root.Run()
}
