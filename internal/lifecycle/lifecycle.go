package lifecycle

import (
	"log"
	"sync"
)

// Stage is one state of the outer lifecycle owning the bridge.
type Stage int

const (
	StageActive Stage = iota
	StageInactive
	StageDestroyed
)

func (s Stage) String() string {
	switch s {
	case StageActive:
		return "active"
	case StageInactive:
		return "inactive"
	case StageDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Hook runs on a stage transition.
type Hook func(Stage)

// Watcher observes discrete lifecycle transitions and runs registered hooks.
// Destroyed is terminal: later transitions are ignored and hooks registered
// afterwards never fire.
type Watcher struct {
	mu    sync.Mutex
	stage Stage
	hooks []Hook
}

// NewWatcher starts in the active stage.
func NewWatcher() *Watcher {
	return &Watcher{stage: StageActive}
}

// Stage returns the current stage.
func (w *Watcher) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// OnTransition registers a hook for every future transition.
func (w *Watcher) OnTransition(h Hook) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stage == StageDestroyed {
		return
	}
	w.hooks = append(w.hooks, h)
}

// Transition moves to stage and runs hooks. Re-entering the current stage or
// leaving a destroyed lifecycle is a no-op.
func (w *Watcher) Transition(stage Stage) {
	w.mu.Lock()
	if w.stage == StageDestroyed || w.stage == stage {
		w.mu.Unlock()
		return
	}
	w.stage = stage
	hooks := make([]Hook, len(w.hooks))
	copy(hooks, w.hooks)
	if stage == StageDestroyed {
		w.hooks = nil
	}
	w.mu.Unlock()

	log.Printf("lifecycle: -> %s", stage)
	for _, h := range hooks {
		h(stage)
	}
}

// Destroy is shorthand for the terminal transition.
func (w *Watcher) Destroy() {
	w.Transition(StageDestroyed)
}

// Clearer is the bridge surface the lifecycle tears down.
type Clearer interface {
	Clear()
}

// BindBridge wires the legacy whole-bridge teardown: when the lifecycle
// reaches its terminal stage, every channel is cleared, regardless of which
// adapters are still mounted.
func BindBridge(w *Watcher, b Clearer) {
	w.OnTransition(func(s Stage) {
		if s == StageDestroyed {
			b.Clear()
		}
	})
}
