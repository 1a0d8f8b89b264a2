package domain

import (
	"fmt"
	"time"
)

// Action classifies a broadcast event
type Action string

// Built-in actions
const (
	ActionBatteryChanged    Action = "BatteryChanged"
	ActionPowerConnected    Action = "PowerConnected"
	ActionPowerDisconnected Action = "PowerDisconnected"
	ActionHeadsetPlug       Action = "HeadsetPlug"
	ActionPackageChanged    Action = "PackageChanged"
	ActionTimeTick          Action = "TimeTick"
	ActionShutdown          Action = "Shutdown"
)

// CustomAction builds a caller-defined action. Custom actions are
// namespaced so they can never collide with a built-in one.
func CustomAction(name string) Action {
	return Action("custom." + name)
}

// Extra keys carried by built-in events
const (
	ExtraLevel        = "level"        // int, battery level
	ExtraScale        = "scale"        // int, maximum battery level
	ExtraPlugged      = "plugged"      // string, power source name
	ExtraHeadsetState = "state"        // int, 0 unplugged / 1 plugged
	ExtraPackageName  = "package_name" // string
)

// Event is one broadcast delivery: an action plus an opaque payload.
// Data/DataType/DataScheme mirror the host's event-record fields and may
// all be empty.
type Event struct {
	Action     Action
	Data       string
	DataType   string
	DataScheme string
	Extras     map[string]any
	Time       time.Time
}

// NewEvent creates an event stamped with the current time.
func NewEvent(action Action, extras map[string]any) Event {
	if extras == nil {
		extras = make(map[string]any)
	}
	return Event{Action: action, Extras: extras, Time: time.Now()}
}

// IntExtra returns the named extra as an int.
func (e Event) IntExtra(key string) (int, error) {
	v, ok := e.Extras[key]
	if !ok {
		return 0, &MalformedEventError{Action: e.Action, Key: key, Reason: "missing"}
	}
	n, ok := v.(int)
	if !ok {
		return 0, &MalformedEventError{Action: e.Action, Key: key, Reason: fmt.Sprintf("not an int (%T)", v)}
	}
	return n, nil
}

// BoolExtra returns the named extra as a bool.
func (e Event) BoolExtra(key string) (bool, error) {
	v, ok := e.Extras[key]
	if !ok {
		return false, &MalformedEventError{Action: e.Action, Key: key, Reason: "missing"}
	}
	b, ok := v.(bool)
	if !ok {
		return false, &MalformedEventError{Action: e.Action, Key: key, Reason: fmt.Sprintf("not a bool (%T)", v)}
	}
	return b, nil
}

// StringExtra returns the named extra as a string.
func (e Event) StringExtra(key string) (string, error) {
	v, ok := e.Extras[key]
	if !ok {
		return "", &MalformedEventError{Action: e.Action, Key: key, Reason: "missing"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &MalformedEventError{Action: e.Action, Key: key, Reason: fmt.Sprintf("not a string (%T)", v)}
	}
	return s, nil
}

// MalformedEventError reports an event payload that is missing an expected
// field or carries it with the wrong type. Mapping functions return it to
// the adapter instead of faulting.
type MalformedEventError struct {
	Action Action
	Key    string
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event: extra %q %s", e.Action, e.Key, e.Reason)
}
