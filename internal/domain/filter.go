package domain

// Filter declares one event category a listener wants: an action plus an
// optional data type and scheme constraint.
type Filter struct {
	Action     Action
	DataType   string // empty matches any type
	DataScheme string // empty matches any scheme
}

// Matches reports whether ev satisfies this filter.
func (f Filter) Matches(ev Event) bool {
	if ev.Action != f.Action {
		return false
	}
	if f.DataType != "" && ev.DataType != f.DataType {
		return false
	}
	if f.DataScheme != "" && ev.DataScheme != f.DataScheme {
		return false
	}
	return true
}

// Filters is an ordered set of filters. Multiple filters combine by union:
// an event matching any one of them is accepted.
type Filters []Filter

// ForActions builds a filter set from bare actions.
func ForActions(actions ...Action) Filters {
	fs := make(Filters, 0, len(actions))
	for _, a := range actions {
		fs = append(fs, Filter{Action: a})
	}
	return fs
}

// MatchesAction reports whether any filter declares the given action.
func (fs Filters) MatchesAction(a Action) bool {
	for _, f := range fs {
		if f.Action == a {
			return true
		}
	}
	return false
}

// Matches reports whether any filter accepts ev.
func (fs Filters) Matches(ev Event) bool {
	for _, f := range fs {
		if f.Matches(ev) {
			return true
		}
	}
	return false
}

// Actions returns the deduplicated union of declared actions, preserving
// first-seen order.
func (fs Filters) Actions() []Action {
	seen := make(map[Action]struct{}, len(fs))
	out := make([]Action, 0, len(fs))
	for _, f := range fs {
		if _, ok := seen[f.Action]; ok {
			continue
		}
		seen[f.Action] = struct{}{}
		out = append(out, f.Action)
	}
	return out
}
