package water

import "encoding/json"

// Selection is the focused location of the detail view: either unselected or
// a single location name.
type Selection struct {
	name     string
	selected bool
}

// Unselected returns the empty selection.
func Unselected() Selection {
	return Selection{}
}

// Selected returns a selection naming location.
func Selected(location string) Selection {
	return Selection{name: location, selected: true}
}

// Name returns the selected location, if any.
func (s Selection) Name() (string, bool) {
	return s.name, s.selected
}

// IsSelected reports whether a location is selected.
func (s Selection) IsSelected() bool {
	return s.selected
}

func (s Selection) String() string {
	if !s.selected {
		return "<unselected>"
	}
	return s.name
}

// MarshalJSON renders {"selected": bool, "location": string|null}.
func (s Selection) MarshalJSON() ([]byte, error) {
	var loc *string
	if s.selected {
		name := s.name
		loc = &name
	}
	return json.Marshal(struct {
		Selected bool    `json:"selected"`
		Location *string `json:"location"`
	}{s.selected, loc})
}

// Reconcile resolves the selection against the locations currently available.
// A selection that still names an available location is kept. Otherwise the
// first available location is selected, so a vanished location falls back
// instead of leaving the detail view blank. With no locations available the
// result is Unselected.
func Reconcile(current Selection, available []string) Selection {
	if len(available) == 0 {
		return Unselected()
	}
	if name, ok := current.Name(); ok {
		for _, loc := range available {
			if loc == name {
				return current
			}
		}
	}
	return Selected(available[0])
}
