package domain

import (
	"errors"
	"strings"
)

// ErrEmptyName is returned by Sport.Validate when the name is blank.
var ErrEmptyName = errors.New("sport name must not be empty")

// Sport is one activity type offered when creating or browsing rooms.
//
// The JSON field names are the persisted blob format and must not change.
type Sport struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// Name is the lookup key for edit, delete and toggle.
	// Comparison is exact and case-sensitive.
	// Example: Football
	Name string `json:"name" yaml:"name"`

	// ─────────────────────────────
	// Presentation
	// (opaque to storage, validated at the edges)
	// ─────────────────────────────

	// Color is a free-form color value.
	// Example: #FF7043
	Color string `json:"color" yaml:"color"`

	// Icon is an icon identifier, usually one of Icons.
	// Example: football-outline
	Icon string `json:"icon" yaml:"icon"`

	// ─────────────────────────────
	// Visibility
	// ─────────────────────────────

	// Hidden removes the sport from the visible view.
	Hidden bool `json:"hidden" yaml:"hidden"`
}

// Normalize returns a copy with surrounding whitespace removed from the text fields.
func (s Sport) Normalize() Sport {
	s.Name = strings.TrimSpace(s.Name)
	s.Color = strings.TrimSpace(s.Color)
	s.Icon = strings.TrimSpace(s.Icon)
	return s
}

// WithDefaults fills an empty color or icon with DefaultColor and DefaultIcon.
func (s Sport) WithDefaults() Sport {
	if s.Color == "" {
		s.Color = DefaultColor
	}
	if s.Icon == "" {
		s.Icon = DefaultIcon
	}
	return s
}

// Validate checks the invariants storage relies on. Color and icon are not
// checked here.
func (s Sport) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// DefaultSports returns the built-in seed list, all visible.
// A fresh slice is returned on every call.
func DefaultSports() []Sport {
	return []Sport{
		{Name: "Swimming", Color: "#4FC3F7", Icon: "water"},
		{Name: "Running", Color: "#FFA726", Icon: "walk"},
		{Name: "Football", Color: "#FF7043", Icon: "football"},
		{Name: "Basketball", Color: "#7E57C2", Icon: "basketball"},
		{Name: "Cycling", Color: "#66BB6A", Icon: "bicycle"},
		{Name: "Tennis", Color: "#EC407A", Icon: "tennisball"},
		{Name: "Yoga", Color: "#9C27B0", Icon: "body"},
	}
}
