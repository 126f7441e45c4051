package model

import "time"

// Slot is a bookable interval returned by the scheduling provider.
type Slot struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	AccountIDs []int64   `json:"accountIds,omitempty"`
}

// Duration returns the slot length.
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// IsZero reports whether the slot carries no start time.
func (s Slot) IsZero() bool {
	return s.Start.IsZero()
}

// Equal compares slots by interval only.
func (s Slot) Equal(other Slot) bool {
	return s.Start.Equal(other.Start) && s.End.Equal(other.End)
}

// LocalHour returns the start hour in loc.
func (s Slot) LocalHour(loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	return s.Start.In(loc).Hour()
}

// MeetingType is the profile definition shown by the widget.
type MeetingType struct {
	Subject         string `json:"subject"`
	DurationMinutes int    `json:"durationMinutes"`
	Slots           []Slot `json:"items"`
}

// FindSlot returns the slot starting at start.
func (m *MeetingType) FindSlot(start time.Time) (Slot, bool) {
	for _, s := range m.Slots {
		if s.Start.Equal(start) {
			return s, true
		}
	}
	return Slot{}, false
}
