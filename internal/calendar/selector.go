// Package calendar exposes the month view and the date selection of the booking widget.
package calendar

import (
	"sort"
	"sync"
	"time"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/slots"
)

// Selector tracks the selected date over a fixed slot list.
// Dates without an open slot cannot be selected.
type Selector struct {
	mu        sync.RWMutex
	loc       *time.Location
	all       []model.Slot
	available map[model.Date]struct{}
	selected  *model.Date
}

// NewSelector builds a selector over all.
func NewSelector(all []model.Slot, loc *time.Location) *Selector {
	if loc == nil {
		loc = time.Local
	}
	return &Selector{
		loc:       loc,
		all:       all,
		available: slots.AvailableDates(all, loc),
	}
}

// IsAvailable reports whether date has at least one open slot.
func (s *Selector) IsAvailable(date model.Date) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.available[date]
	return ok
}

// SelectDate selects date when it is available; otherwise it does nothing and returns false.
func (s *Selector) SelectDate(date model.Date) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.available[date]; !ok {
		return false
	}
	d := date
	s.selected = &d
	return true
}

// CurrentSelection returns the active date.
func (s *Selector) CurrentSelection() (model.Date, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return model.Date{}, false
	}
	return *s.selected, true
}

// Clear drops the selection.
func (s *Selector) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}

// Slots returns the bucketed slots of the selected date.
func (s *Selector) Slots() slots.Buckets {
	date, ok := s.CurrentSelection()
	if !ok {
		return slots.Buckets{}
	}
	return slots.BucketByTimeOfDay(slots.SlotsOnDate(s.all, date, s.loc), s.loc)
}

// AvailableDates returns the selectable dates in ascending order.
func (s *Selector) AvailableDates() []model.Date {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Date, 0, len(s.available))
	for d := range s.available {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// FirstAvailable returns the earliest selectable date.
func (s *Selector) FirstAvailable() (model.Date, bool) {
	dates := s.AvailableDates()
	if len(dates) == 0 {
		return model.Date{}, false
	}
	return dates[0], true
}

// Location returns the zone used to derive dates.
func (s *Selector) Location() *time.Location {
	return s.loc
}
