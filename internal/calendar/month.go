package calendar

import (
	"time"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
)

// Day is one cell of the month grid. Padding cells have a zero Date.
type Day struct {
	Date     model.Date
	Number   int
	Disabled bool
	Selected bool
	Today    bool
}

// Padding reports whether the cell lies outside the month.
func (d Day) Padding() bool {
	return d.Number == 0
}

// MonthGrid is a Monday-first calendar page.
type MonthGrid struct {
	Year     int
	Month    time.Month
	Weekdays []string
	Weeks    [][]Day
	Prev     MonthRef
	Next     MonthRef
}

// Title returns e.g. "June 2024".
func (g MonthGrid) Title() string {
	return time.Date(g.Year, g.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// MonthRef identifies a month for navigation links.
type MonthRef struct {
	Year  int
	Month time.Month
}

func (m MonthRef) String() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// ParseMonth parses YYYY-MM.
func ParseMonth(s string) (MonthRef, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthRef{}, err
	}
	return MonthRef{Year: t.Year(), Month: t.Month()}, nil
}

var weekdayLabels = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// Month builds the grid for year/month; today marks the current date.
func (s *Selector) Month(year int, month time.Month, today model.Date) MonthGrid {
	firstDay := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	weekdayOffset := int(firstDay.Weekday())
	if weekdayOffset == 0 {
		weekdayOffset = 7
	}
	daysInMonth := daysIn(month, year)
	selected, hasSelection := s.CurrentSelection()

	grid := MonthGrid{
		Year:     year,
		Month:    month,
		Weekdays: weekdayLabels,
		Prev:     monthRef(firstDay.AddDate(0, -1, 0)),
		Next:     monthRef(firstDay.AddDate(0, 1, 0)),
	}

	day := 1
	for day <= daysInMonth {
		week := make([]Day, 0, 7)
		for col := 1; col <= 7; col++ {
			if len(grid.Weeks) == 0 && col < weekdayOffset {
				week = append(week, Day{Disabled: true})
				continue
			}
			if day > daysInMonth {
				week = append(week, Day{Disabled: true})
				continue
			}
			date := model.Date{Year: year, Month: month, Day: day}
			week = append(week, Day{
				Date:     date,
				Number:   day,
				Disabled: !s.IsAvailable(date),
				Selected: hasSelection && selected == date,
				Today:    today == date,
			})
			day++
		}
		grid.Weeks = append(grid.Weeks, week)
	}

	return grid
}

func monthRef(t time.Time) MonthRef {
	return MonthRef{Year: t.Year(), Month: t.Month()}
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
