package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
)

func slot(day, hour int) model.Slot {
	start := time.Date(2024, time.June, day, hour, 0, 0, 0, time.UTC)
	return model.Slot{Start: start, End: start.Add(30 * time.Minute)}
}

func june(day int) model.Date {
	return model.Date{Year: 2024, Month: time.June, Day: day}
}

func TestSelector_SelectDate(t *testing.T) {
	sel := NewSelector([]model.Slot{slot(3, 9), slot(3, 13), slot(5, 18)}, time.UTC)

	_, ok := sel.CurrentSelection()
	assert.False(t, ok)
	assert.True(t, sel.Slots().Empty())

	// Unavailable date is a no-op.
	assert.False(t, sel.SelectDate(june(4)))
	_, ok = sel.CurrentSelection()
	assert.False(t, ok)

	require.True(t, sel.SelectDate(june(3)))
	got, ok := sel.CurrentSelection()
	require.True(t, ok)
	assert.Equal(t, june(3), got)

	b := sel.Slots()
	assert.Len(t, b.Morning, 1)
	assert.Len(t, b.Afternoon, 1)
	assert.Empty(t, b.Evening)

	// A rejected selection keeps the previous one.
	assert.False(t, sel.SelectDate(june(30)))
	got, _ = sel.CurrentSelection()
	assert.Equal(t, june(3), got)

	sel.Clear()
	_, ok = sel.CurrentSelection()
	assert.False(t, ok)
}

func TestSelector_AvailableDatesSorted(t *testing.T) {
	sel := NewSelector([]model.Slot{slot(9, 9), slot(2, 9), slot(5, 9), slot(2, 10)}, time.UTC)
	assert.Equal(t, []model.Date{june(2), june(5), june(9)}, sel.AvailableDates())

	first, ok := sel.FirstAvailable()
	require.True(t, ok)
	assert.Equal(t, june(2), first)

	_, ok = NewSelector(nil, time.UTC).FirstAvailable()
	assert.False(t, ok)
}

func TestSelector_Month(t *testing.T) {
	sel := NewSelector([]model.Slot{slot(3, 9), slot(14, 9)}, time.UTC)
	require.True(t, sel.SelectDate(june(14)))

	grid := sel.Month(2024, time.June, june(1))
	assert.Equal(t, "June 2024", grid.Title())
	assert.Equal(t, "2024-05", grid.Prev.String())
	assert.Equal(t, "2024-07", grid.Next.String())

	// June 1st 2024 is a Saturday: five padding cells before it.
	first := grid.Weeks[0]
	require.Len(t, first, 7)
	for i := 0; i < 5; i++ {
		assert.True(t, first[i].Padding())
	}
	assert.Equal(t, 1, first[5].Number)
	assert.True(t, first[5].Today)

	var numbered, enabled int
	for _, week := range grid.Weeks {
		assert.Len(t, week, 7)
		for _, d := range week {
			if d.Padding() {
				continue
			}
			numbered++
			if !d.Disabled {
				enabled++
				assert.Contains(t, []int{3, 14}, d.Number)
			}
			if d.Selected {
				assert.Equal(t, 14, d.Number)
			}
		}
	}
	assert.Equal(t, 30, numbered)
	assert.Equal(t, 2, enabled)
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, daysIn(time.February, 2024))
	assert.Equal(t, 28, daysIn(time.February, 2023))
	assert.Equal(t, 31, daysIn(time.December, 2024))
	assert.Equal(t, 30, daysIn(time.April, 2024))
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-12")
	require.NoError(t, err)
	assert.Equal(t, MonthRef{Year: 2024, Month: time.December}, m)

	_, err = ParseMonth("12/2024")
	assert.Error(t, err)
}
