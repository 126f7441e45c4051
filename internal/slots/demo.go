package slots

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
)

// DemoAccountID is attached to every generated demonstration slot.
const DemoAccountID int64 = 12345

// ScheduleInfo describes the working window used to generate demonstration slots.
type ScheduleInfo struct {
	StartTime    string // "09:00"
	EndTime      string // "17:00"
	SlotDuration int    // minutes
	Days         int
	// Probability that a generated slot is offered as open.
	OpenRatio float64
}

// DefaultDemoSchedule is a week of half-hour slots between 09:00 and 17:00.
func DefaultDemoSchedule() ScheduleInfo {
	return ScheduleInfo{
		StartTime:    "09:00",
		EndTime:      "17:00",
		SlotDuration: 30,
		Days:         7,
		OpenRatio:    0.7,
	}
}

// GenerateDemo builds a fake meeting type starting today, for use without a provider.
func GenerateDemo(now time.Time, schedule ScheduleInfo, rng *rand.Rand) (*model.MeetingType, error) {
	if schedule.SlotDuration <= 0 {
		schedule.SlotDuration = 30
	}
	if schedule.Days <= 0 {
		schedule.Days = 7
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(now.UnixNano()))
	}

	slotDuration := time.Duration(schedule.SlotDuration) * time.Minute
	var items []model.Slot

	for day := 0; day < schedule.Days; day++ {
		date := now.AddDate(0, 0, day)

		startTime, err := parseTimeOnDate(date, schedule.StartTime)
		if err != nil {
			return nil, fmt.Errorf("parse start time: %w", err)
		}
		endTime, err := parseTimeOnDate(date, schedule.EndTime)
		if err != nil {
			return nil, fmt.Errorf("parse end time: %w", err)
		}

		for cursor := startTime; !cursor.Add(slotDuration).After(endTime); cursor = cursor.Add(slotDuration) {
			if rng.Float64() >= schedule.OpenRatio {
				continue
			}
			items = append(items, model.Slot{
				Start:      cursor,
				End:        cursor.Add(slotDuration),
				AccountIDs: []int64{DemoAccountID},
			})
		}
	}

	return &model.MeetingType{
		Subject:         "Demo Meeting",
		DurationMinutes: schedule.SlotDuration,
		Slots:           items,
	}, nil
}

func parseTimeOnDate(date time.Time, timeStr string) (time.Time, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %s", timeStr)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid hour: %w", err)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid minute: %w", err)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}

// FormatDuration formats a duration in minutes for display.
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d minutes", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, mins)
}
