package slots

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDemo(t *testing.T) {
	now := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		schedule ScheduleInfo
		maxCount int
		minCount int
	}{
		{
			name:     "all open",
			schedule: ScheduleInfo{StartTime: "09:00", EndTime: "17:00", SlotDuration: 30, Days: 7, OpenRatio: 1},
			minCount: 7 * 16,
			maxCount: 7 * 16,
		},
		{
			name:     "none open",
			schedule: ScheduleInfo{StartTime: "09:00", EndTime: "17:00", SlotDuration: 30, Days: 7, OpenRatio: 0},
			minCount: 0,
			maxCount: 0,
		},
		{
			name:     "hour slots single day",
			schedule: ScheduleInfo{StartTime: "09:00", EndTime: "12:00", SlotDuration: 60, Days: 1, OpenRatio: 1},
			minCount: 3,
			maxCount: 3,
		},
		{
			name:     "default schedule",
			schedule: DefaultDemoSchedule(),
			minCount: 0,
			maxCount: 7 * 16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt, err := GenerateDemo(now, tt.schedule, rand.New(rand.NewSource(1)))
			require.NoError(t, err)

			assert.Equal(t, "Demo Meeting", mt.Subject)
			assert.GreaterOrEqual(t, len(mt.Slots), tt.minCount)
			assert.LessOrEqual(t, len(mt.Slots), tt.maxCount)

			for _, s := range mt.Slots {
				assert.Equal(t, []int64{DemoAccountID}, s.AccountIDs)
				assert.GreaterOrEqual(t, s.Start.Hour(), 9)
				assert.False(t, s.End.After(time.Date(s.Start.Year(), s.Start.Month(), s.Start.Day(), 17, 0, 0, 0, time.UTC)))
			}
		})
	}
}

func TestGenerateDemo_InvalidSchedule(t *testing.T) {
	_, err := GenerateDemo(time.Now(), ScheduleInfo{StartTime: "nine", EndTime: "17:00"}, nil)
	assert.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "30 minutes", FormatDuration(30))
	assert.Equal(t, "1 hour", FormatDuration(60))
	assert.Equal(t, "2 hours", FormatDuration(120))
	assert.Equal(t, "1 h 30 min", FormatDuration(90))
}
