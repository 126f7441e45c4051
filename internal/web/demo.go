package web

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/slots"
)

// demoLoader serves generated slots, regenerated once per local day.
type demoLoader struct {
	loc *time.Location
	now func() time.Time

	mu      sync.Mutex
	day     model.Date
	meeting *model.MeetingType
	rng     *rand.Rand
}

func newDemoLoader(loc *time.Location, now func() time.Time) *demoLoader {
	return &demoLoader{
		loc: loc,
		now: now,
		rng: rand.New(rand.NewSource(now().UnixNano())),
	}
}

func (d *demoLoader) FetchMeetingType(_ context.Context, _ string) (*model.MeetingType, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now().In(d.loc)
	today := model.DateOf(now, d.loc)
	if d.meeting != nil && d.day == today {
		return d.meeting, nil
	}
	mt, err := slots.GenerateDemo(now, slots.DefaultDemoSchedule(), d.rng)
	if err != nil {
		return nil, err
	}
	d.day = today
	d.meeting = mt
	return mt, nil
}
