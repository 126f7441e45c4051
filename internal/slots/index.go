// Package slots groups provider slots by calendar date and time of day.
package slots

import (
	"iter"
	"time"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
)

// Bucket boundaries by local start hour.
const (
	AfternoonStartHour = 12
	EveningStartHour   = 17
)

// Period names a time-of-day bucket.
type Period string

const (
	Morning   Period = "morning"
	Afternoon Period = "afternoon"
	Evening   Period = "evening"
)

// PeriodOf returns the bucket for a local start hour.
func PeriodOf(hour int) Period {
	switch {
	case hour < AfternoonStartHour:
		return Morning
	case hour < EveningStartHour:
		return Afternoon
	default:
		return Evening
	}
}

// Buckets holds one date's slots split by time of day.
type Buckets struct {
	Morning   []model.Slot `json:"morning"`
	Afternoon []model.Slot `json:"afternoon"`
	Evening   []model.Slot `json:"evening"`
}

// Len returns the number of slots across all buckets.
func (b Buckets) Len() int {
	return len(b.Morning) + len(b.Afternoon) + len(b.Evening)
}

// Empty reports whether no bucket has a slot.
func (b Buckets) Empty() bool {
	return b.Len() == 0
}

func (b *Buckets) add(p Period, s model.Slot) {
	switch p {
	case Morning:
		b.Morning = append(b.Morning, s)
	case Afternoon:
		b.Afternoon = append(b.Afternoon, s)
	default:
		b.Evening = append(b.Evening, s)
	}
}

// DateBucketIndex maps each date with open slots to its buckets.
type DateBucketIndex map[model.Date]Buckets

// AvailableDates returns the distinct local dates on which at least one slot starts.
func AvailableDates(all []model.Slot, loc *time.Location) map[model.Date]struct{} {
	dates := make(map[model.Date]struct{}, len(all))
	for _, s := range all {
		dates[model.DateOf(s.Start, loc)] = struct{}{}
	}
	return dates
}

// SlotsOnDate yields the slots whose local start date is date, in input order.
func SlotsOnDate(all []model.Slot, date model.Date, loc *time.Location) iter.Seq[model.Slot] {
	return func(yield func(model.Slot) bool) {
		for _, s := range all {
			if model.DateOf(s.Start, loc) != date {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

// CollectOnDate is SlotsOnDate materialized into a slice.
func CollectOnDate(all []model.Slot, date model.Date, loc *time.Location) []model.Slot {
	var out []model.Slot
	for s := range SlotsOnDate(all, date, loc) {
		out = append(out, s)
	}
	return out
}

// BucketByTimeOfDay partitions slots into morning, afternoon and evening.
// Every slot lands in exactly one bucket and input order is kept.
func BucketByTimeOfDay(in iter.Seq[model.Slot], loc *time.Location) Buckets {
	var b Buckets
	for s := range in {
		b.add(PeriodOf(s.LocalHour(loc)), s)
	}
	return b
}

// BucketSlice is BucketByTimeOfDay over a slice.
func BucketSlice(in []model.Slot, loc *time.Location) Buckets {
	return BucketByTimeOfDay(func(yield func(model.Slot) bool) {
		for _, s := range in {
			if !yield(s) {
				return
			}
		}
	}, loc)
}

// BuildIndex buckets every slot under its local start date.
func BuildIndex(all []model.Slot, loc *time.Location) DateBucketIndex {
	idx := make(DateBucketIndex)
	for _, s := range all {
		d := model.DateOf(s.Start, loc)
		b := idx[d]
		b.add(PeriodOf(s.LocalHour(loc)), s)
		idx[d] = b
	}
	return idx
}
