package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/events"
)

type attemptPayload struct {
	Entry
	Slot struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	} `json:"slot"`
}

// Handler returns an event handler that records booking events.
func (db *DB) Handler(timeout time.Duration) events.Handler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return func(e events.Event) error {
		var p attemptPayload
		if err := e.Decode(&p); err != nil {
			return fmt.Errorf("decode %s: %w", e.Type, err)
		}
		entry := p.Entry
		entry.SlotStart = p.Slot.Start
		entry.SlotEnd = p.Slot.End
		if entry.ID == "" {
			entry.ID = e.ID
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = e.CreatedAt
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return db.Record(ctx, entry)
	}
}
