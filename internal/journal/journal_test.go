package journal

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/events"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func entry(id, status string, created time.Time) Entry {
	start := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	return Entry{
		ID:        id,
		ProfileID: "jane",
		Name:      "Ann",
		Email:     "a@b.com",
		SlotStart: start,
		SlotEnd:   start.Add(30 * time.Minute),
		Status:    status,
		CreatedAt: created,
	}
}

func TestRecordAndList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, db.Record(ctx, entry("a1", "booked", now.Add(-time.Hour))))
	failed := entry("a2", "provider_booked_mirror_failed", now)
	failed.Error = "Calendar not connected"
	require.NoError(t, db.Record(ctx, failed))

	all, err := db.List(ctx, now.Add(-24*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a2", all[0].ID)
	assert.Equal(t, "Calendar not connected", all[0].Error)
	assert.True(t, all[1].SlotStart.Equal(entry("", "", now).SlotStart))

	onlyFailed, err := db.List(ctx, time.Time{}, "provider_booked_mirror_failed")
	require.NoError(t, err)
	require.Len(t, onlyFailed, 1)

	// Re-recording updates the status.
	require.NoError(t, db.Record(ctx, entry("a2", "booked", now)))
	onlyFailed, err = db.List(ctx, time.Time{}, "provider_booked_mirror_failed")
	require.NoError(t, err)
	assert.Empty(t, onlyFailed)
}

func TestDeleteOlderThan(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Record(ctx, entry("old", "booked", time.Now().Add(-48*time.Hour))))
	require.NoError(t, db.Record(ctx, entry("new", "booked", time.Now())))

	n, err := db.DeleteOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestHandlerRecordsBusEvents(t *testing.T) {
	db := openTestDB(t)
	bus := events.NewBus(nil)
	bus.Subscribe(db.Handler(time.Second), events.BookingSucceeded, events.BookingFailed)

	payload := map[string]any{
		"id":        "evt-1",
		"profileId": "jane",
		"name":      "Ann",
		"email":     "a@b.com",
		"slot":      map[string]any{"start": "2024-06-01T09:00:00Z", "end": "2024-06-01T09:30:00Z"},
		"status":    "provider_failed",
		"error":     "Slot taken",
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	require.NoError(t, bus.PublishJSON("evt-1", events.BookingFailed, payload))

	got, err := db.List(context.Background(), time.Time{}, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Slot taken", got[0].Error)
	assert.Equal(t, 9, got[0].SlotStart.UTC().Hour())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	entries := []Entry{entry("a1", "booked", time.Date(2024, time.May, 30, 10, 0, 0, 0, time.UTC))}
	require.NoError(t, WriteXLSX(&buf, entries, time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, exportColumns, rows[0])
	assert.Equal(t, "a1", rows[1][0])
	assert.Equal(t, "2024-06-01 09:00", rows[1][5])
	assert.Equal(t, "booked", rows[1][7])
}
