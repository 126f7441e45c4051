package events

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishToSubscribers(t *testing.T) {
	var failed []string
	bus := NewBus(func(e Event, err error) { failed = append(failed, e.ID+":"+err.Error()) })

	var got []Event
	bus.Subscribe(func(e Event) error {
		got = append(got, e)
		return nil
	}, BookingSucceeded, BookingFailed)
	bus.Subscribe(func(Event) error { return errors.New("down") }, BookingFailed)

	require.NoError(t, bus.PublishJSON("a1", BookingSucceeded, map[string]string{"profile": "jane"}))
	require.NoError(t, bus.PublishJSON("a2", BookingFailed, map[string]string{"profile": "jane"}))
	bus.Publish(Event{ID: "a3", Type: "other"})

	require.Len(t, got, 2)
	assert.Equal(t, BookingSucceeded, got[0].Type)
	assert.False(t, got[0].CreatedAt.IsZero())

	var payload map[string]string
	require.NoError(t, got[1].Decode(&payload))
	assert.Equal(t, "jane", payload["profile"])

	assert.Equal(t, []string{"a2:down"}, failed)
}

func TestBus_SubscribeAsyncDoesNotBlockPublish(t *testing.T) {
	var mu sync.Mutex
	var failed []string
	bus := NewBus(func(e Event, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, e.ID+":"+err.Error())
	})

	release := make(chan struct{})
	var slowDone bool
	bus.SubscribeAsync(func(Event) error {
		<-release
		mu.Lock()
		slowDone = true
		mu.Unlock()
		return errors.New("telegram down")
	}, BookingSucceeded)

	var syncSeen bool
	bus.Subscribe(func(Event) error {
		syncSeen = true
		return nil
	}, BookingSucceeded)

	published := make(chan struct{})
	go func() {
		defer close(published)
		bus.Publish(Event{ID: "a1", Type: BookingSucceeded})
	}()

	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("publish waited for the async handler")
	}
	assert.True(t, syncSeen)

	close(release)
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, slowDone)
	assert.Equal(t, []string{"a1:telegram down"}, failed)
}
