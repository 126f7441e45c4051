package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	store := NewStore(new(mockSubmitter), time.Minute, Options{})

	assert.Nil(t, store.Get("missing", "jane"))
	assert.False(t, store.Has("missing"))

	created := store.GetOrCreate("abc", "jane")
	require.NotNil(t, created)
	assert.Equal(t, "abc", created.ID)
	assert.Equal(t, PhaseIdle, created.Phase())
	assert.Same(t, created, store.Get("abc", "jane"))
	assert.Same(t, created, store.GetOrCreate("abc", "jane"))
	assert.True(t, store.Has("abc"))

	// Another profile gets its own session under the same id.
	other := store.GetOrCreate("abc", "john")
	assert.NotSame(t, created, other)
	assert.Equal(t, "abc", other.ID)
	assert.Equal(t, "john", other.ProfileID)
	assert.Same(t, created, store.Get("abc", "jane"))

	fresh := store.Create("jane")
	assert.NotEmpty(t, fresh.ID)
	assert.NotEqual(t, "abc", fresh.ID)
	assert.Equal(t, 3, store.Len())

	store.Delete("abc", "jane")
	assert.Nil(t, store.Get("abc", "jane"))
	assert.NotNil(t, store.Get("abc", "john"))
	assert.Equal(t, 2, store.Len())
}

func TestStore_ProfileSwitchKeepsSubmission(t *testing.T) {
	sub := new(mockSubmitter)
	release := make(chan time.Time)
	sub.On("SubmitBooking", mock.Anything, "alice", testSlot(), "Ann", "a@b.com").
		WaitUntil(release).Return(nil).Once()
	store := NewStore(sub, time.Minute, Options{ResetDelay: time.Hour})

	alice := store.GetOrCreate("visitor", "alice")
	require.NoError(t, alice.SelectSlot(testSlot()))
	done, err := alice.BeginSubmission(context.Background(), "Ann", "a@b.com")
	require.NoError(t, err)

	bob := store.GetOrCreate("visitor", "bob")
	assert.NotSame(t, alice, bob)
	assert.Equal(t, PhaseSubmitting, alice.Phase())

	close(release)
	snap := wait(t, done)
	assert.Equal(t, PhaseSucceeded, snap.Phase)
	require.NotNil(t, snap.SelectedSlot)
	assert.Same(t, alice, store.Get("visitor", "alice"))
	assert.Equal(t, PhaseIdle, bob.Phase())
	sub.AssertExpectations(t)
}

func TestStore_Cleanup(t *testing.T) {
	now := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewStore(new(mockSubmitter), 10*time.Minute, Options{Now: clock})

	store.GetOrCreate("old", "jane")
	now = now.Add(20 * time.Minute)
	store.GetOrCreate("new", "jane")

	assert.Nil(t, store.Get("old", "jane"))
	assert.False(t, store.Has("old"))
	assert.Equal(t, 1, store.Cleanup())
	assert.Equal(t, 1, store.Len())
	assert.NotNil(t, store.Get("new", "jane"))
}

func TestStore_SubmittingSessionNeverExpires(t *testing.T) {
	now := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	sub := new(mockSubmitter)
	release := make(chan time.Time)
	sub.On("SubmitBooking", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		WaitUntil(release).Return(nil).Once()
	store := NewStore(sub, time.Minute, Options{Now: clock, ResetDelay: time.Hour})

	s := store.GetOrCreate("visitor", "jane")
	require.NoError(t, s.SelectSlot(testSlot()))
	done, err := s.BeginSubmission(context.Background(), "Ann", "a@b.com")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	assert.Equal(t, 0, store.Cleanup())
	assert.Same(t, s, store.GetOrCreate("visitor", "jane"))

	close(release)
	wait(t, done)
}
