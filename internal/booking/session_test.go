package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) SubmitBooking(ctx context.Context, profileID string, slot model.Slot, name, email string) error {
	return m.Called(ctx, profileID, slot, name, email).Error(0)
}

type userError struct{ msg string }

func (e userError) Error() string       { return "gateway: " + e.msg }
func (e userError) UserMessage() string { return e.msg }

func testSlot() model.Slot {
	start := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	return model.Slot{Start: start, End: start.Add(30 * time.Minute), AccountIDs: []int64{1}}
}

func wait(t *testing.T, done <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap := <-done:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("submission did not complete")
		return Snapshot{}
	}
}

func TestFSMTransitions(t *testing.T) {
	fsm := NewFSM()

	tests := []struct {
		name        string
		from        Phase
		to          Phase
		shouldAllow bool
	}{
		{"idle to submitting", PhaseIdle, PhaseSubmitting, true},
		{"submitting to succeeded", PhaseSubmitting, PhaseSucceeded, true},
		{"submitting to failed", PhaseSubmitting, PhaseFailed, true},
		{"failed to submitting", PhaseFailed, PhaseSubmitting, true},
		{"any to idle", PhaseSucceeded, PhaseIdle, true},
		{"submitting to idle", PhaseSubmitting, PhaseIdle, true},
		// Invalid transitions
		{"succeeded to submitting", PhaseSucceeded, PhaseSubmitting, false},
		{"submitting to submitting", PhaseSubmitting, PhaseSubmitting, false},
		{"idle to succeeded", PhaseIdle, PhaseSucceeded, false},
		{"failed to succeeded", PhaseFailed, PhaseSucceeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.shouldAllow, fsm.CanTransition(tt.from, tt.to))
		})
	}
}

func TestBeginSubmission_RejectsIncompleteForm(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		email   string
		setSlot bool
	}{
		{"empty name", "", "a@b.com", true},
		{"blank name", "   ", "a@b.com", true},
		{"empty email", "Ann", "", true},
		{"no slot", "Ann", "a@b.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := new(mockSubmitter)
			s := NewSession("s1", "demo", sub, Options{})
			if tt.setSlot {
				require.NoError(t, s.SelectSlot(testSlot()))
			}
			before := s.Snapshot()

			done, err := s.BeginSubmission(context.Background(), tt.user, tt.email)
			assert.ErrorIs(t, err, ErrIncomplete)
			assert.Nil(t, done)
			assert.Equal(t, PhaseIdle, s.Phase())
			assert.Equal(t, before, s.Snapshot())
			sub.AssertNotCalled(t, "SubmitBooking", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSubmission_SuccessThenAutoReset(t *testing.T) {
	sub := new(mockSubmitter)
	release := make(chan time.Time)
	sub.On("SubmitBooking", mock.Anything, "jane", testSlot(), "Ann", "a@b.com").
		WaitUntil(release).
		Return(nil).Once()

	s := NewSession("s1", "jane", sub, Options{ResetDelay: 30 * time.Millisecond})
	require.NoError(t, s.SelectSlot(testSlot()))
	assert.Equal(t, PhaseIdle, s.Phase())

	done, err := s.BeginSubmission(context.Background(), "Ann", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, PhaseSubmitting, s.Phase())

	// Submit is disabled while a call is in flight.
	_, err = s.BeginSubmission(context.Background(), "Ann", "a@b.com")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	close(release)
	snap := wait(t, done)
	assert.Equal(t, PhaseSucceeded, snap.Phase)
	assert.Equal(t, "Ann", snap.Name)
	require.NotNil(t, snap.SelectedSlot)

	// Succeeded is terminal until reset.
	_, err = s.BeginSubmission(context.Background(), "Ann", "a@b.com")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Eventually(t, func() bool { return s.Phase() == PhaseIdle }, time.Second, 5*time.Millisecond)
	after := s.Snapshot()
	assert.Empty(t, after.Name)
	assert.Empty(t, after.Email)
	assert.Nil(t, after.SelectedSlot)
	sub.AssertExpectations(t)
}

func TestSubmission_FailureKeepsFormForRetry(t *testing.T) {
	sub := new(mockSubmitter)
	sub.On("SubmitBooking", mock.Anything, "jane", testSlot(), "Ann", "a@b.com").
		Return(userError{msg: "Slot is no longer available"}).Once()
	sub.On("SubmitBooking", mock.Anything, "jane", testSlot(), "Ann", "a@b.com").
		Return(nil).Once()

	s := NewSession("s1", "jane", sub, Options{ResetDelay: time.Hour})
	require.NoError(t, s.SelectSlot(testSlot()))

	snap, err := s.Submit(context.Background(), "Ann", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, PhaseFailed, snap.Phase)
	assert.Equal(t, "Slot is no longer available", snap.ErrorMessage)
	assert.Equal(t, "Ann", snap.Name)
	assert.Equal(t, "a@b.com", snap.Email)
	assert.NotNil(t, snap.SelectedSlot)

	snap, err = s.Submit(context.Background(), "Ann", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, PhaseSucceeded, snap.Phase)
	assert.Empty(t, snap.ErrorMessage)

	s.Reset()
	sub.AssertExpectations(t)
}

func TestSubmission_PlainErrorUsesFallbackMessage(t *testing.T) {
	sub := new(mockSubmitter)
	sub.On("SubmitBooking", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("dial tcp: connection refused"))

	s := NewSession("s1", "jane", sub, Options{})
	require.NoError(t, s.SelectSlot(testSlot()))

	snap, err := s.Submit(context.Background(), "Ann", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, PhaseFailed, snap.Phase)
	assert.Equal(t, FallbackErrorMessage, snap.ErrorMessage)
}

func TestReset_FromAnyState(t *testing.T) {
	sub := new(mockSubmitter)
	release := make(chan time.Time)
	sub.On("SubmitBooking", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		WaitUntil(release).Return(nil)

	s := NewSession("s1", "jane", sub, Options{ResetDelay: time.Millisecond})
	require.NoError(t, s.SelectSlot(testSlot()))
	done, err := s.BeginSubmission(context.Background(), "Ann", "a@b.com")
	require.NoError(t, err)

	s.Reset()
	assert.Equal(t, PhaseIdle, s.Phase())

	// The late outcome must not resurrect the reset session.
	close(release)
	snap := wait(t, done)
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Nil(t, snap.SelectedSlot)
	assert.Equal(t, PhaseIdle, s.Phase())
}

func TestSelectSlot(t *testing.T) {
	s := NewSession("s1", "jane", new(mockSubmitter), Options{})
	assert.ErrorIs(t, s.SelectSlot(model.Slot{}), ErrIncomplete)
	require.NoError(t, s.SelectSlot(testSlot()))
	snap := s.Snapshot()
	require.NotNil(t, snap.SelectedSlot)
	assert.True(t, snap.SelectedSlot.Equal(testSlot()))
}

func TestErrorMessage(t *testing.T) {
	assert.Empty(t, ErrorMessage(nil))
	assert.Equal(t, FallbackErrorMessage, ErrorMessage(errors.New("boom")))
	assert.Equal(t, "taken", ErrorMessage(userError{msg: "taken"}))
	assert.Equal(t, FallbackErrorMessage, ErrorMessage(userError{msg: "  "}))
}
