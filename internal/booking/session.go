package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
)

// DefaultResetDelay is how long a successful session stays visible before it resets.
const DefaultResetDelay = 2000 * time.Millisecond

// FallbackErrorMessage is shown when a failure carries no usable message.
const FallbackErrorMessage = "Failed to book meeting. Please try again."

var (
	// ErrIncomplete is returned when name, email or slot is missing.
	ErrIncomplete = errors.New("booking: name, email and slot are required")
	// ErrInvalidTransition is returned when the session cannot move to the requested phase.
	ErrInvalidTransition = errors.New("booking: invalid phase transition")
)

// Submitter performs the remote booking calls for a session.
type Submitter interface {
	SubmitBooking(ctx context.Context, profileID string, slot model.Slot, name, email string) error
}

// Snapshot is a copy of the observable session state.
type Snapshot struct {
	ID           string      `json:"id"`
	ProfileID    string      `json:"profileId"`
	Phase        Phase       `json:"phase"`
	SelectedSlot *model.Slot `json:"selectedSlot,omitempty"`
	Name         string      `json:"name,omitempty"`
	Email        string      `json:"email,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Options configure a session.
type Options struct {
	ResetDelay time.Duration
	// Now is used for timestamps; tests override it.
	Now func() time.Time
}

// Session is one in-progress booking attempt.
type Session struct {
	ID        string
	ProfileID string

	submitter  Submitter
	fsm        *FSM
	resetDelay time.Duration
	now        func() time.Time

	mu           sync.Mutex
	phase        Phase
	selectedSlot *model.Slot
	name         string
	email        string
	errorMessage string
	updatedAt    time.Time
	// generation invalidates pending auto-reset timers.
	generation uint64
	resetTimer *time.Timer
}

// NewSession creates an idle session for profileID.
func NewSession(id, profileID string, submitter Submitter, opts Options) *Session {
	if opts.ResetDelay <= 0 {
		opts.ResetDelay = DefaultResetDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		ID:         id,
		ProfileID:  profileID,
		submitter:  submitter,
		fsm:        NewFSM(),
		resetDelay: opts.ResetDelay,
		now:        opts.Now,
		phase:      PhaseIdle,
		updatedAt:  opts.Now(),
	}
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:           s.ID,
		ProfileID:    s.ProfileID,
		Phase:        s.phase,
		Name:         s.name,
		Email:        s.email,
		ErrorMessage: s.errorMessage,
		UpdatedAt:    s.updatedAt,
	}
	if s.selectedSlot != nil {
		slot := *s.selectedSlot
		snap.SelectedSlot = &slot
	}
	return snap
}

// UpdatedAt returns the time of the last state change.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// SelectSlot binds slot to the session. Only allowed while idle or failed,
// so an in-flight or just-succeeded attempt keeps its slot.
func (s *Session) SelectSlot(slot model.Slot) error {
	if slot.IsZero() {
		return ErrIncomplete
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseIdle && s.phase != PhaseFailed {
		return fmt.Errorf("%w: select slot while %s", ErrInvalidTransition, s.phase)
	}
	s.selectedSlot = &slot
	s.updatedAt = s.now()
	return nil
}

// BeginSubmission validates the form and starts the remote booking.
// The final snapshot is delivered on the returned channel, which is then closed.
// On rejection the session is left untouched and no call is made.
func (s *Session) BeginSubmission(ctx context.Context, name, email string) (<-chan Snapshot, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	s.mu.Lock()
	if name == "" || email == "" || s.selectedSlot == nil {
		s.mu.Unlock()
		return nil, ErrIncomplete
	}
	if !s.fsm.CanTransition(s.phase, PhaseSubmitting) {
		from := s.phase
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, PhaseSubmitting)
	}

	s.phase = PhaseSubmitting
	s.name = name
	s.email = email
	s.errorMessage = ""
	s.updatedAt = s.now()
	s.generation++
	gen := s.generation
	slot := *s.selectedSlot
	s.mu.Unlock()

	done := make(chan Snapshot, 1)
	go func() {
		defer close(done)
		err := s.submitter.SubmitBooking(ctx, s.ProfileID, slot, name, email)
		done <- s.complete(gen, err)
	}()
	return done, nil
}

// Submit runs BeginSubmission and waits for the outcome.
func (s *Session) Submit(ctx context.Context, name, email string) (Snapshot, error) {
	done, err := s.BeginSubmission(ctx, name, email)
	if err != nil {
		return s.Snapshot(), err
	}
	select {
	case snap := <-done:
		return snap, nil
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}

func (s *Session) complete(gen uint64, err error) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The session was reset while the call was in flight.
	if gen != s.generation || s.phase != PhaseSubmitting {
		return s.snapshotLocked()
	}

	s.updatedAt = s.now()
	if err != nil {
		s.phase = PhaseFailed
		s.errorMessage = ErrorMessage(err)
		return s.snapshotLocked()
	}

	s.phase = PhaseSucceeded
	s.errorMessage = ""
	s.scheduleResetLocked(gen)
	return s.snapshotLocked()
}

func (s *Session) scheduleResetLocked(gen uint64) {
	if s.resetTimer != nil {
		s.resetTimer.Stop()
	}
	s.resetTimer = time.AfterFunc(s.resetDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.generation || s.phase != PhaseSucceeded {
			return
		}
		s.resetLocked()
	})
}

// Reset returns the session to idle and clears the form and the slot.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
	s.generation++
	s.phase = PhaseIdle
	s.selectedSlot = nil
	s.name = ""
	s.email = ""
	s.errorMessage = ""
	s.updatedAt = s.now()
}

// messenger is implemented by errors that carry a user-facing message.
type messenger interface {
	UserMessage() string
}

// ErrorMessage extracts the message shown to the visitor from err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var m messenger
	if errors.As(err, &m) {
		if msg := strings.TrimSpace(m.UserMessage()); msg != "" {
			return msg
		}
	}
	return FallbackErrorMessage
}
