// Package gateway performs the provider booking followed by the backend mirror call.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/booking"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/events"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/metrics"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/mirror"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/provider"
)

// MeetingCreator creates the meeting with the scheduling provider.
type MeetingCreator interface {
	CreateMeeting(ctx context.Context, profileID string, req provider.MeetingRequest) error
}

// BookingMirror records the booking in the internal backend.
type BookingMirror interface {
	CreateBooking(ctx context.Context, profileID string, req mirror.BookingRequest) error
}

// Kind classifies a booking failure.
type Kind string

const (
	KindProvider Kind = "provider_booking_failure"
	// KindMirror means the provider booking exists but the backend did not record it.
	KindMirror Kind = "backend_mirror_failure"
)

// Attempt statuses recorded in events.
const (
	StatusBooked             = "booked"
	StatusProviderFailed     = "provider_failed"
	StatusMirrorFailedBooked = "provider_booked_mirror_failed"
)

// Error is the normalized booking failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown next to the booking form.
func (e *Error) UserMessage() string {
	return e.Message
}

// Attempt is the payload of booking events.
type Attempt struct {
	ID        string     `json:"id"`
	ProfileID string     `json:"profileId"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Slot      model.Slot `json:"slot"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Gateway submits bookings. It implements booking.Submitter.
type Gateway struct {
	provider MeetingCreator
	mirror   BookingMirror
	bus      *events.Bus
	logger   *zerolog.Logger
	now      func() time.Time
}

// New creates a gateway. bus may be nil.
func New(p MeetingCreator, m BookingMirror, bus *events.Bus, logger *zerolog.Logger) *Gateway {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Gateway{provider: p, mirror: m, bus: bus, logger: logger, now: time.Now}
}

var _ booking.Submitter = (*Gateway)(nil)

// SubmitBooking creates the meeting with the provider and, only if that
// succeeds, mirrors it to the backend. A mirror failure is reported as a
// failure even though the provider booking already exists.
func (g *Gateway) SubmitBooking(ctx context.Context, profileID string, slot model.Slot, name, email string) error {
	attempt := Attempt{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		Name:      name,
		Email:     email,
		Slot:      slot,
		CreatedAt: g.now(),
	}
	log := g.logger.With().Str("attempt_id", attempt.ID).Str("profile", profileID).Time("slot_start", slot.Start).Logger()

	accountIDs := slot.AccountIDs
	if accountIDs == nil {
		accountIDs = []int64{}
	}
	err := g.provider.CreateMeeting(ctx, profileID, provider.MeetingRequest{
		Name:             name,
		Email:            email,
		Time:             provider.TimeRange{Start: slot.Start, End: slot.End},
		SubstitutionData: map[string]any{},
		AccountIDs:       accountIDs,
	})
	if err != nil {
		metrics.IncUpstreamCall("provider", "error")
		gerr := &Error{Kind: KindProvider, Message: providerMessage(err), Err: err}
		log.Warn().Err(err).Msg("provider booking failed")
		g.finish(attempt, StatusProviderFailed, gerr)
		return gerr
	}
	metrics.IncUpstreamCall("provider", "ok")

	err = g.mirror.CreateBooking(ctx, profileID, mirror.BookingRequest{
		Name:  name,
		Email: email,
		Time:  mirror.TimeRange{Start: slot.Start, End: slot.End},
	})
	if err != nil {
		metrics.IncUpstreamCall("backend", "error")
		gerr := &Error{Kind: KindMirror, Message: mirrorMessage(err), Err: err}
		log.Error().Err(err).Msg("backend mirror failed after provider booking")
		g.finish(attempt, StatusMirrorFailedBooked, gerr)
		return gerr
	}
	metrics.IncUpstreamCall("backend", "ok")

	log.Info().Msg("booking created")
	g.finish(attempt, StatusBooked, nil)
	return nil
}

func (g *Gateway) finish(attempt Attempt, status string, gerr *Error) {
	attempt.Status = status
	metrics.IncBookingOutcome(status)

	eventType := events.BookingSucceeded
	if gerr != nil {
		attempt.Error = gerr.Message
		eventType = events.BookingFailed
	}
	if g.bus == nil {
		return
	}
	if err := g.bus.PublishJSON(attempt.ID, eventType, attempt); err != nil {
		g.logger.Error().Err(err).Str("attempt_id", attempt.ID).Msg("publish booking event")
	}
}

func providerMessage(err error) string {
	var apiErr *provider.APIError
	if !errors.As(err, &apiErr) {
		return booking.FallbackErrorMessage
	}
	if apiErr.Body != nil {
		if apiErr.Body.Message != "" {
			return apiErr.Body.Message
		}
		if code := apiErr.Body.CodeString(); code != "" {
			return "Scheduling provider error: " + code
		}
	}
	return fmt.Sprintf("Request failed with status code %d", apiErr.StatusCode)
}

func mirrorMessage(err error) string {
	var apiErr *mirror.APIError
	if !errors.As(err, &apiErr) {
		return booking.FallbackErrorMessage
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return fmt.Sprintf("Request failed with status code %d", apiErr.StatusCode)
}
