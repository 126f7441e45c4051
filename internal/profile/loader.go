// Package profile loads the meeting type shown for a booking profile.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/metrics"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
)

// LoadFailedMessage is shown when the meeting type cannot be loaded.
const LoadFailedMessage = "Failed to load booking data. Please try again later."

// ErrLoadFailed wraps every failure to load a meeting type.
var ErrLoadFailed = errors.New("profile: failed to load meeting type")

// MeetingFetcher fetches a meeting type from the scheduling provider.
type MeetingFetcher interface {
	GetMeeting(ctx context.Context, profileID string) (*model.MeetingType, error)
}

// Loader fetches meeting types. There is no retry.
type Loader struct {
	fetcher MeetingFetcher
	logger  *zerolog.Logger
}

// NewLoader creates a loader.
func NewLoader(fetcher MeetingFetcher, logger *zerolog.Logger) *Loader {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Loader{fetcher: fetcher, logger: logger}
}

// FetchMeetingType loads the meeting type for profileID.
func (l *Loader) FetchMeetingType(ctx context.Context, profileID string) (*model.MeetingType, error) {
	if profileID == "" {
		metrics.IncProfileLoad("error")
		return nil, fmt.Errorf("%w: empty profile id", ErrLoadFailed)
	}

	mt, err := l.fetcher.GetMeeting(ctx, profileID)
	if err != nil {
		metrics.IncProfileLoad("error")
		l.logger.Error().Err(err).Str("profile", profileID).Msg("fetch meeting type")
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	if mt == nil || mt.DurationMinutes <= 0 {
		metrics.IncProfileLoad("error")
		l.logger.Error().Str("profile", profileID).Msg("meeting type has no positive duration")
		return nil, fmt.Errorf("%w: invalid duration", ErrLoadFailed)
	}

	metrics.IncProfileLoad("ok")
	l.logger.Debug().Str("profile", profileID).Int("slots", len(mt.Slots)).Msg("meeting type loaded")
	return mt, nil
}
