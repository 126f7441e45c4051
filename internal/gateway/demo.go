package gateway

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
)

// Demo accepts every booking without calling any remote API.
type Demo struct {
	logger *zerolog.Logger
}

// NewDemo creates the demonstration submitter.
func NewDemo(logger *zerolog.Logger) *Demo {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Demo{logger: logger}
}

// SubmitBooking logs the booking and succeeds.
func (d *Demo) SubmitBooking(_ context.Context, profileID string, slot model.Slot, name, _ string) error {
	d.logger.Info().Str("profile", profileID).Str("name", name).Time("slot_start", slot.Start).Msg("demo booking accepted")
	return nil
}
