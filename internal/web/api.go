package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/booking"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/calendar"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/metrics"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/profile"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/slots"
)

// MeetingResponse is the response for GET /api/profiles/{profile}/meeting.
type MeetingResponse struct {
	Subject         string       `json:"subject"`
	DurationMinutes int          `json:"durationMinutes"`
	Duration        string       `json:"duration"`
	AvailableDates  []model.Date `json:"availableDates"`
	Slots           []model.Slot `json:"items"`
}

// SlotsResponse is the response for GET /api/profiles/{profile}/slots.
type SlotsResponse struct {
	Date      model.Date   `json:"date"`
	Available bool         `json:"available"`
	Morning   []model.Slot `json:"morning"`
	Afternoon []model.Slot `json:"afternoon"`
	Evening   []model.Slot `json:"evening"`
}

// BookingRequest is the body of POST /api/profiles/{profile}/bookings.
type BookingRequest struct {
	Start time.Time `json:"start"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// handleMeetingAPI returns the meeting type with its available dates.
// GET /api/profiles/{profile}/meeting, GET /api/demo/meeting
func (s *Server) handleMeetingAPI(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("api_meeting")
	src := s.source(r)
	profileID := src.profileID

	mt, err := src.loader.FetchMeetingType(r.Context(), profileID)
	if err != nil {
		writeError(w, http.StatusBadGateway, profile.LoadFailedMessage)
		return
	}

	sel := calendar.NewSelector(mt.Slots, s.loc)
	resp := MeetingResponse{
		Subject:         mt.Subject,
		DurationMinutes: mt.DurationMinutes,
		Duration:        slots.FormatDuration(mt.DurationMinutes),
		AvailableDates:  sel.AvailableDates(),
		Slots:           mt.Slots,
	}
	if resp.AvailableDates == nil {
		resp.AvailableDates = []model.Date{}
	}
	if resp.Slots == nil {
		resp.Slots = []model.Slot{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSlotsAPI returns the slots of one date split by time of day.
// GET /api/profiles/{profile}/slots?date=YYYY-MM-DD, GET /api/demo/slots
func (s *Server) handleSlotsAPI(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("api_slots")
	src := s.source(r)
	profileID := src.profileID

	date, err := model.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mt, err := src.loader.FetchMeetingType(r.Context(), profileID)
	if err != nil {
		writeError(w, http.StatusBadGateway, profile.LoadFailedMessage)
		return
	}

	sel := calendar.NewSelector(mt.Slots, s.loc)
	resp := SlotsResponse{Date: date, Available: sel.SelectDate(date)}
	b := sel.Slots()
	resp.Morning = nonNil(b.Morning)
	resp.Afternoon = nonNil(b.Afternoon)
	resp.Evening = nonNil(b.Evening)
	writeJSON(w, http.StatusOK, resp)
}

// handleBookingAPI books one slot and returns the final session state.
// POST /api/profiles/{profile}/bookings, POST /api/demo/bookings
func (s *Server) handleBookingAPI(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("api_booking")
	src := s.source(r)
	profileID := src.profileID

	var req BookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Start.IsZero() {
		writeError(w, http.StatusBadRequest, booking.ErrIncomplete.Error())
		return
	}

	if !s.limiter.allow(clientIP(r), s.now()) {
		writeError(w, http.StatusTooManyRequests, "too many booking attempts, try again later")
		return
	}

	mt, err := src.loader.FetchMeetingType(r.Context(), profileID)
	if err != nil {
		writeError(w, http.StatusBadGateway, profile.LoadFailedMessage)
		return
	}
	slot, ok := mt.FindSlot(req.Start)
	if !ok {
		writeError(w, http.StatusConflict, "slot is no longer available")
		return
	}

	sess := src.store.Create(profileID)
	defer src.store.Delete(sess.ID, profileID)
	if err := sess.SelectSlot(slot); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := sess.Submit(context.WithoutCancel(r.Context()), req.Name, req.Email)
	switch {
	case errors.Is(err, booking.ErrIncomplete):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusConflict, err.Error())
	case snap.Phase == booking.PhaseSucceeded:
		writeJSON(w, http.StatusCreated, snap)
	default:
		writeJSON(w, http.StatusBadGateway, snap)
	}
}

func nonNil(in []model.Slot) []model.Slot {
	if in == nil {
		return []model.Slot{}
	}
	return in
}
