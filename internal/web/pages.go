package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/booking"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/calendar"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/metrics"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/profile"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/slots"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

type slotView struct {
	Start    string
	Label    string
	Selected bool
}

type periodView struct {
	Label string
	Slots []slotView
}

type pageView struct {
	Title     string
	Demo      bool
	Base      string
	LoadError string
	Duration  string

	Month     calendar.MonthGrid
	HasDate   bool
	DateLabel string
	DateValue string
	Periods   []periodView

	Session    booking.Snapshot
	SlotLabel  string
	Submitting bool
	Succeeded  bool
	Failed     bool
	Refresh    int
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	metrics.IncHTTP("demo_page")
	s.renderPage(w, r, s.demoSource())
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("page")
	s.renderPage(w, r, s.source(r))
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, src source) {
	profileID := src.profileID
	sess := s.session(w, r, src, profileID)
	snap := sess.Snapshot()

	view := pageView{
		Title:   "Book a meeting",
		Demo:    src.demo,
		Base:    src.base,
		Session: snap,
	}

	mt, err := src.loader.FetchMeetingType(r.Context(), profileID)
	if err != nil {
		view.LoadError = profile.LoadFailedMessage
		s.render(w, http.StatusBadGateway, view)
		return
	}
	if mt.Subject != "" {
		view.Title = mt.Subject
	}
	view.Duration = slots.FormatDuration(mt.DurationMinutes)

	sel := calendar.NewSelector(mt.Slots, s.loc)
	q := r.URL.Query()
	if d, err := model.ParseDate(q.Get("date")); err == nil {
		sel.SelectDate(d)
	}
	if _, ok := sel.CurrentSelection(); !ok && snap.SelectedSlot != nil {
		sel.SelectDate(model.DateOf(snap.SelectedSlot.Start, s.loc))
	}

	today := model.DateOf(s.now(), s.loc)
	month := calendar.MonthRef{Year: today.Year, Month: today.Month}
	if d, ok := sel.CurrentSelection(); ok {
		month = calendar.MonthRef{Year: d.Year, Month: d.Month}
	} else if d, ok := sel.FirstAvailable(); ok {
		month = calendar.MonthRef{Year: d.Year, Month: d.Month}
	}
	if m, err := calendar.ParseMonth(q.Get("month")); err == nil {
		month = m
	}
	view.Month = sel.Month(month.Year, month.Month, today)

	if d, ok := sel.CurrentSelection(); ok {
		view.HasDate = true
		view.DateValue = d.String()
		view.DateLabel = d.Time(s.loc).Format("Monday, January 2")
		view.Periods = s.periods(sel.Slots(), snap.SelectedSlot)
	}

	if snap.SelectedSlot != nil {
		view.SlotLabel = snap.SelectedSlot.Start.In(s.loc).Format("Mon, Jan 2 15:04")
	}
	switch snap.Phase {
	case booking.PhaseSubmitting:
		view.Submitting = true
		view.Refresh = 1
	case booking.PhaseSucceeded:
		view.Succeeded = true
		view.Refresh = int(math.Ceil(s.resetDelay.Seconds()))
	case booking.PhaseFailed:
		view.Failed = true
	}

	s.render(w, http.StatusOK, view)
}

func (s *Server) periods(b slots.Buckets, selected *model.Slot) []periodView {
	groups := []struct {
		label string
		items []model.Slot
	}{
		{"Morning", b.Morning},
		{"Afternoon", b.Afternoon},
		{"Evening", b.Evening},
	}
	var out []periodView
	for _, g := range groups {
		if len(g.items) == 0 {
			continue
		}
		p := periodView{Label: g.label}
		for _, slot := range g.items {
			p.Slots = append(p.Slots, slotView{
				Start:    slot.Start.Format(time.RFC3339),
				Label:    slot.Start.In(s.loc).Format("15:04"),
				Selected: selected != nil && selected.Equal(slot),
			})
		}
		out = append(out, p)
	}
	return out
}

func (s *Server) render(w http.ResponseWriter, status int, view pageView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, view); err != nil {
		s.logger.Error().Err(err).Msg("render page")
	}
}

func (s *Server) handleSelectSlot(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("select_slot")
	src := s.source(r)
	profileID := src.profileID

	start, err := time.Parse(time.RFC3339, r.FormValue("start"))
	if err != nil {
		http.Error(w, "invalid slot", http.StatusBadRequest)
		return
	}
	mt, err := src.loader.FetchMeetingType(r.Context(), profileID)
	if err != nil {
		s.redirect(w, r, src, model.Date{})
		return
	}
	slot, ok := mt.FindSlot(start)
	if !ok {
		http.Error(w, "slot is no longer available", http.StatusConflict)
		return
	}

	sess := s.session(w, r, src, profileID)
	if err := sess.SelectSlot(slot); err != nil {
		s.logger.Debug().Err(err).Str("session", sess.ID).Msg("select slot ignored")
	}
	s.redirect(w, r, src, model.DateOf(slot.Start, s.loc))
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("book")
	src := s.source(r)
	profileID := src.profileID
	sess := s.session(w, r, src, profileID)

	var date model.Date
	if snap := sess.Snapshot(); snap.SelectedSlot != nil {
		date = model.DateOf(snap.SelectedSlot.Start, s.loc)
	}

	if !s.limiter.allow(clientIP(r), s.now()) {
		http.Error(w, "too many booking attempts, try again later", http.StatusTooManyRequests)
		return
	}

	// The booking continues if the visitor goes away.
	done, err := sess.BeginSubmission(context.WithoutCancel(r.Context()), r.FormValue("name"), r.FormValue("email"))
	switch {
	case errors.Is(err, booking.ErrIncomplete):
		// The form stays open until both fields are filled in.
	case err != nil:
		s.logger.Debug().Err(err).Str("session", sess.ID).Msg("submit ignored")
	default:
		select {
		case <-done:
		case <-r.Context().Done():
			return
		}
	}
	s.redirect(w, r, src, date)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cancel")
	src := s.source(r)
	profileID := src.profileID
	if c, err := r.Cookie(src.cookie); err == nil {
		if sess := src.store.Get(c.Value, profileID); sess != nil {
			sess.Reset()
		}
	}
	date, _ := model.ParseDate(r.FormValue("date"))
	s.redirect(w, r, src, date)
}

// session returns the visitor's session for profileID, issuing a cookie for new ones.
func (s *Server) session(w http.ResponseWriter, r *http.Request, src source, profileID string) *booking.Session {
	id := ""
	if c, err := r.Cookie(src.cookie); err == nil && src.store.Has(c.Value) {
		id = c.Value
	}
	sess := src.store.GetOrCreate(id, profileID)
	if sess.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     src.cookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, src source, date model.Date) {
	target := src.base
	if !date.IsZero() {
		q := url.Values{}
		q.Set("date", date.String())
		q.Set("month", calendar.MonthRef{Year: date.Year, Month: date.Month}.String())
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
