// Package web serves the booking widget pages and its JSON API.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/booking"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/gateway"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/journal"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
)

// DemoProfile is the profile id of demo sessions. Demo mode has its own
// routes, so a real profile may carry the same name.
const DemoProfile = "demo"

// demoBase prefixes the demo page and its form actions.
const demoBase = "/_demo"

const (
	sessionCookie     = "booking_session"
	demoSessionCookie = "booking_demo_session"
)

// MeetingLoader loads a profile's meeting type.
type MeetingLoader interface {
	FetchMeetingType(ctx context.Context, profileID string) (*model.MeetingType, error)
}

// AttemptLister reads the booking attempt journal.
type AttemptLister interface {
	List(ctx context.Context, since time.Time, status string) ([]journal.Entry, error)
}

// Deps are the collaborators of the server. Journal may be nil.
type Deps struct {
	Loader    MeetingLoader
	Submitter booking.Submitter
	Journal   AttemptLister

	Location            *time.Location
	SessionTimeout      time.Duration
	ResetDelay          time.Duration
	SubmitRatePerMinute int
	AdminKey            string

	Logger *zerolog.Logger
	Now    func() time.Time
}

// Server holds the widget handlers.
type Server struct {
	loader     MeetingLoader
	demo       *demoLoader
	sessions   *booking.Store
	demoStore  *booking.Store
	journal    AttemptLister
	limiter    *rateLimiter
	adminKey   string
	loc        *time.Location
	resetDelay time.Duration
	logger     *zerolog.Logger
	now        func() time.Time
	mux        *http.ServeMux
}

// NewServer wires the handlers.
func NewServer(d Deps) *Server {
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		nop := zerolog.Nop()
		d.Logger = &nop
	}
	if d.ResetDelay <= 0 {
		d.ResetDelay = booking.DefaultResetDelay
	}
	opts := booking.Options{ResetDelay: d.ResetDelay, Now: d.Now}

	s := &Server{
		loader:     d.Loader,
		demo:       newDemoLoader(d.Location, d.Now),
		sessions:   booking.NewStore(d.Submitter, d.SessionTimeout, opts),
		demoStore:  booking.NewStore(gateway.NewDemo(d.Logger), d.SessionTimeout, opts),
		journal:    d.Journal,
		limiter:    newRateLimiter(d.SubmitRatePerMinute),
		adminKey:   d.AdminKey,
		loc:        d.Location,
		resetDelay: d.ResetDelay,
		logger:     d.Logger,
		now:        d.Now,
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/profiles/{profile}/meeting", s.handleMeetingAPI)
	s.mux.HandleFunc("GET /api/profiles/{profile}/slots", s.handleSlotsAPI)
	s.mux.HandleFunc("POST /api/profiles/{profile}/bookings", s.handleBookingAPI)
	s.mux.HandleFunc("GET /api/demo/meeting", s.handleMeetingAPI)
	s.mux.HandleFunc("GET /api/demo/slots", s.handleSlotsAPI)
	s.mux.HandleFunc("POST /api/demo/bookings", s.handleBookingAPI)
	s.mux.HandleFunc("GET /admin/attempts.xlsx", s.handleAttemptsExport)

	s.mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s.mux.HandleFunc("GET /{profile}", s.handlePage)
	s.mux.HandleFunc("POST /{profile}/slot", s.handleSelectSlot)
	s.mux.HandleFunc("POST /{profile}/book", s.handleBook)
	s.mux.HandleFunc("POST /{profile}/cancel", s.handleCancel)
	s.mux.HandleFunc("GET "+demoBase, s.handleDemo)
	s.mux.HandleFunc("POST "+demoBase+"/slot", s.handleSelectSlot)
	s.mux.HandleFunc("POST "+demoBase+"/book", s.handleBook)
	s.mux.HandleFunc("POST "+demoBase+"/cancel", s.handleCancel)
	s.mux.HandleFunc("/", s.handleDemo)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Cleanup drops idle sessions and limiter state.
func (s *Server) Cleanup() int {
	removed := s.sessions.Cleanup() + s.demoStore.Cleanup()
	s.limiter.prune(s.now())
	return removed
}

// Run serves on port until ctx is cancelled.
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	s.logger.Info().Int("port", port).Msg("widget server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// source is where a profile's meeting type and sessions come from.
type source struct {
	profileID string
	base      string
	demo      bool
	loader    MeetingLoader
	store     *booking.Store
	cookie    string
}

// source resolves the {profile} of r. Demo routes carry no profile.
func (s *Server) source(r *http.Request) source {
	profileID := r.PathValue("profile")
	if profileID == "" {
		return s.demoSource()
	}
	return source{
		profileID: profileID,
		base:      "/" + url.PathEscape(profileID),
		loader:    s.loader,
		store:     s.sessions,
		cookie:    sessionCookie,
	}
}

func (s *Server) demoSource() source {
	return source{
		profileID: DemoProfile,
		base:      demoBase,
		demo:      true,
		loader:    s.demo,
		store:     s.demoStore,
		cookie:    demoSessionCookie,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
