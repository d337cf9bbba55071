// Package web serves the registration, check-in and admin pages.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"juventud/internal/adapters/http/middleware"
	"juventud/internal/adapters/http/perf"
	auditStore "juventud/internal/adapters/storage/audit"
	outboxStore "juventud/internal/adapters/storage/outbox"
	"juventud/internal/application/orchestrators"
	"juventud/internal/application/projections"
	"juventud/internal/domain/actividad"
)

// DefaultRateLimitPerSecond is the per-IP request budget when Options leaves it zero.
const DefaultRateLimitPerSecond = 10

// Backend is the remote Persona/Actividad API as the pages use it.
type Backend interface {
	orchestrators.PersonaCreator
	orchestrators.PersonaFinder
	orchestrators.AttendanceRecorder
	orchestrators.ActividadCreator
	projections.ActividadLister
}

// TodayResolver yields the activity for the current local date.
type TodayResolver interface {
	Now() time.Time
	Today(ctx context.Context) (actividad.Actividad, bool, error)
	Forget(date string)
}

// Options configures a Server. Backend, Today and CSRFKey are required.
type Options struct {
	Backend Backend
	Today   TodayResolver
	// CheckInDay is the weekday the check-in dialog is offered; zero value is Sunday
	CheckInDay time.Weekday
	// AdminPath is the unlisted admin prefix, e.g. "/panel-juventud"
	AdminPath string
	// AdminPassphraseHash is a bcrypt hash; empty leaves the admin panel ungated
	AdminPassphraseHash string
	CSRFKey             []byte
	Secure              bool
	TrustedOrigins      []string

	// Outbox and Processor are optional; without them no welcome email is queued
	// and the outbox admin page answers 404
	Outbox    outboxStore.Store
	Processor *orchestrators.OutboxProcessor
	// Audit is optional; without it admin actions are only logged
	Audit auditStore.Store

	Collector *perf.Collector
	// Gatherer backs /metrics; nil uses prometheus.DefaultGatherer
	Gatherer           prometheus.Gatherer
	RateLimitPerSecond int
	// Stop ends background goroutines started by the server
	Stop <-chan struct{}

	Now        func() time.Time
	GenerateID func() string
}

// Server holds the parsed templates and per-process admin sessions.
type Server struct {
	opts      Options
	templates map[string]*template.Template
	sessions  *middleware.SessionStore
}

// New validates opts and parses the templates.
// PRE: opts.Backend, opts.Today non-nil; opts.CSRFKey is 32 bytes
// POST: Returns a ready Server or the first configuration error
func New(opts Options) (*Server, error) {
	if opts.Backend == nil {
		return nil, errors.New("web: backend is required")
	}
	if opts.Today == nil {
		return nil, errors.New("web: today resolver is required")
	}
	if len(opts.CSRFKey) != 32 {
		return nil, fmt.Errorf("web: csrf key must be 32 bytes, got %d", len(opts.CSRFKey))
	}
	opts.AdminPath = "/" + strings.Trim(opts.AdminPath, "/")
	if opts.AdminPath == "/" {
		return nil, errors.New("web: admin path is required")
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.RateLimitPerSecond <= 0 {
		opts.RateLimitPerSecond = DefaultRateLimitPerSecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.GenerateID == nil {
		opts.GenerateID = generateID
	}

	tpls, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Server{
		opts:      opts,
		templates: tpls,
		sessions:  middleware.NewSessionStore(),
	}, nil
}

func generateID() string {
	return uuid.New().String()
}

// gateEnabled reports whether admin pages need a login.
func (s *Server) gateEnabled() bool {
	return s.opts.AdminPassphraseHash != ""
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := s.routes()
	limiter := middleware.NewRateLimiter(s.opts.RateLimitPerSecond, time.Second, s.opts.Stop)

	// Timing -> RateLimit -> CSRF -> SecurityHeaders -> mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(s.opts.CSRFKey, middleware.CSRFOptions{
			Secure:         s.opts.Secure,
			TrustedOrigins: s.opts.TrustedOrigins,
		}),
		middleware.RateLimit(limiter),
		middleware.Timing(s.opts.Collector, middleware.TimingOptions{}),
	)
}

// routes builds the mux without middleware.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /static/", staticFiles())
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /registro", s.handleRegistroForm)
	mux.HandleFunc("POST /registro", s.handleRegistro)
	mux.HandleFunc("POST /asistencia", s.handleAsistencia)

	p := s.opts.AdminPath
	gate := middleware.AdminGate(s.sessions, s.gateEnabled(), p+"/login")
	admin := func(pattern string, h http.HandlerFunc) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.Handle(method+" "+p+path, gate(h))
	}

	mux.HandleFunc("GET "+p+"/login", s.handleAdminLoginForm)
	mux.HandleFunc("POST "+p+"/login", s.handleAdminLogin)
	mux.HandleFunc("POST "+p+"/logout", s.handleAdminLogout)

	admin("GET /{$}", s.handleAdminIndex)
	admin("GET /personas", s.handleAdminPersonas)
	admin("GET /actividades", s.handleAdminActividades)
	admin("POST /actividades", s.handleAdminCreateActividad)
	admin("GET /perf", s.handleAdminPerf)
	admin("GET /outbox", s.handleAdminOutbox)
	admin("POST /outbox/{id}/{action}", s.handleAdminOutboxAction)
	admin("GET /auditoria", s.handleAdminAudit)
	mux.Handle("GET "+p, http.RedirectHandler(p+"/", http.StatusMovedPermanently))
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
