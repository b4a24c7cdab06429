package http

import (
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/persistence"
	appweb "expensetracker/web"
)

// staticMaxAge is the Cache-Control max-age for embedded assets, in seconds.
const staticMaxAge = 3600

// Window describes how the page presents itself: title and preferred size.
type Window struct {
	Title  string
	Width  int
	Height int
}

// DefaultWindow matches the desktop form this page stands in for.
func DefaultWindow() Window {
	return Window{Title: "Expense Tracker App", Width: 600, Height: 550}
}

type Server struct {
	http.Server
	templates *template.Template
	store     persistence.Collaborator
	window    Window
	logger    *applog.Logger
	registry  *prometheus.Registry
	metrics   *metrics
	now       func() time.Time
	started   time.Time
}

type Option func(*Server)

func WithWindow(w Window) Option {
	return func(s *Server) { s.window = w }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock overrides the date source used for the form's default date.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithTemplates replaces the embedded templates.
func WithTemplates(t *template.Template) Option {
	return func(s *Server) { s.templates = t }
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
// Every request builds its own form over store, so store must be safe for
// concurrent use.
func NewServer(addr string, store persistence.Collaborator, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		store:    store,
		window:   DefaultWindow(),
		registry: prometheus.NewRegistry(),
		now:      time.Now,
		started:  time.Now(),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	s.templates = t

	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applog.New(applog.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(applog.ComponentHTTP)
	if err != nil && s.templates == nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = newMetrics(s.registry)

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /expenses", s.handleAddExpense)
	mux.HandleFunc("POST /expenses/delete", s.handleDeleteExpense)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(extractClientIP, s.metrics.observeRequest)

	var h http.Handler = mux
	h = headers.Middleware(h)
	h = tracer.Middleware(h)
	h = applog.RequestIDMiddleware(h)
	h = applog.Middleware(s.logger)(h)
	s.Handler = h

	return s
}

// Registry exposes the server's metrics registry.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}
