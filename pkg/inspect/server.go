// Package inspect serves an HTTP view of a running router: its current
// state and route table, URL parsing, navigation, a live event stream over
// WebSocket and Prometheus metrics.
//
// Endpoints:
//
//	GET  /state              current router state
//	GET  /config             route table as YAML
//	GET  /parse?url=...      parsed URL tree
//	GET  /active?url=...     whether a URL is active (exact=true for exact)
//	POST /navigate           {"url": "..."}; waits for the result
//	GET  /events             WebSocket stream of router events
//	GET  /metrics            Prometheus metrics
package inspect

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/nav/pkg/router"
	"github.com/vango-dev/nav/pkg/routetable"
)

// DefaultNavigateTimeout bounds how long POST /navigate waits.
const DefaultNavigateTimeout = 10 * time.Second

// Server is the inspector.
type Server struct {
	router          *router.Router
	gatherer        prometheus.Gatherer
	log             *slog.Logger
	navigateTimeout time.Duration
	checkOrigin     func(*http.Request) bool

	hub         *hub
	mux         chi.Router
	unsubscribe func()
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer sets the metrics source for /metrics. Without one the
// endpoint is not mounted.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithNavigateTimeout bounds how long POST /navigate waits for a result.
func WithNavigateTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.navigateTimeout = d
	}
}

// WithCheckOrigin sets the WebSocket origin check. The default accepts
// same-origin requests only.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(s *Server) {
		s.checkOrigin = fn
	}
}

// New creates an inspector for r and subscribes to its events.
func New(r *router.Router, opts ...Option) *Server {
	s := &Server{
		router:          r,
		log:             slog.Default().With("component", "inspect"),
		navigateTimeout: DefaultNavigateTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hub = newHub(s.log, s.checkOrigin)
	s.unsubscribe = r.Subscribe(s.hub.observe)
	s.mux = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)

	mux.Get("/state", s.handleState)
	mux.Get("/config", s.handleConfig)
	mux.Get("/parse", s.handleParse)
	mux.Get("/active", s.handleActive)
	mux.Post("/navigate", s.handleNavigate)
	mux.Get("/events", s.hub.handle)
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Clients returns the number of connected event stream clients.
func (s *Server) Clients() int {
	return s.hub.count()
}

// Close unsubscribes from the router and disconnects stream clients.
func (s *Server) Close() {
	s.unsubscribe()
	s.hub.closeAll()
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stateJSON(s.router))
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	data, err := routetable.Marshal(routetable.FromRoutes(s.router.Config()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	t, err := s.router.ParseURL(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, treeJSON(raw, t, s.router.SerializeURL(t)))
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	exact, _ := strconv.ParseBool(q.Get("exact"))
	t, err := s.router.ParseURL(q.Get("url"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": s.router.IsActiveTree(t, exact)})
}

// NavigateRequest is the body of POST /navigate.
type NavigateRequest struct {
	URL     string `json:"url"`
	Replace bool   `json:"replace,omitempty"`
}

// NavigateResponse is the result of POST /navigate.
type NavigateResponse struct {
	ID        int64      `json:"id"`
	Navigated bool       `json:"navigated"`
	URL       string     `json:"url"`
	Error     *ErrorJSON `json:"error,omitempty"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var opts []router.NavigateOption
	if req.Replace {
		opts = append(opts, router.WithReplace())
	}
	nav := s.router.NavigateByURL(req.URL, opts...)

	ctx, cancel := context.WithTimeout(r.Context(), s.navigateTimeout)
	defer cancel()
	ok, err := nav.Wait(ctx)
	if ctx.Err() != nil {
		writeError(w, http.StatusGatewayTimeout, ctx.Err())
		return
	}

	resp := NavigateResponse{ID: nav.ID(), Navigated: ok, URL: s.router.URL()}
	if err != nil {
		e := errorJSON(err)
		resp.Error = &e
	}
	s.log.Info("navigation requested", "url", req.URL, "navigated", ok)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorJSON(err))
}
