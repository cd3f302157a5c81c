package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-console/guard"
	"github.com/jrsteele09/go-auth-console/internal/config"
	"github.com/jrsteele09/go-auth-console/server/loginsession"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	fileServer http.Handler
	config     config.Config
	guard      *guard.Classification
	workspaces loginsession.Repo
	builder    loginsession.Builder
	pages      map[string]*page
	csp        string
	logger     zerolog.Logger
}

type Option func(*Server)

// WithClassification replaces the default route classification
func WithClassification(c *guard.Classification) Option {
	return func(s *Server) { s.guard = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func New(config config.Config, workspaces loginsession.Repo, builder loginsession.Builder, opts ...Option) (*Server, error) {
	if workspaces == nil {
		return nil, fmt.Errorf("[Server New] workspace repo is required")
	}

	s := &Server{
		env:        config.GetEnv(),
		mux:        http.NewServeMux(),
		config:     config,
		workspaces: workspaces,
		builder:    builder,
		fileServer: FileServerHandler(),
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.guard == nil {
		c, err := guard.NewClassification(guard.DefaultRoutes())
		if err != nil {
			return nil, fmt.Errorf("[Server New] route classification: %w", err)
		}
		s.guard = c
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}
	s.pages = pages
	s.csp = contentSecurityPolicy(config)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// EvictIdleWorkspaces drops in-memory workspaces not used within idle
func (s *Server) EvictIdleWorkspaces(idle time.Duration) int {
	return s.workspaces.EvictIdle(time.Now().Add(-idle))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	s.logger.Info().Msgf("[%s] %s", displayMethod(method), path)
}

func displayMethod(method string) string {
	colour, ok := methodColors[method]
	if !ok {
		colour = Gray
	}
	return colourise(colour, fmt.Sprintf(" %-7s", method))
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
