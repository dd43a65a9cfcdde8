package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/event-auth-server/auth"
	"github.com/jrsteele09/event-auth-server/internal/config"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env     string // Environment (e.g., "DEV", "production")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	auth    *auth.AuthService
	repos   auth.Repos
	limiter *ipRateLimiter
	nowTime func() time.Time
}

type ServerOption func(*Server)

// WithNowTime sets the clock used for status timestamps and rate limiter housekeeping
func WithNowTime(nowFunc func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(ctx context.Context, config config.Config, repos auth.Repos, authService *auth.AuthService, options ...ServerOption) (*Server, error) {
	if authService == nil {
		return nil, fmt.Errorf("[Server New] auth service is required")
	}

	s := &Server{
		env:     config.GetEnv(),
		mux:     http.NewServeMux(),
		config:  config,
		repos:   repos,
		auth:    authService,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}

	if config.GetEnableRateLimiting() {
		s.limiter = newIPRateLimiter(config.GetRateLimit(), config.GetRateLimitBurst(), s.nowTime)
	}

	if len(config.GetAllowedOrigins()) == 0 {
		log.Warn().Msg("CORS_ORIGINS is empty, every cross-origin request will be rejected")
	}

	// Bootstrap: ensure the configured admin account exists
	if err := s.InitialiseSystem(ctx); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run removes idle rate limiter entries every interval until ctx is done
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	if s.limiter == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Cleanup(interval)
		}
	}
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%s] %s", colourMethod(method), path)
}
