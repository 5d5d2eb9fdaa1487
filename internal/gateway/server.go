package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tinygate/internal/auth"
	"tinygate/pkg/config"
	"tinygate/pkg/logger"
	"tinygate/pkg/middleware"
)

// Server owns the HTTP surface of the gateway: the login and identity
// endpoints plus the catch-all proxy handler.
type Server struct {
	cfg    config.Config
	log    logger.Sugared
	store  *Store
	tokens *auth.Codec
}

func NewServer(cfg config.Config, log logger.Sugared, store *Store) *Server {
	return &Server{
		cfg:    cfg,
		log:    log,
		store:  store,
		tokens: auth.NewCodec(cfg.SecretKey, cfg.TokenTTL),
	}
}

// Store exposes the snapshot handle for reloads.
func (s *Server) Store() *Store { return s.store }

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(s.log))
	r.Use(middleware.Tracing("tinygate"))
	r.Use(middleware.Metrics())

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/test_login", s.handleLoginPage)
	r.Post("/api/v1/auth/login", s.handleLogin)
	r.Get("/api/v1/users/me", s.handleMe)

	// Everything else is a proxied request.
	proxy := NewProxyHandler(NewAuthorizer(s.store, s.tokens), s.log)
	r.NotFound(proxy.ServeHTTP)
	r.MethodNotAllowed(proxy.ServeHTTP)

	return r
}
