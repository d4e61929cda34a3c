// Package server exposes an item store over HTTP with gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/idilsaglam/royaltodo/internal/logging"
	"github.com/idilsaglam/royaltodo/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Options configures the API server.
type Options struct {
	// JWTSecret enables HS256 bearer auth on /api when set.
	JWTSecret string
	// Limiter throttles /api per client IP. Nil disables it.
	Limiter *RateLimiter
	Logger  *log.Logger
}

// Server serves the item-store API.
type Server struct {
	store  store.ItemStore
	log    *log.Logger
	engine *gin.Engine
}

// New builds the gin engine and registers routes.
func New(s store.ItemStore, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	srv := &Server{store: s, log: opts.Logger}

	r := gin.New()
	r.Use(gin.Recovery(), srv.accessLog(), Metrics())

	r.GET("/healthz", srv.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	if opts.Limiter != nil {
		api.Use(opts.Limiter.Middleware())
	}
	if opts.JWTSecret != "" {
		api.Use(RequireJWT([]byte(opts.JWTSecret)))
	}
	api.GET("/items", srv.listItems)
	api.POST("/items", srv.createItem)
	api.PATCH("/items/:id", srv.updateItem)

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "route not found")
	})

	srv.engine = r
	return srv
}

// Handler returns the http.Handler, mostly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server started", "addr", addr)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(sctx); err != nil {
		return err
	}
	s.log.Info("server exited")
	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"dur", time.Since(start).Round(time.Microsecond),
		)
	}
}
