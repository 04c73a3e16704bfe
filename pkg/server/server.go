// Package server exposes the ingestion and catalog components over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/modelshelf/modelshelf/pkg"
	"github.com/modelshelf/modelshelf/pkg/catalog"
	"github.com/modelshelf/modelshelf/pkg/ingest"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/messages"
	"github.com/modelshelf/modelshelf/pkg/metrics"
	"github.com/modelshelf/modelshelf/pkg/store"
)

const (
	// MaxMemory is the part of a multipart form kept in memory; the rest is
	// spooled to temporary files.
	MaxMemory = 32 << 20

	// AssetsPrefix is the URL prefix under which stored files are served.
	AssetsPrefix = "/uploads"
)

// Options configures the HTTP surface.
type Options struct {
	Addr           string
	AllowedOrigins []string
	TrustedProxies []string
	MaxFileSize    int64
	MaxTextures    int
	Debug          bool
}

// Server wires the routes to the store-backed components.
type Server struct {
	opts     Options
	engine   *gin.Engine
	store    *store.Store
	ingestor *ingest.Ingestor
	catalog  *catalog.Reader
	metrics  *metrics.RouteMetrics
	logger   *logging.Logger
}

// New builds the gin engine and registers every route.
func New(st *store.Store, opts Options, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		opts:  opts,
		store: st,
		ingestor: ingest.New(st, ingest.Options{
			MaxTextures: opts.MaxTextures,
			MaxFileSize: opts.MaxFileSize,
		}, logger),
		catalog: catalog.NewReader(st, logger),
		metrics: metrics.NewRouteMetrics(),
		logger:  logger.With("component", "server"),
	}

	engine := gin.New()
	engine.MaxMultipartMemory = MaxMemory
	engine.HandleMethodNotAllowed = true

	if len(opts.TrustedProxies) > 0 {
		engine.ForwardedByClientIP = true
		if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
			return nil, errors.Join(errors.New(messages.ErrTrustedProxiesBad), err)
		}
		s.logger.Info(messages.MsgTrustedProxiesSet, "proxies", opts.TrustedProxies)
	} else if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	engine.Use(s.requestLogger())
	engine.Use(s.recovery())
	engine.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	s.engine = engine
	s.setupRoutes()
	return s, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept", RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        pkg.DefaultMaxAge,
	}

	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func (s *Server) setupRoutes() {
	s.engine.POST("/upload", s.handleUpload)
	s.engine.GET("/products", s.handleProducts)
	s.engine.GET("/stats", s.handleStats)

	assets := s.assetHandler()
	s.engine.GET(AssetsPrefix+"/*filepath", assets)
	s.engine.HEAD(AssetsPrefix+"/*filepath", assets)

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": messages.RespRouteNotFound})
	})
	s.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": messages.RespMethodNotAllowed})
	})
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Metrics returns the per-route request metrics.
func (s *Server) Metrics() *metrics.RouteMetrics {
	return s.metrics
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: pkg.DefaultHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(messages.MsgServerStarting, "addr", s.opts.Addr, "store", s.store.Root())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			s.logger.Error(messages.ErrServerStartFailed, "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info(messages.MsgServerStopping)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), pkg.DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info(messages.MsgServerStopped)
	return nil
}
