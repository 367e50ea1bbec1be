// Package admin serves the read-mostly HTTP surface of a running tssctl:
// health, prometheus metrics, connection status, the shared state snapshot,
// and the ingress procedure view with simulator controls.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/tssctl/internal/auth"
	"github.com/danmuck/tssctl/internal/ingress"
	"github.com/danmuck/tssctl/internal/node"
	"github.com/danmuck/tssctl/internal/observability"
	"github.com/danmuck/tssctl/internal/protocol/session"
	"github.com/danmuck/tssctl/internal/simulator"
	"github.com/danmuck/tssctl/internal/telemetry"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	version         = "0.1.0"
	shutdownTimeout = 5 * time.Second
)

// StatusSource reports TSS connection status.
type StatusSource interface {
	Info() session.Info
}

// Stepper moves the simulated procedure cursor.
type Stepper interface {
	Next() ingress.Cursor
	Prev() ingress.Cursor
	Status() string
}

type Options struct {
	Name        string
	Addr        string
	CorsOrigins []string
	// Token guards the simulator controls when set.
	Token   string
	Store   *telemetry.Store
	Tracker *ingress.Tracker
	// Client is nil when the simulator is the source.
	Client StatusSource
	// Simulator is nil when TSS is the source.
	Simulator Stepper
}

type Server struct {
	name      string
	addr      string
	store     *telemetry.Store
	tracker   *ingress.Tracker
	client    StatusSource
	simulator Stepper
	guard     auth.Validator
	started   time.Time
	router    *gin.Engine
}

var _ node.Node = (*Server)(nil)

func New(opts Options) *Server {
	observability.RegisterMetrics()
	if opts.Name == "" {
		opts.Name = "tssctl"
	}
	if opts.Store == nil {
		opts.Store = telemetry.NewStore()
	}
	if opts.Tracker == nil {
		opts.Tracker = ingress.NewTracker(nil, nil)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(opts.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(opts.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		name:      opts.Name,
		addr:      opts.Addr,
		store:     opts.Store,
		tracker:   opts.Tracker,
		client:    opts.Client,
		simulator: opts.Simulator,
		started:   time.Now(),
		router:    r,
	}
	if opts.Token != "" {
		s.guard = auth.StaticToken{Token: opts.Token}
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) NodeID() string {
	return s.name
}

func (s *Server) Kind() string {
	return "tssctl"
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"node":    s.name,
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/status", func(c *gin.Context) {
		body := gin.H{"source": s.source()}
		if s.client != nil {
			body["connection"] = s.client.Info()
		}
		if s.simulator != nil {
			body["simulator"] = s.simulator.Status()
		}
		c.JSON(http.StatusOK, body)
	})

	s.router.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.store.Snapshot())
	})

	s.router.GET("/ingress", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.ingressView())
	})

	controls := s.router.Group("/ingress", auth.Require(s.guard))
	controls.POST("/next", func(c *gin.Context) {
		s.step(c, Stepper.Next)
	})
	controls.POST("/prev", func(c *gin.Context) {
		s.step(c, Stepper.Prev)
	})
}

func (s *Server) step(c *gin.Context, move func(Stepper) ingress.Cursor) {
	if s.simulator == nil {
		c.JSON(http.StatusConflict, gin.H{"error": simulator.ErrNotSimulated.Error()})
		return
	}
	cursor := move(s.simulator)
	log.Info().Str("cursor", cursor.String()).Msg("admin.Server simulator step")
	c.JSON(http.StatusOK, s.ingressView())
}

type ingressView struct {
	ingress.Result
	Summary string `json:"summary"`
}

func (s *Server) ingressView() ingressView {
	st := s.store.Snapshot()
	return ingressView{
		Result:  s.tracker.Evaluate(st),
		Summary: ingress.Summary(st),
	}
}

func (s *Server) source() string {
	if s.simulator != nil {
		return "simulator"
	}
	return "tss"
}

// Serve listens on the configured address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("admin.Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
