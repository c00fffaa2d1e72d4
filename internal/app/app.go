// Package app wires the service together: clients, core components, gin
// router and the HTTP server lifecycle.
package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/qadash/qa_dashboard_REST_server/internal/clients/backend"
	"github.com/qadash/qa_dashboard_REST_server/internal/clients/ci"
	"github.com/qadash/qa_dashboard_REST_server/internal/config"
	"github.com/qadash/qa_dashboard_REST_server/internal/metrics"
	"github.com/qadash/qa_dashboard_REST_server/internal/reconcile"
	"github.com/qadash/qa_dashboard_REST_server/internal/rerun"
	"github.com/qadash/qa_dashboard_REST_server/internal/rest/handlers"
	"github.com/qadash/qa_dashboard_REST_server/internal/session"
)

type App struct {
	cfg    *config.Config
	log    *logrus.Logger
	server *http.Server

	// Done closes once the server has shut down.
	Done chan struct{}
}

func New(cfg *config.Config, log *logrus.Logger) (*App, error) {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	backendClient := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, log)
	ciClient := ci.New(cfg.CI.BaseURL, cfg.CI.Timeout, log)

	sessions := session.New(backendClient, cfg.Session.CacheTTL, log)
	rerunMetrics := metrics.NewRerun(prometheus.DefaultRegisterer)
	orchestrator := rerun.New(ciClient, rerun.Config{
		PollInterval: cfg.Rerun.PollInterval,
		MaxWait:      cfg.Rerun.MaxWait,
	}, rerunMetrics, log)
	reconciler := reconcile.New(sessions, log)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	handlers.NewAuthHandler(sessions, backendClient, log).EnrichRoutes(router)
	handlers.NewSuitesHandler(backendClient, sessions, sessions, log).EnrichRoutes(router)
	handlers.NewRerunHandler(orchestrator, reconciler, sessions, sessions, log).EnrichRoutes(router)
	handlers.NewDefectsHandler(backendClient, reconciler, sessions, sessions, sessions, log).EnrichRoutes(router)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &App{
		cfg: cfg,
		log: log,
		server: &http.Server{
			Addr:    cfg.Address,
			Handler: router,
		},
		Done: make(chan struct{}),
	}, nil
}

// Run starts the HTTP server and shuts it down on SIGINT/SIGTERM.
func (a *App) Run() {
	go func() {
		a.log.WithField("address", a.cfg.Address).Info("HTTP server listening")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop

		a.log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			a.log.WithError(err).Error("shutdown failed")
		}
		close(a.Done)
	}()
}
