package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/preston-bernstein/fixture-calendar-service/internal/config"
	httpserver "github.com/preston-bernstein/fixture-calendar-service/internal/http"
	"github.com/preston-bernstein/fixture-calendar-service/internal/http/handlers"
	"github.com/preston-bernstein/fixture-calendar-service/internal/http/middleware"
	"github.com/preston-bernstein/fixture-calendar-service/internal/logging"
	"github.com/preston-bernstein/fixture-calendar-service/internal/metrics"
)

var metricsSetup = metrics.Setup

type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	components    *Components
	httpServer    httpServer
	metricsServer httpServer
	scheduler     Scheduler
	metricsStop   func(context.Context) error
}

// New constructs a server with storage, calendar backend and scheduler wired from cfg.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	return newServerWithMetrics(ctx, cfg, logger, nil)
}

func newServerWithMetrics(ctx context.Context, cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*Server, error) {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)

	comps, err := BuildComponents(ctx, cfg, logger, recorder)
	if err != nil {
		if metricsShutdown != nil {
			err = errors.Join(err, metricsShutdown(context.Background()))
		}
		return nil, err
	}

	httpSrv := buildHTTPServer(cfg, logger, recorder, comps.Scheduler, comps.Feeds)
	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		components:    comps,
		httpServer:    httpSrv,
		metricsServer: metricsSrv,
		scheduler:     comps.Scheduler,
		metricsStop:   metricsShutdown,
	}, nil
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, httpSrv httpServer, sched Scheduler) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpSrv,
		scheduler:  sched,
	}
}

func buildHTTPServer(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder, sched Scheduler, feeds handlers.FeedExporter) httpServer {
	var status handlers.StatusSource
	var syncer handlers.Syncer
	if sched != nil {
		status, syncer = sched, sched
	}
	handler := handlers.NewHandler(status, feeds, logger)

	var admin *handlers.AdminHandler
	if cfg.AdminToken != "" {
		admin = handlers.NewAdminHandler(syncer, cfg.AdminToken, logger)
	}
	router := httpserver.NewRouter(handler, admin)
	wrapped := middleware.LoggingMiddleware(logger, recorder, router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      wrapped,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return netHTTPServer{srv: srv}
}

// Run starts the scheduler and HTTP server, then waits for context cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)
	if s.scheduler != nil {
		s.scheduler.Start(ctx)
	}

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	logging.Info(s.logger, "http server starting", slog.String("addr", s.httpServer.Addr()))
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	logging.Info(s.logger, "metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	if s.scheduler != nil {
		if err := s.scheduler.Stop(shutdownCtx); err != nil {
			logging.Error(s.logger, "failed to stop scheduler", err)
		}
	}

	if err := s.components.Close(); err != nil {
		logging.Error(s.logger, "failed to close game store", err)
	}

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "err", err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "err", err)
		}
	}

	logging.Info(s.logger, "shutdown complete")
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "err", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)
		metricsSrv = netHTTPServer{
			srv: &http.Server{
				Addr:              ":" + recCfg.Port,
				Handler:           mux,
				ReadHeaderTimeout: readTimeout,
			},
		}
	}

	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn(logger, name+" server failed", "err", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
