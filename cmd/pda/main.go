package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pda/internal/bootstrap"
	"github.com/kailas-cloud/pda/internal/config"
	logpkg "github.com/kailas-cloud/pda/internal/logger"
	"github.com/kailas-cloud/pda/internal/metrics"
	"github.com/kailas-cloud/pda/internal/queue"
	reporec "github.com/kailas-cloud/pda/internal/repository/record"
	"github.com/kailas-cloud/pda/internal/scheduler"
	chiTransport "github.com/kailas-cloud/pda/internal/transport/chi"
	exportuc "github.com/kailas-cloud/pda/internal/usecase/export"
	fixuc "github.com/kailas-cloud/pda/internal/usecase/fix"
	healthuc "github.com/kailas-cloud/pda/internal/usecase/health"
	mailmergeuc "github.com/kailas-cloud/pda/internal/usecase/mailmerge"
	notifyuc "github.com/kailas-cloud/pda/internal/usecase/notify"
	recorduc "github.com/kailas-cloud/pda/internal/usecase/record"
	relayuc "github.com/kailas-cloud/pda/internal/usecase/relay"
	searchuc "github.com/kailas-cloud/pda/internal/usecase/search"
	"github.com/kailas-cloud/pda/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, bootstrap.LoggerOptions(cfg.Logging))
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting pda server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("mail_driver", cfg.Mail.Driver),
	)

	// Open the store and wait for it to be ready
	ctx := context.Background()
	store, err := bootstrap.OpenStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database store", zap.Error(err))
	}
	defer store.Close()
	logger.Info("Connected to database")

	sender, err := bootstrap.NewSender(cfg.Mail, logger)
	if err != nil {
		logger.Fatal("Failed to create mailer", zap.Error(err))
	}

	loc := bootstrap.Location(cfg.Notify, logger)

	// Repositories and queue share the store
	repo := reporec.New(store, cfg.Storage.KeyPrefix)
	tasks := queue.New(store, cfg.Storage.KeyPrefix, queue.Options{
		Workers:     cfg.Queue.Workers,
		MaxAttempts: cfg.Queue.MaxAttempts,
		PollTimeout: time.Duration(cfg.Queue.PollTimeoutSec) * time.Second,
		Logger:      logger.Named("queue"),
	})

	// Create use case services
	services := chiTransport.Services{
		Records:   recorduc.New(repo),
		Search:    searchuc.New(repo, cfg.Search.BatchSize),
		Notify:    notifyuc.New(repo, tasks, sender, bootstrap.NotifyConfig(cfg, loc), logger.Named("notify")),
		Fix:       fixuc.New(repo, tasks, cfg.Fix.PageSize, logger.Named("fix")),
		MailMerge: mailmergeuc.New(repo),
		Export:    exportuc.New(repo, cfg.App.Name, cfg.App.Origin),
		Relay:     relayuc.New(sender, cfg.Mail.Sender, cfg.Mail.ForwardTo, logger.Named("relay")),
		Health:    healthuc.New(store, tasks),
	}

	server := chiTransport.NewServer(services, chiTransport.Options{
		AppName:      cfg.App.Name,
		ShowInternal: cfg.UI.ShowInternal,
	}, logger)

	app := chi.NewRouter()
	app.Use(metrics.Middleware())
	server.Routes(app)

	// Queue workers call the app directly and skip authentication.
	internal := chi.Chain(
		htmlRecoverer(logger),
		chiMiddleware.RequestID,
		wideEventMiddleware(logger),
	).Handler(app)
	public := chi.Chain(
		htmlRecoverer(logger),
		chiMiddleware.RequestID,
		wideEventMiddleware(logger),
		chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys),
	).Handler(app)

	runCtx, stopWorkers := context.WithCancel(ctx)
	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		if err := tasks.Run(runCtx, internal); err != nil {
			logger.Error("Task queue stopped", zap.Error(err))
		}
	}()

	var sched *scheduler.Scheduler
	if cfg.Notify.Schedule != config.ScheduleOff {
		sched, err = scheduler.New(cfg.Notify.Schedule, loc, notifyuc.PathNotify, tasks, logger.Named("scheduler"))
		if err != nil {
			logger.Fatal("Invalid notify schedule", zap.Error(err))
		}
		logger.Info("Scheduler started",
			zap.String("schedule", cfg.Notify.Schedule),
			zap.Time("next", sched.Next()),
		)
		sched.Start()
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      public,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	stopWorkers()
	select {
	case <-workersDone:
	case <-shutdownCtx.Done():
		logger.Warn("Task workers did not stop in time")
	}

	logger.Info("Server stopped gracefully")
}

// htmlRecoverer is a recovery middleware that returns a small error page instead of a plain text stacktrace.
func htmlRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "text/html; charset=utf-8")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte("<!DOCTYPE html><html><body><h1>500 Internal Server Error</h1>" +
						"<p>internal error</p></body></html>\n"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Bool("task", r.Header.Get(metrics.TaskHeader) != ""),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
