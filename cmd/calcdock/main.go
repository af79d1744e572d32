package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lattixlab/calcdock/internal/assimilate"
	"github.com/lattixlab/calcdock/internal/assimilate/jsondir"
	"github.com/lattixlab/calcdock/internal/config"
	"github.com/lattixlab/calcdock/internal/db"
	dbRedis "github.com/lattixlab/calcdock/internal/db/redis"
	logpkg "github.com/lattixlab/calcdock/internal/logger"
	"github.com/lattixlab/calcdock/internal/metrics"
	blobrepo "github.com/lattixlab/calcdock/internal/repository/blob"
	taskrepo "github.com/lattixlab/calcdock/internal/repository/task"
	"github.com/lattixlab/calcdock/internal/repository/taskfile"
	chiTransport "github.com/lattixlab/calcdock/internal/transport/chi"
	healthuc "github.com/lattixlab/calcdock/internal/usecase/health"
	ingestuc "github.com/lattixlab/calcdock/internal/usecase/ingest"
	offloaduc "github.com/lattixlab/calcdock/internal/usecase/offload"
	persistuc "github.com/lattixlab/calcdock/internal/usecase/persist"
	"github.com/lattixlab/calcdock/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting calcdock ingestion service",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("store_configured", cfg.Database.Configured()),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Register assimilators explicitly (no init())
	if err := assimilate.Register(jsondir.Name, jsondir.New); err != nil {
		logger.Fatal("Failed to register assimilator", zap.Error(err))
	}
	assimilator, err := assimilate.New(cfg.Ingest.Assimilator)
	if err != nil {
		logger.Fatal("Failed to resolve assimilator", zap.Error(err))
	}

	metrics.RegisterIngestMetrics()

	// Local fallback writer targets the working directory, matching the
	// degrade-to-local-file convention.
	fileWriter := taskfile.New("")

	// Go gotcha: a typed nil pointer wrapped in an interface != nil.
	// Only assign the interfaces when a store actually exists.
	var taskStore persistuc.TaskStore
	var blobStore offloaduc.BlobStore
	var pinger healthuc.DBPinger

	ctx := context.Background()

	if cfg.Database.Configured() {
		var store db.Store
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")

		taskStore = taskrepo.New(store, cfg.Storage.KeyPrefix)
		blobStore = blobrepo.New(store, cfg.Storage.KeyPrefix)
		pinger = store
	} else {
		logger.Info("No database configured, persisting to local task file",
			zap.String("path", fileWriter.Path()),
		)
	}

	offloadSvc := offloaduc.New(blobStore, metrics.BlobBytesOffloaded, logger)
	persistSvc := persistuc.New(taskStore, fileWriter, logger)
	healthSvc := healthuc.New(pinger)

	defaultDir := cfg.Ingest.DefaultDir
	if defaultDir == "" {
		defaultDir, err = os.Getwd()
		if err != nil {
			logger.Fatal("Failed to determine working directory", zap.Error(err))
		}
	}

	pipeline := ingestuc.New(
		assimilator, offloadSvc, persistSvc, defaultDir,
		metrics.IngestRunsTotal, metrics.IngestRunDuration, logger,
	)

	server := chiTransport.NewServer(pipeline, healthSvc, chiTransport.Defaults{
		ParseDOS:     cfg.Ingest.ParseDOS,
		ParseBands:   cfg.Ingest.ParseBands,
		BuildIndices: cfg.Ingest.BuildIndices,
		Indices:      cfg.Ingest.Indices,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
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

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
