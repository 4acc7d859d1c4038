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

	"github.com/nordveil/shopsearch/internal/config"
	dbRedis "github.com/nordveil/shopsearch/internal/db/redis"
	"github.com/nordveil/shopsearch/internal/domain"
	logpkg "github.com/nordveil/shopsearch/internal/logger"
	"github.com/nordveil/shopsearch/internal/metrics"
	catalogrepo "github.com/nordveil/shopsearch/internal/repository/catalog"
	"github.com/nordveil/shopsearch/internal/repository/embcache"
	searchrepo "github.com/nordveil/shopsearch/internal/repository/search"
	chiTransport "github.com/nordveil/shopsearch/internal/transport/chi"
	openaiTransport "github.com/nordveil/shopsearch/internal/transport/openai"
	"github.com/nordveil/shopsearch/internal/usecase/bootstrap"
	healthuc "github.com/nordveil/shopsearch/internal/usecase/health"
	searchuc "github.com/nordveil/shopsearch/internal/usecase/search"
	"github.com/nordveil/shopsearch/internal/version"
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

	logger.Info("Starting shopsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register model metrics explicitly (no init())
	metrics.RegisterModelMetrics()

	// Embedder chain: OpenAI -> store-backed cache
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.EmbeddingModel,
		Dimensions: cfg.OpenAI.EmbeddingDimensions,
		Logger:     logger,
	})
	var embedder domain.Embedder = embcache.New(
		baseEmbedder, store, cfg.OpenAI.EmbeddingModel,
		time.Duration(cfg.OpenAI.CacheTTLSec)*time.Second, logger,
	)

	completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:           cfg.OpenAI.APIKey,
		BaseURL:          cfg.OpenAI.BaseURL,
		Model:            cfg.OpenAI.CompletionModel,
		RewriteMaxTokens: cfg.OpenAI.RewriteMaxTokens,
		CaptionMaxTokens: cfg.OpenAI.CaptionMaxTokens,
		Logger:           logger,
	})

	logger.Info("Model providers created",
		zap.String("embedding_model", cfg.OpenAI.EmbeddingModel),
		zap.Int("dimensions", cfg.OpenAI.EmbeddingDimensions),
		zap.String("completion_model", cfg.OpenAI.CompletionModel),
	)

	// Repositories
	catalogRepo := catalogrepo.NewRepository(store, logger)
	searchRepo := searchrepo.NewRepository(store, logger)

	// Startup: indexes first, then the demo catalog. Seeding uses the raw
	// embedder deliberately so cache failures cannot poison seed vectors.
	bootstrapper := bootstrap.NewService(store, catalogRepo, baseEmbedder, bootstrap.Config{
		EmbeddingDim:    cfg.OpenAI.EmbeddingDimensions,
		HNSWM:           cfg.Index.HNSWM,
		HNSWEFConstruct: cfg.Index.HNSWEFConstruct,
	}, logger)

	if err := bootstrapper.Ensure(ctx); err != nil {
		logger.Fatal("Failed to create search indexes", zap.Error(err))
	}
	if err := bootstrapper.Seed(ctx); err != nil {
		logger.Fatal("Failed to seed catalog", zap.Error(err))
	}

	// Use case services
	searchSvc := searchuc.NewService(searchRepo, embedder, completer, &searchuc.Config{
		Limit:         cfg.Search.Limit,
		CandidatePool: cfg.Search.CandidatePool,
		ConceptPool:   cfg.Search.ConceptPool,
	}, logger)
	healthSvc := healthuc.NewService(store, baseEmbedder, logger)

	server := chiTransport.NewServer(searchSvc, catalogRepo, healthSvc, logger, env != "prod")

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware())
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
						"error": "internal error",
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
