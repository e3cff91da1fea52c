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

	"github.com/hillwalk/munroquery/internal/config"
	"github.com/hillwalk/munroquery/internal/corpus"
	"github.com/hillwalk/munroquery/internal/db"
	dbRedis "github.com/hillwalk/munroquery/internal/db/redis"
	"github.com/hillwalk/munroquery/internal/domain/tag"
	logpkg "github.com/hillwalk/munroquery/internal/logger"
	"github.com/hillwalk/munroquery/internal/metrics"
	"github.com/hillwalk/munroquery/internal/repository/geocache"
	searchrepo "github.com/hillwalk/munroquery/internal/repository/search"
	chiTransport "github.com/hillwalk/munroquery/internal/transport/chi"
	"github.com/hillwalk/munroquery/internal/transport/nominatim"
	llm "github.com/hillwalk/munroquery/internal/transport/openai"
	"github.com/hillwalk/munroquery/internal/usecase/assist"
	"github.com/hillwalk/munroquery/internal/usecase/compose"
	"github.com/hillwalk/munroquery/internal/usecase/extract"
	"github.com/hillwalk/munroquery/internal/usecase/geosearch"
	healthuc "github.com/hillwalk/munroquery/internal/usecase/health"
	hillsuc "github.com/hillwalk/munroquery/internal/usecase/hills"
	"github.com/hillwalk/munroquery/internal/usecase/lexical"
	"github.com/hillwalk/munroquery/internal/usecase/route"
	"github.com/hillwalk/munroquery/internal/version"
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

	logger.Info("Starting munroquery API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Geocode cache store
	var store db.Store
	store, err = dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to cache store")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Immutable read-only data: ontology first, corpus validates against it.
	ontology, err := tag.Load(cfg.Dataset.OntologyPath)
	if err != nil {
		logger.Fatal("Failed to load tag ontology", zap.Error(err))
	}
	corp, err := corpus.Load(cfg.Dataset.HillsPath, ontology)
	if err != nil {
		logger.Fatal("Failed to load hill corpus", zap.Error(err))
	}
	logger.Info("Corpus loaded",
		zap.Int("routes", corp.Size()),
		zap.Int("tags", ontology.Size()),
		zap.Int("ontology_version", ontology.Version()),
	)

	// Chat model (optional — without a key the deterministic path runs alone)
	var model *llm.Client
	if cfg.LLM.APIKey != "" {
		model = llm.NewClient(&llm.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Logger:  logger,
		})
		logger.Info("Chat model enabled", zap.String("model", cfg.LLM.Model))
	} else {
		logger.Warn("No LLM API key; running with deterministic extraction only")
	}

	// Geocoder chain: Nominatim -> cached (memory + store)
	geocoder := geocache.New(
		nominatim.New(&nominatim.Config{
			BaseURL:   cfg.Geocoder.BaseURL,
			UserAgent: cfg.Geocoder.UserAgent,
			BBox:      cfg.Geocoder.BBox[:],
			Timeout:   time.Duration(cfg.Geocoder.TimeoutSec) * time.Second,
			Logger:    logger,
		}),
		store,
		geocache.Options{
			PositiveTTL: time.Duration(cfg.Geocoder.CacheTTLHours) * time.Hour,
			NegativeTTL: time.Duration(cfg.Geocoder.NegativeCacheTTLHrs) * time.Hour,
		},
		metrics.GeocodeCacheTotal,
		logger,
	)

	// Full-text index: create if absent, then load the corpus into it.
	hillIndex := searchrepo.New(store)
	if err := hillIndex.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to create hill index", zap.Error(err))
	}
	if err := hillIndex.IndexHills(ctx, corp.Hills()); err != nil {
		logger.Fatal("Failed to index hill corpus", zap.Error(err))
	}
	logger.Info("Hill index ready", zap.Int("routes", corp.Size()))

	// Search engines and the pipeline
	lexEngine := lexical.New(corp, hillIndex, cfg.Search.PermissiveRatio)
	geoEngine := geosearch.New(geocoder, corp, lexEngine, geosearch.Options{
		GeocodeTimeout: time.Duration(cfg.Geocoder.TimeoutSec) * time.Second,
		NearBandKM:     cfg.Search.NearBandKM,
	})
	router := route.New(lexEngine, geoEngine)

	extractor := extract.New(nilableIntentModel(model), ontology, extract.Options{
		ModelTimeout:  time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		TagFloodRatio: cfg.Search.TagFloodRatio,
		DefaultLimit:  cfg.Search.DefaultLimit,
		MaxLimit:      cfg.Search.MaxLimit,
	})
	composer := compose.New(nilableAnswerModel(model), corp, compose.Options{
		ModelTimeout: time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	})

	assistSvc := assist.New(extractor, router, composer)
	hillsSvc := hillsuc.New(corp)
	healthSvc := healthuc.New(store, corp)

	server := chiTransport.NewServer(assistSvc, hillsSvc, healthSvc, ontology, chiTransport.Limits{
		MaxMessageLen: cfg.Search.MaxMessageLen,
		DefaultLimit:  cfg.Search.DefaultLimit,
		MaxLimit:      cfg.Search.MaxLimit,
		TagFloodRatio: cfg.Search.TagFloodRatio,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

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

// nilableIntentModel avoids the typed-nil-in-interface gotcha:
// (*llm.Client)(nil) wrapped in extract.IntentModel != nil.
func nilableIntentModel(c *llm.Client) extract.IntentModel {
	if c == nil {
		return nil
	}
	return c
}

func nilableAnswerModel(c *llm.Client) compose.AnswerModel {
	if c == nil {
		return nil
	}
	return c
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
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
			)
		})
	}
}
