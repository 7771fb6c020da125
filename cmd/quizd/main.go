package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	api "github.com/mind-engage/mindengage-quiz/internal/api/http"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/explain"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/metrics"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

func main() {
	cfg := config.Load()

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	// --- Store ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var store quiz.Store
	if cfg.DBDriver == "memory" {
		store = quiz.NewInMemoryStore()
	} else {
		drv, err := db.ParseDriver(cfg.DBDriver)
		if err != nil {
			lg.Fatal("db driver", zap.Error(err))
		}
		dbh, err := db.Open(ctx, drv, cfg.DBDSN)
		if err != nil {
			lg.Fatal("db open failed", zap.Error(err))
		}
		defer dbh.Close()
		store = quiz.NewSQLStore(dbh)
	}

	// --- Presentation mappings ---
	var mappings session.MappingStore
	switch cfg.MappingDriver {
	case "redis":
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := rc.Ping(ctx).Err(); err != nil {
			lg.Fatal("redis ping failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer rc.Close()
		mappings = session.NewRedisMappingStore(rc, cfg.MappingTTL)
	default:
		mappings = session.NewMemoryMappingStore(cfg.MappingTTL)
	}

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		lg.Fatal("blob store", zap.Error(err))
	}

	m := metrics.New()
	gen := m.InstrumentGenerator(explain.NewChatGenerator(explain.ChatConfig{
		BaseURL:     cfg.LLMBaseURL,
		APIKey:      cfg.LLMAPIKey,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
		Subject:     cfg.ExplainSubject,
	}))

	engine := quiz.NewEngine(store, quiz.WithLogger(lg.Named("engine")))
	sessions := session.NewManager(session.NewCodec(cfg.SessionSecret, cfg.SessionTTL), cfg.SessionCookie, cfg.SessionSecure)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(lg.Named("http")), middleware.Recoverer)
	r.Use(m.Middleware)
	r.Use(middleware.Timeout(cfg.LLMTimeout + 10*time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.Mount(r, api.Deps{
		Engine:       engine,
		Scorer:       grading.NewScorer(store),
		Explain:      explain.NewCache(store, gen, lg.Named("explain")),
		Sessions:     sessions,
		Mappings:     mappings,
		Blobs:        bs,
		Metrics:      m,
		Log:          lg.Named("api"),
		HistoryLimit: cfg.HistoryLimit,
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Method(http.MethodGet, "/metrics", m.Handler())

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		lg.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("db", cfg.DBDriver), zap.String("mappings", cfg.MappingDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("http server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown", zap.Error(err))
	}
}

func requestLogger(lg *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			lg.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
