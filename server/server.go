package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dzika/cache"
	"dzika/config"
	"dzika/core/feed"
	"dzika/core/limiter"
	"dzika/core/stats"
	"dzika/db"
	"dzika/logger"
	"dzika/model"
	"dzika/repository"
	"dzika/storage"

	"github.com/gorilla/mux"
)

const statsCacheTTL = time.Minute

// Start 启动HTTP服务器
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
	defer logger.Sync()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect database", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(
		&model.Theme{},
		&model.Track{},
		&model.TrackVersion{},
		&model.TrackEvent{},
		&model.Comment{},
		&model.User{},
	); err != nil {
		logger.Fatal("failed to migrate database", logger.ErrorField(err))
	}

	// Redis backs the limiter and the stats cache. Without it the limiter
	// falls back to memory and stats queries hit the database directly.
	var limiterStore limiter.Store
	var statsCache *cache.StatsCache
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, using in-memory rate limiter", logger.ErrorField(err))
		limiterStore = limiter.NewMemoryStore(cfg.LimiterSweepEvery)
	} else {
		defer db.CloseRedis()
		limiterStore = limiter.NewRedisStore(db.RedisClient)
		statsCache = cache.NewStatsCache(db.RedisClient, statsCacheTTL)
	}
	defer limiterStore.Close()

	if err := storage.InitMinio(cfg); err != nil {
		logger.Warn("MinIO unavailable, download URLs fall back to stored audio URLs", logger.ErrorField(err))
	}

	trackRepo := repository.NewGormTrackRepository(db.GormDB)
	themeRepo := repository.NewGormThemeRepository(db.GormDB)
	commentRepo := repository.NewGormCommentRepository(db.GormDB)
	eventRepo := repository.NewGormEventRepository(db.GormDB)
	userRepo := repository.NewGormUserRepository(db.GormDB)

	statsService := stats.NewService(eventRepo, trackRepo, themeRepo, commentRepo)
	feedHub := feed.NewHub()

	handler := NewAPIHandler(cfg, trackRepo, themeRepo, commentRepo, eventRepo, userRepo,
		statsService, statsCache, limiterStore, feedHub)

	router := NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", logger.ErrorField(err))
	}
}

// NewRouter wires every route onto a mux router. Split out from Start so
// handler tests can drive the real routing table.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", h.LoginHandler).Methods("POST", "OPTIONS")

	api.HandleFunc("/tracks", h.GetTracksHandler).Methods("GET", "OPTIONS")
	api.HandleFunc("/tracks/{slug:[a-z0-9-]+}", h.GetTrackBySlugHandler).Methods("GET", "OPTIONS")
	api.HandleFunc("/themes", h.GetThemesHandler).Methods("GET", "OPTIONS")

	api.HandleFunc("/tracks/{id:[0-9]+}/play", h.RecordPlayHandler).Methods("POST", "OPTIONS")
	api.HandleFunc("/tracks/{id:[0-9]+}/download", h.RecordDownloadHandler).Methods("POST", "OPTIONS")
	api.HandleFunc("/tracks/{id:[0-9]+}/comments", h.GetCommentsHandler).Methods("GET", "OPTIONS")
	api.HandleFunc("/tracks/{id:[0-9]+}/comments", h.CreateCommentHandler).Methods("POST", "OPTIONS")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.AuthMiddleware)
	admin.HandleFunc("/stats/overview", h.StatsOverviewHandler).Methods("GET", "OPTIONS")
	admin.HandleFunc("/stats/timeseries", h.StatsTimeSeriesHandler).Methods("GET", "OPTIONS")
	admin.HandleFunc("/stats/top-tracks", h.StatsTopTracksHandler).Methods("GET", "OPTIONS")
	admin.HandleFunc("/stats/themes", h.StatsThemesHandler).Methods("GET", "OPTIONS")
	admin.HandleFunc("/stats/activity", h.StatsActivityHandler).Methods("GET", "OPTIONS")
	admin.HandleFunc("/ratings", h.RatingsHandler).Methods("GET", "OPTIONS")

	router.HandleFunc("/ws/admin/activity", h.ActivityFeedHandler).Methods("GET")

	return router
}

// corsMiddleware 添加CORS头
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
