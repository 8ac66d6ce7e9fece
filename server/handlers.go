package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"dzika/cache"
	"dzika/config"
	"dzika/core/feed"
	"dzika/core/limiter"
	"dzika/core/stats"
	"dzika/logger"
	"dzika/model"
	"dzika/repository"

	"github.com/gorilla/mux"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	cfg        *config.Config
	tracks     repository.TrackRepository
	themes     repository.ThemeRepository
	comments   repository.CommentRepository
	events     repository.EventRepository
	users      repository.UserRepository
	stats      *stats.Service
	statsCache *cache.StatsCache
	limiter    limiter.Store
	feed       *feed.Hub
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	cfg *config.Config,
	tracks repository.TrackRepository,
	themes repository.ThemeRepository,
	comments repository.CommentRepository,
	events repository.EventRepository,
	users repository.UserRepository,
	statsService *stats.Service,
	statsCache *cache.StatsCache,
	limiterStore limiter.Store,
	feedHub *feed.Hub,
) *APIHandler {
	return &APIHandler{
		cfg:        cfg,
		tracks:     tracks,
		themes:     themes,
		comments:   comments,
		events:     events,
		users:      users,
		stats:      statsService,
		statsCache: statsCache,
		limiter:    limiterStore,
		feed:       feedHub,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("failed to encode response", logger.ErrorField(err))
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps repository errors onto the HTTP error taxonomy.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, repository.ErrInvalidReference):
		respondError(w, http.StatusBadRequest, "Invalid version for this track")
	default:
		logger.Error("store operation failed", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// queryInt parses an integer query parameter with a fallback.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// queryRange parses the range query parameter, defaulting to 30d.
func queryRange(r *http.Request) (model.DateRange, bool) {
	raw := r.URL.Query().Get("range")
	if raw == "" {
		return model.Range30d, true
	}
	rng := model.DateRange(raw)
	return rng, rng.Valid()
}
