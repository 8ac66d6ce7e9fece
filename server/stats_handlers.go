package server

import (
	"math"
	"net/http"

	"dzika/cache"
	"dzika/model"
)

const (
	defaultTopTracksLimit = 10
	maxTopTracksLimit     = 50
	defaultActivityLimit  = 20
	maxActivityLimit      = 100
)

// StatsOverviewHandler 获取统计概览
func (h *APIHandler) StatsOverviewHandler(w http.ResponseWriter, r *http.Request) {
	rng, ok := queryRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid range")
		return
	}

	key := cache.Key("overview", rng, 0)
	var cached model.StatsOverview
	if h.statsCache.Get(r.Context(), key, &cached) {
		respondJSON(w, http.StatusOK, &cached)
		return
	}

	overview, err := h.stats.Overview(r.Context(), rng)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	h.statsCache.Set(r.Context(), key, overview)
	respondJSON(w, http.StatusOK, overview)
}

// StatsTimeSeriesHandler 获取播放/下载时间序列
func (h *APIHandler) StatsTimeSeriesHandler(w http.ResponseWriter, r *http.Request) {
	rng, ok := queryRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid range")
		return
	}

	key := cache.Key("timeseries", rng, 0)
	var cached []model.TimeSeriesPoint
	if h.statsCache.Get(r.Context(), key, &cached) {
		respondJSON(w, http.StatusOK, map[string]interface{}{"points": cached})
		return
	}

	points, err := h.stats.TimeSeries(r.Context(), rng)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	h.statsCache.Set(r.Context(), key, points)
	respondJSON(w, http.StatusOK, map[string]interface{}{"points": points})
}

// StatsTopTracksHandler 获取排行榜
func (h *APIHandler) StatsTopTracksHandler(w http.ResponseWriter, r *http.Request) {
	rng, ok := queryRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid range")
		return
	}
	limit := queryInt(r, "limit", defaultTopTracksLimit)
	if limit < 1 {
		limit = defaultTopTracksLimit
	}
	if limit > maxTopTracksLimit {
		limit = maxTopTracksLimit
	}

	key := cache.Key("top-tracks", rng, limit)
	var cached model.TopTracks
	if h.statsCache.Get(r.Context(), key, &cached) {
		respondJSON(w, http.StatusOK, &cached)
		return
	}

	top, err := h.stats.TopTracks(r.Context(), rng, limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	h.statsCache.Set(r.Context(), key, top)
	respondJSON(w, http.StatusOK, top)
}

// StatsThemesHandler 获取按主题汇总的统计
func (h *APIHandler) StatsThemesHandler(w http.ResponseWriter, r *http.Request) {
	rng, ok := queryRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid range")
		return
	}

	key := cache.Key("themes", rng, 0)
	var cached []model.ThemeStats
	if h.statsCache.Get(r.Context(), key, &cached) {
		respondJSON(w, http.StatusOK, map[string]interface{}{"themes": cached})
		return
	}

	themes, err := h.stats.ThemeStats(r.Context(), rng)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	h.statsCache.Set(r.Context(), key, themes)
	respondJSON(w, http.StatusOK, map[string]interface{}{"themes": themes})
}

// StatsActivityHandler 获取最近活动
// Not cached: the feed is expected to be fresh.
func (h *APIHandler) StatsActivityHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultActivityLimit)
	if limit < 1 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	events, err := h.stats.RecentActivity(r.Context(), limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if events == nil {
		events = []model.RecentEvent{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// RatingsHandler 获取每首曲目的评分汇总
func (h *APIHandler) RatingsHandler(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.comments.RatingSummaries(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	for i := range summaries {
		summaries[i].AverageRating = math.Round(summaries[i].AverageRating*10) / 10
	}
	if summaries == nil {
		summaries = []model.TrackRatingSummary{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"tracks": summaries})
}
