package server

import (
	"encoding/json"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"dzika/core/visitor"
	"dzika/logger"
	"dzika/model"
	"dzika/storage"
)

type recordPlayResponse struct {
	OK           bool `json:"ok"`
	Deduplicated bool `json:"deduplicated"`
}

// RecordPlayHandler 记录播放事件
// At most one PLAY per visitor+track inside the dedup window; duplicates are
// acknowledged without writing anything.
func (h *APIHandler) RecordPlayHandler(w http.ResponseWriter, r *http.Request) {
	trackID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	track, err := h.tracks.GetByID(r.Context(), trackID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	var versionID *int64
	if raw := r.URL.Query().Get("versionId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid version ID")
			return
		}
		versionID = &id
	}

	hash := visitor.FromRequest(r, h.cfg.VisitorSalt)
	since := time.Now().Add(-h.cfg.PlayDedupWindow)
	recent, err := h.events.HasRecentPlay(r.Context(), hash, trackID, since)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if recent {
		respondJSON(w, http.StatusOK, recordPlayResponse{OK: true, Deduplicated: true})
		return
	}

	event, err := h.events.RecordEvent(r.Context(), model.EventPlay, trackID, versionID, hash, r.UserAgent())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.broadcastEvent(r, event, track.Title)
	respondJSON(w, http.StatusOK, recordPlayResponse{OK: true, Deduplicated: false})
}

type recordDownloadRequest struct {
	VersionID *int64 `json:"versionId"`
}

// RecordDownloadHandler 记录下载事件并返回下载链接
// Downloads are never deduplicated; every request writes an event.
func (h *APIHandler) RecordDownloadHandler(w http.ResponseWriter, r *http.Request) {
	trackID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	var req recordDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VersionID == nil {
		respondError(w, http.StatusBadRequest, "versionId is required")
		return
	}

	version, err := h.tracks.GetVersionByID(r.Context(), *req.VersionID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if version.TrackID != trackID {
		respondError(w, http.StatusBadRequest, "Invalid version for this track")
		return
	}
	if !version.IsDownloadable {
		respondError(w, http.StatusForbidden, "This version is not downloadable")
		return
	}

	track, err := h.tracks.GetByID(r.Context(), trackID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	hash := visitor.FromRequest(r, h.cfg.VisitorSalt)
	event, err := h.events.RecordEvent(r.Context(), model.EventDownload, trackID, req.VersionID, hash, r.UserAgent())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	url := version.AudioURL
	// Objects stored in MinIO are referenced by key rather than full URL.
	if storage.Enabled() && !strings.HasPrefix(version.AudioURL, "http") {
		signed, err := storage.PresignedDownloadURL(r.Context(), h.cfg.MinioBucket, version.AudioURL, h.cfg.DownloadURLTTL, path.Base(version.AudioURL))
		if err != nil {
			logger.Error("failed to presign download URL", logger.ErrorField(err),
				logger.Int64("versionID", version.ID))
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		url = signed
	}

	h.broadcastEvent(r, event, track.Title)
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// broadcastEvent pushes a freshly recorded event to connected admin
// dashboards. Lookup failures only degrade the feed payload.
func (h *APIHandler) broadcastEvent(r *http.Request, event *model.TrackEvent, trackTitle string) {
	if h.feed == nil {
		return
	}

	recent := model.RecentEvent{
		ID:         event.ID,
		Type:       event.Type,
		TrackTitle: trackTitle,
		CreatedAt:  event.CreatedAt,
	}
	if event.VersionID != nil {
		if version, err := h.tracks.GetVersionByID(r.Context(), *event.VersionID); err == nil {
			recent.VersionName = &version.Name
		}
	}
	h.feed.Broadcast(recent)
}
