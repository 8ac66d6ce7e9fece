package server

import (
	"net/http"

	"dzika/model"

	"github.com/gorilla/mux"
)

// GetTracksHandler 获取公开曲目列表
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.tracks.ListActive(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if tracks == nil {
		tracks = []*model.Track{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
}

// GetTrackBySlugHandler 获取单个曲目详情
// Includes the unwindowed rating aggregate for the public detail view.
func (h *APIHandler) GetTrackBySlugHandler(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	track, err := h.tracks.GetBySlug(r.Context(), slug)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if !track.IsActive {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}

	rating, err := h.comments.RatingForTrack(r.Context(), track.ID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, model.TrackWithRating{
		Track:         *track,
		AverageRating: rating.Average,
		RatingCount:   rating.Count,
	})
}

// GetThemesHandler 获取主题列表
func (h *APIHandler) GetThemesHandler(w http.ResponseWriter, r *http.Request) {
	themes, err := h.themes.List(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if themes == nil {
		themes = []*model.Theme{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"themes": themes})
}
