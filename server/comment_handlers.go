package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"unicode/utf8"

	"dzika/core/visitor"
	"dzika/logger"
	"dzika/model"
)

const (
	defaultCommentPageSize = 20
	maxCommentPageSize     = 50
	maxNicknameLength      = 50
	maxContentLength       = 2000
)

type commentListResponse struct {
	Comments []*model.Comment `json:"comments"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

// GetCommentsHandler 获取曲目评论列表
func (h *APIHandler) GetCommentsHandler(w http.ResponseWriter, r *http.Request) {
	trackID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid track ID")
		return
	}
	if _, err := h.tracks.GetByID(r.Context(), trackID); err != nil {
		respondStoreError(w, err)
		return
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(r, "limit", defaultCommentPageSize)
	if limit < 1 {
		limit = defaultCommentPageSize
	}
	if limit > maxCommentPageSize {
		limit = maxCommentPageSize
	}

	comments, total, err := h.comments.ListByTrack(r.Context(), trackID, page, limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if comments == nil {
		comments = []*model.Comment{}
	}

	respondJSON(w, http.StatusOK, commentListResponse{
		Comments: comments,
		Total:    total,
		Page:     page,
		Limit:    limit,
	})
}

type createCommentRequest struct {
	Nickname  string `json:"nickname"`
	Content   string `json:"content"`
	Rating    *int   `json:"rating"`
	VersionID *int64 `json:"versionId"`
}

// validate returns per-field messages for everything wrong with the request.
func (req *createCommentRequest) validate() map[string]string {
	problems := make(map[string]string)
	if strings.TrimSpace(req.Nickname) == "" {
		problems["nickname"] = "Nickname is required"
	} else if utf8.RuneCountInString(req.Nickname) > maxNicknameLength {
		problems["nickname"] = fmt.Sprintf("Nickname must be at most %d characters", maxNicknameLength)
	}
	if strings.TrimSpace(req.Content) == "" {
		problems["content"] = "Content is required"
	} else if utf8.RuneCountInString(req.Content) > maxContentLength {
		problems["content"] = fmt.Sprintf("Content must be at most %d characters", maxContentLength)
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		problems["rating"] = "Rating must be between 1 and 5"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// CreateCommentHandler 发表评论
// One comment per visitor+track inside the rate window; further attempts get
// a 429 with a minute-granularity retry hint.
func (h *APIHandler) CreateCommentHandler(w http.ResponseWriter, r *http.Request) {
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
	if !track.CommentsEnabled {
		respondError(w, http.StatusForbidden, "Comments are disabled for this track")
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if problems := req.validate(); problems != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "Validation failed",
			"fields": problems,
		})
		return
	}
	if req.VersionID != nil {
		version, err := h.tracks.GetVersionByID(r.Context(), *req.VersionID)
		if err != nil || version.TrackID != trackID {
			respondError(w, http.StatusBadRequest, "Invalid version for this track")
			return
		}
	}

	hash := visitor.FromRequest(r, h.cfg.VisitorSalt)
	key := fmt.Sprintf("comment:%s:%d", hash, trackID)
	result, err := h.limiter.Hit(r.Context(), key, h.cfg.CommentRateWindow)
	if err != nil {
		logger.Error("comment rate limiter failed", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !result.Allowed {
		minutes := int(math.Ceil(result.RetryAfter.Minutes()))
		if minutes < 1 {
			minutes = 1
		}
		plural := "s"
		if minutes == 1 {
			plural = ""
		}
		respondError(w, http.StatusTooManyRequests,
			fmt.Sprintf("Please wait %d minute%s before commenting again", minutes, plural))
		return
	}

	comment := &model.Comment{
		TrackID:     trackID,
		VersionID:   req.VersionID,
		Nickname:    strings.TrimSpace(req.Nickname),
		Content:     strings.TrimSpace(req.Content),
		Rating:      req.Rating,
		VisitorHash: hash,
	}
	if err := h.comments.Create(r.Context(), comment); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, comment)
}
