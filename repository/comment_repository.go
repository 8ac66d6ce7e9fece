package repository

import (
	"context"
	"fmt"

	"dzika/model"

	"gorm.io/gorm"
)

// RatingAggregate is an unwindowed rating rollup: the arithmetic mean of all
// non-null ratings and their count.
type RatingAggregate struct {
	Average float64
	Count   int64
}

// TrackRatingRow is the per-track rating rollup used by rankings.
type TrackRatingRow struct {
	TrackID int64
	Average float64
	Count   int64
}

// CommentRepository defines the interface for comment data operations.
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	// ListByTrack returns top-level comments for a track newest first, with
	// their replies oldest first, plus the top-level total for pagination.
	ListByTrack(ctx context.Context, trackID int64, page, limit int) ([]*model.Comment, int64, error)
	// CountTopLevel counts top-level non-admin-reply comments across all
	// tracks.
	CountTopLevel(ctx context.Context) (int64, error)
	// RatingAggregate computes the all-time average and count over non-null
	// ratings.
	RatingAggregate(ctx context.Context) (RatingAggregate, error)
	// RatingsByTrack computes the per-track rating aggregates for all tracks
	// that have at least one rating.
	RatingsByTrack(ctx context.Context) ([]TrackRatingRow, error)
	// RatingSummaries returns the admin ratings listing, ordered by title.
	RatingSummaries(ctx context.Context) ([]model.TrackRatingSummary, error)
	RatingForTrack(ctx context.Context, trackID int64) (RatingAggregate, error)
}

// gormCommentRepository implements CommentRepository on GORM.
type gormCommentRepository struct {
	db *gorm.DB
}

// NewGormCommentRepository creates a new instance of gormCommentRepository.
func NewGormCommentRepository(db *gorm.DB) CommentRepository {
	return &gormCommentRepository{db: db}
}

func (r *gormCommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *gormCommentRepository) ListByTrack(ctx context.Context, trackID int64, page, limit int) ([]*model.Comment, int64, error) {
	if page < 1 {
		page = 1
	}

	var comments []*model.Comment
	err := r.db.WithContext(ctx).
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("track_id = ? AND parent_id IS NULL", trackID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments for track %d: %w", trackID, err)
	}

	var total int64
	err = r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("track_id = ? AND parent_id IS NULL", trackID).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count comments for track %d: %w", trackID, err)
	}

	return comments, total, nil
}

func (r *gormCommentRepository) CountTopLevel(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("parent_id IS NULL AND is_admin_reply = ?", false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count top-level comments: %w", err)
	}
	return count, nil
}

func (r *gormCommentRepository) RatingAggregate(ctx context.Context) (RatingAggregate, error) {
	var agg RatingAggregate
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("rating IS NOT NULL").
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Scan(&agg).Error
	if err != nil {
		return RatingAggregate{}, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	return agg, nil
}

func (r *gormCommentRepository) RatingsByTrack(ctx context.Context) ([]TrackRatingRow, error) {
	var rows []TrackRatingRow
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("rating IS NOT NULL").
		Select("track_id, AVG(rating) AS average, COUNT(*) AS count").
		Group("track_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings by track: %w", err)
	}
	return rows, nil
}

func (r *gormCommentRepository) RatingSummaries(ctx context.Context) ([]model.TrackRatingSummary, error) {
	var rows []model.TrackRatingSummary
	err := r.db.WithContext(ctx).Table("tracks").
		Select(`tracks.id, tracks.title, tracks.slug,
			COUNT(comments.id) AS comment_count,
			COALESCE(AVG(CASE WHEN comments.rating IS NOT NULL THEN comments.rating END), 0) AS average_rating,
			COALESCE(SUM(CASE WHEN comments.rating IS NOT NULL THEN 1 ELSE 0 END), 0) AS rating_count`).
		Joins("LEFT JOIN comments ON comments.track_id = tracks.id").
		Group("tracks.id").Group("tracks.title").Group("tracks.slug").
		Order("tracks.title ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query rating summaries: %w", err)
	}
	return rows, nil
}

func (r *gormCommentRepository) RatingForTrack(ctx context.Context, trackID int64) (RatingAggregate, error) {
	var agg RatingAggregate
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("track_id = ? AND rating IS NOT NULL", trackID).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Scan(&agg).Error
	if err != nil {
		return RatingAggregate{}, fmt.Errorf("failed to aggregate ratings for track %d: %w", trackID, err)
	}
	return agg, nil
}
