package repository

import (
	"context"
	"fmt"
	"time"

	"dzika/logger"
	"dzika/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrackTypeCount is one row of the per-track event fan-out.
type TrackTypeCount struct {
	TrackID int64
	Type    model.EventType
	Count   int64
}

// EventTime is the minimal projection used for time-series bucketing.
type EventTime struct {
	Type      model.EventType
	CreatedAt time.Time
}

// EventRepository owns the append-only TrackEvent store and the denormalized
// counters maintained alongside it.
type EventRepository interface {
	// RecordEvent inserts the event and increments the matching counter on
	// the track, and on the version when one is given, in a single
	// transaction. All writes succeed or none do.
	RecordEvent(ctx context.Context, eventType model.EventType, trackID int64, versionID *int64, visitorHash, userAgent string) (*model.TrackEvent, error)
	// HasRecentPlay reports whether the visitor already has a PLAY event for
	// the track since the given time.
	HasRecentPlay(ctx context.Context, visitorHash string, trackID int64, since time.Time) (bool, error)
	// CountByType counts events of one type, optionally bounded by [since, until).
	CountByType(ctx context.Context, eventType model.EventType, since, until *time.Time) (int64, error)
	// CountsByTrack returns per-track, per-type event counts since the given
	// time (all-time when since is nil).
	CountsByTrack(ctx context.Context, since *time.Time) ([]TrackTypeCount, error)
	// EventTimes returns (type, createdAt) rows since the given time in
	// ascending order, for in-memory bucketing.
	EventTimes(ctx context.Context, since *time.Time) ([]EventTime, error)
	// Recent returns the newest events joined with track titles and version
	// names, newest first.
	Recent(ctx context.Context, limit int) ([]model.RecentEvent, error)
}

// gormEventRepository implements EventRepository on GORM.
type gormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates a new instance of gormEventRepository.
func NewGormEventRepository(db *gorm.DB) EventRepository {
	return &gormEventRepository{db: db}
}

func (r *gormEventRepository) RecordEvent(ctx context.Context, eventType model.EventType, trackID int64, versionID *int64, visitorHash, userAgent string) (*model.TrackEvent, error) {
	counter := "play_count"
	if eventType == model.EventDownload {
		counter = "download_count"
	}

	event := &model.TrackEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		TrackID:     trackID,
		VersionID:   versionID,
		VisitorHash: visitorHash,
		UserAgent:   userAgent,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Track{}).
			Where("id = ?", trackID).
			UpdateColumn(counter, gorm.Expr(counter+" + 1"))
		if res.Error != nil {
			return fmt.Errorf("failed to increment track %s: %w", counter, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if versionID != nil {
			res := tx.Model(&model.TrackVersion{}).
				Where("id = ? AND track_id = ?", *versionID, trackID).
				UpdateColumn(counter, gorm.Expr(counter+" + 1"))
			if res.Error != nil {
				return fmt.Errorf("failed to increment version %s: %w", counter, res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrInvalidReference
			}
		}

		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("failed to insert track event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("track event recorded",
		logger.String("eventId", event.ID),
		logger.String("type", string(eventType)),
		logger.Int64("trackId", trackID))
	return event, nil
}

func (r *gormEventRepository) HasRecentPlay(ctx context.Context, visitorHash string, trackID int64, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TrackEvent{}).
		Where("visitor_hash = ? AND track_id = ? AND type = ? AND created_at >= ?",
			visitorHash, trackID, model.EventPlay, since).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query recent plays: %w", err)
	}
	return count > 0, nil
}

func (r *gormEventRepository) CountByType(ctx context.Context, eventType model.EventType, since, until *time.Time) (int64, error) {
	query := r.db.WithContext(ctx).Model(&model.TrackEvent{}).Where("type = ?", eventType)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	if until != nil {
		query = query.Where("created_at < ?", *until)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s events: %w", eventType, err)
	}
	return count, nil
}

func (r *gormEventRepository) CountsByTrack(ctx context.Context, since *time.Time) ([]TrackTypeCount, error) {
	query := r.db.WithContext(ctx).Model(&model.TrackEvent{}).
		Select("track_id, type, COUNT(*) AS count").
		Group("track_id").Group("type")
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}

	var rows []TrackTypeCount
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count events by track: %w", err)
	}
	return rows, nil
}

func (r *gormEventRepository) EventTimes(ctx context.Context, since *time.Time) ([]EventTime, error) {
	query := r.db.WithContext(ctx).Model(&model.TrackEvent{}).
		Select("type, created_at").
		Order("created_at ASC")
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}

	var rows []EventTime
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query event times: %w", err)
	}
	return rows, nil
}

func (r *gormEventRepository) Recent(ctx context.Context, limit int) ([]model.RecentEvent, error) {
	var rows []model.RecentEvent
	err := r.db.WithContext(ctx).Table("track_events").
		Select("track_events.id, track_events.type, track_events.created_at, tracks.title AS track_title, track_versions.name AS version_name").
		Joins("JOIN tracks ON tracks.id = track_events.track_id").
		Joins("LEFT JOIN track_versions ON track_versions.id = track_events.version_id").
		Order("track_events.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	return rows, nil
}
