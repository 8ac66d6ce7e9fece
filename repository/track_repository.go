package repository

import (
	"context"
	"errors"
	"fmt"

	"dzika/model"

	"gorm.io/gorm"
)

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Track, error)
	GetBySlug(ctx context.Context, slug string) (*model.Track, error)
	// ListActive returns active tracks with their active versions and theme,
	// ordered by sort order.
	ListActive(ctx context.Context) ([]*model.Track, error)
	Count(ctx context.Context) (int64, error)
	// TopTrackRows returns all tracks with their theme name and all-time
	// denormalized counters, the base rows for top-N rankings.
	TopTrackRows(ctx context.Context) ([]model.TopTrack, error)
	// ThemeIDsByTrack maps track id to theme id, for joining per-track event
	// counts against themes in memory.
	ThemeIDsByTrack(ctx context.Context) (map[int64]int64, error)
	GetVersionByID(ctx context.Context, versionID int64) (*model.TrackVersion, error)
	Create(ctx context.Context, track *model.Track) error
	CreateVersion(ctx context.Context, version *model.TrackVersion) error
}

// gormTrackRepository implements TrackRepository on GORM.
type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository creates a new instance of gormTrackRepository.
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

func (r *gormTrackRepository) GetByID(ctx context.Context, id int64) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).First(&track, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query track by ID %d: %w", id, err)
	}
	return &track, nil
}

func (r *gormTrackRepository) GetBySlug(ctx context.Context, slug string) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).
		Preload("Theme").
		Preload("Versions", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC")
		}).
		Where("slug = ?", slug).
		First(&track).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query track by slug %s: %w", slug, err)
	}
	return &track, nil
}

func (r *gormTrackRepository) ListActive(ctx context.Context) ([]*model.Track, error) {
	var tracks []*model.Track
	err := r.db.WithContext(ctx).
		Preload("Theme").
		Preload("Versions", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC")
		}).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active tracks: %w", err)
	}
	return tracks, nil
}

func (r *gormTrackRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Track{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

func (r *gormTrackRepository) TopTrackRows(ctx context.Context) ([]model.TopTrack, error) {
	var rows []model.TopTrack
	err := r.db.WithContext(ctx).Table("tracks").
		Select("tracks.id, tracks.title, tracks.slug, themes.name AS theme_name, tracks.play_count, tracks.download_count").
		Joins("JOIN themes ON themes.id = tracks.theme_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top track rows: %w", err)
	}
	return rows, nil
}

func (r *gormTrackRepository) ThemeIDsByTrack(ctx context.Context) (map[int64]int64, error) {
	var rows []struct {
		ID      int64
		ThemeID int64
	}
	err := r.db.WithContext(ctx).Model(&model.Track{}).
		Select("id, theme_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query track theme ids: %w", err)
	}

	result := make(map[int64]int64, len(rows))
	for _, row := range rows {
		result[row.ID] = row.ThemeID
	}
	return result, nil
}

func (r *gormTrackRepository) GetVersionByID(ctx context.Context, versionID int64) (*model.TrackVersion, error) {
	var version model.TrackVersion
	err := r.db.WithContext(ctx).First(&version, versionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query track version by ID %d: %w", versionID, err)
	}
	return &version, nil
}

func (r *gormTrackRepository) Create(ctx context.Context, track *model.Track) error {
	if err := r.db.WithContext(ctx).Create(track).Error; err != nil {
		return fmt.Errorf("failed to create track: %w", err)
	}
	return nil
}

func (r *gormTrackRepository) CreateVersion(ctx context.Context, version *model.TrackVersion) error {
	if err := r.db.WithContext(ctx).Create(version).Error; err != nil {
		return fmt.Errorf("failed to create track version: %w", err)
	}
	return nil
}
