package repository

import (
	"context"
	"errors"
	"fmt"

	"dzika/model"

	"gorm.io/gorm"
)

// ThemeRepository defines the interface for theme data operations.
type ThemeRepository interface {
	List(ctx context.Context) ([]*model.Theme, error)
	Count(ctx context.Context) (int64, error)
	// ListWithTrackCounts returns all themes in sort order with their track
	// counts; play/download totals are filled in by the stats service.
	ListWithTrackCounts(ctx context.Context) ([]model.ThemeStats, error)
	Create(ctx context.Context, theme *model.Theme) error
	Upsert(ctx context.Context, theme *model.Theme) error
}

// gormThemeRepository implements ThemeRepository on GORM.
type gormThemeRepository struct {
	db *gorm.DB
}

// NewGormThemeRepository creates a new instance of gormThemeRepository.
func NewGormThemeRepository(db *gorm.DB) ThemeRepository {
	return &gormThemeRepository{db: db}
}

func (r *gormThemeRepository) List(ctx context.Context) ([]*model.Theme, error) {
	var themes []*model.Theme
	err := r.db.WithContext(ctx).Order("sort_order ASC").Find(&themes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	return themes, nil
}

func (r *gormThemeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Theme{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count themes: %w", err)
	}
	return count, nil
}

func (r *gormThemeRepository) ListWithTrackCounts(ctx context.Context) ([]model.ThemeStats, error) {
	var rows []model.ThemeStats
	err := r.db.WithContext(ctx).Table("themes").
		Select("themes.id, themes.name, themes.slug, COUNT(tracks.id) AS track_count").
		Joins("LEFT JOIN tracks ON tracks.theme_id = themes.id").
		Group("themes.id").Group("themes.name").Group("themes.slug").Group("themes.sort_order").
		Order("themes.sort_order ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list themes with track counts: %w", err)
	}
	return rows, nil
}

func (r *gormThemeRepository) Create(ctx context.Context, theme *model.Theme) error {
	if err := r.db.WithContext(ctx).Create(theme).Error; err != nil {
		return fmt.Errorf("failed to create theme: %w", err)
	}
	return nil
}

func (r *gormThemeRepository) Upsert(ctx context.Context, theme *model.Theme) error {
	var existing model.Theme
	err := r.db.WithContext(ctx).Where("slug = ?", theme.Slug).First(&existing).Error
	if err == nil {
		theme.ID = existing.ID
		theme.CreatedAt = existing.CreatedAt
		if err := r.db.WithContext(ctx).Save(theme).Error; err != nil {
			return fmt.Errorf("failed to update theme %s: %w", theme.Slug, err)
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to query theme %s: %w", theme.Slug, err)
	}
	return r.Create(ctx, theme)
}
