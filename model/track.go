package model

import "time"

// Track represents a showcased piece of music. A track belongs to a theme and
// owns one or more audio versions. PlayCount and DownloadCount are denormalized
// running totals, maintained transactionally alongside TrackEvent inserts.
type Track struct {
	ID              int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title           string    `json:"title" gorm:"size:200;not null"`
	Slug            string    `json:"slug" gorm:"size:200;uniqueIndex;not null"`
	Description     string    `json:"description" gorm:"type:text"`
	ThemeID         int64     `json:"themeId" gorm:"index;not null"`
	IsActive        bool      `json:"isActive" gorm:"default:true"`
	IsFeatured      bool      `json:"isFeatured"`
	CommentsEnabled bool      `json:"commentsEnabled" gorm:"default:true"`
	SortOrder       int       `json:"sortOrder"`
	PlayCount       int64     `json:"playCount"`
	DownloadCount   int64     `json:"downloadCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	Theme    *Theme         `json:"theme,omitempty" gorm:"foreignKey:ThemeID"`
	Versions []TrackVersion `json:"versions,omitempty" gorm:"foreignKey:TrackID"`
}

// TrackVersion is a specific audio rendition of a track (e.g. "Radio Edit",
// "Live"). Carries the same denormalized counters as Track, scoped to the
// version.
type TrackVersion struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TrackID        int64     `json:"trackId" gorm:"index;not null"`
	Name           string    `json:"name" gorm:"size:100;not null"`
	AudioURL       string    `json:"audioUrl" gorm:"size:500;not null"`
	Duration       int       `json:"duration"` // Duration in seconds
	FileSize       int64     `json:"fileSize"`
	IsActive       bool      `json:"isActive" gorm:"default:true"`
	IsDownloadable bool      `json:"isDownloadable" gorm:"default:true"`
	SortOrder      int       `json:"sortOrder"`
	PlayCount      int64     `json:"playCount"`
	DownloadCount  int64     `json:"downloadCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TrackWithRating bundles a track with its unwindowed rating aggregate for
// the public detail view.
type TrackWithRating struct {
	Track
	AverageRating float64 `json:"averageRating"`
	RatingCount   int64   `json:"ratingCount"`
}
