package repository

import (
	"testing"
	"time"

	"dzika/model"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Theme{},
		&model.Track{},
		&model.TrackVersion{},
		&model.TrackEvent{},
		&model.Comment{},
		&model.User{},
	))
	return db
}

func seedTheme(t *testing.T, db *gorm.DB, name, slug string, sortOrder int) *model.Theme {
	t.Helper()
	theme := &model.Theme{Name: name, Slug: slug, IsActive: true, SortOrder: sortOrder}
	require.NoError(t, db.Create(theme).Error)
	return theme
}

func seedTrack(t *testing.T, db *gorm.DB, themeID int64, title, slug string) *model.Track {
	t.Helper()
	track := &model.Track{
		Title:           title,
		Slug:            slug,
		ThemeID:         themeID,
		IsActive:        true,
		CommentsEnabled: true,
	}
	require.NoError(t, db.Create(track).Error)
	return track
}

func seedVersion(t *testing.T, db *gorm.DB, trackID int64, name string, downloadable bool) *model.TrackVersion {
	t.Helper()
	version := &model.TrackVersion{
		TrackID:        trackID,
		Name:           name,
		AudioURL:       "audio/" + name + ".mp3",
		IsActive:       true,
		IsDownloadable: downloadable,
	}
	require.NoError(t, db.Create(version).Error)
	return version
}

// seedEvent inserts a raw event row with an explicit timestamp, bypassing the
// counter transaction. Used to backdate history.
func seedEvent(t *testing.T, db *gorm.DB, eventType model.EventType, trackID int64, visitorHash string, createdAt time.Time) *model.TrackEvent {
	t.Helper()
	event := &model.TrackEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		TrackID:     trackID,
		VisitorHash: visitorHash,
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(event).Error)
	return event
}
