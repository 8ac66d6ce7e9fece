package repository

import (
	"context"
	"testing"

	"dzika/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCountTopLevelExcludesRepliesAndAdmin(t *testing.T) {
	db := newTestDB(t)
	theme := seedTheme(t, db, "Groove", "groove", 0)
	track := seedTrack(t, db, theme.ID, "Nightfall", "nightfall")

	repo := NewGormCommentRepository(db)
	ctx := context.Background()

	parent := &model.Comment{TrackID: track.ID, Nickname: "ana", Content: "love it", Rating: intPtr(5)}
	require.NoError(t, repo.Create(ctx, parent))
	require.NoError(t, repo.Create(ctx, &model.Comment{
		TrackID: track.ID, ParentID: &parent.ID, Nickname: "Admin", Content: "thanks", IsAdminReply: true,
	}))

	count, err := repo.CountTopLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRatingAggregate(t *testing.T) {
	db := newTestDB(t)
	theme := seedTheme(t, db, "Groove", "groove", 0)
	track := seedTrack(t, db, theme.ID, "Nightfall", "nightfall")

	repo := NewGormCommentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Comment{TrackID: track.ID, Nickname: "a", Content: "x", Rating: intPtr(5)}))
	require.NoError(t, repo.Create(ctx, &model.Comment{TrackID: track.ID, Nickname: "b", Content: "y", Rating: intPtr(4)}))
	// Unrated comments do not affect the aggregate.
	require.NoError(t, repo.Create(ctx, &model.Comment{TrackID: track.ID, Nickname: "c", Content: "z"}))

	agg, err := repo.RatingAggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), agg.Count)
	assert.InDelta(t, 4.5, agg.Average, 0.001)
}

func TestRatingsByTrackSkipsUnrated(t *testing.T) {
	db := newTestDB(t)
	theme := seedTheme(t, db, "Groove", "groove", 0)
	rated := seedTrack(t, db, theme.ID, "Nightfall", "nightfall")
	unrated := seedTrack(t, db, theme.ID, "Daybreak", "daybreak")

	repo := NewGormCommentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Comment{TrackID: rated.ID, Nickname: "a", Content: "x", Rating: intPtr(3)}))
	require.NoError(t, repo.Create(ctx, &model.Comment{TrackID: unrated.ID, Nickname: "b", Content: "y"}))

	rows, err := repo.RatingsByTrack(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, rated.ID, rows[0].TrackID)
	assert.InDelta(t, 3.0, rows[0].Average, 0.001)
}

func TestListByTrackPagination(t *testing.T) {
	db := newTestDB(t)
	theme := seedTheme(t, db, "Groove", "groove", 0)
	track := seedTrack(t, db, theme.ID, "Nightfall", "nightfall")

	repo := NewGormCommentRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &model.Comment{TrackID: track.ID, Nickname: "a", Content: "x"}))
	}

	comments, total, err := repo.ListByTrack(ctx, track.ID, 1, 2)
	require.NoError(t, err)
	assert.Len(t, comments, 2)
	assert.Equal(t, int64(5), total)

	comments, _, err = repo.ListByTrack(ctx, track.ID, 3, 2)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestRatingSummaries(t *testing.T) {
	db := newTestDB(t)
	theme := seedTheme(t, db, "Groove", "groove", 0)
	track := seedTrack(t, db, theme.ID, "Nightfall", "nightfall")
	silent := seedTrack(t, db, theme.ID, "Daybreak", "daybreak")

	repo := NewGormCommentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Comment{TrackID: track.ID, Nickname: "a", Content: "x", Rating: intPtr(4)}))
	require.NoError(t, repo.Create(ctx, &model.Comment{TrackID: track.ID, Nickname: "b", Content: "y"}))

	rows, err := repo.RatingSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Ordered by title: Daybreak first.
	assert.Equal(t, silent.ID, rows[0].ID)
	assert.Equal(t, int64(0), rows[0].CommentCount)
	assert.Equal(t, int64(0), rows[0].RatingCount)

	assert.Equal(t, track.ID, rows[1].ID)
	assert.Equal(t, int64(2), rows[1].CommentCount)
	assert.Equal(t, int64(1), rows[1].RatingCount)
	assert.InDelta(t, 4.0, rows[1].AverageRating, 0.001)
}
