package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dzika/config"
	"dzika/core/auth"
	"dzika/core/feed"
	"dzika/core/limiter"
	"dzika/core/stats"
	"dzika/model"
	"dzika/repository"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db     *gorm.DB
	router *mux.Router
	cfg    *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(
		&model.Theme{},
		&model.Track{},
		&model.TrackVersion{},
		&model.TrackEvent{},
		&model.Comment{},
		&model.User{},
	))

	cfg := &config.Config{
		JWTSecret:         "test-secret",
		VisitorSalt:       "test-salt",
		PlayDedupWindow:   30 * time.Minute,
		CommentRateWindow: 5 * time.Minute,
		DownloadURLTTL:    15 * time.Minute,
	}

	limiterStore := limiter.NewMemoryStore(time.Minute)
	t.Cleanup(func() { limiterStore.Close() })

	trackRepo := repository.NewGormTrackRepository(gormDB)
	themeRepo := repository.NewGormThemeRepository(gormDB)
	commentRepo := repository.NewGormCommentRepository(gormDB)
	eventRepo := repository.NewGormEventRepository(gormDB)
	userRepo := repository.NewGormUserRepository(gormDB)

	statsService := stats.NewService(eventRepo, trackRepo, themeRepo, commentRepo)

	handler := NewAPIHandler(cfg, trackRepo, themeRepo, commentRepo, eventRepo, userRepo,
		statsService, nil, limiterStore, feed.NewHub())

	return &testEnv{db: gormDB, router: NewRouter(handler), cfg: cfg}
}

func (env *testEnv) seedTrack(t *testing.T, title, slugStr string) *model.Track {
	t.Helper()
	theme := &model.Theme{Name: "Cinematic", Slug: "cinematic-" + slugStr, IsActive: true}
	require.NoError(t, env.db.Create(theme).Error)
	track := &model.Track{
		Title:           title,
		Slug:            slugStr,
		ThemeID:         theme.ID,
		IsActive:        true,
		CommentsEnabled: true,
	}
	require.NoError(t, env.db.Create(track).Error)
	return track
}

func (env *testEnv) seedVersion(t *testing.T, trackID int64, name string, downloadable bool) *model.TrackVersion {
	t.Helper()
	version := &model.TrackVersion{
		TrackID:        trackID,
		Name:           name,
		AudioURL:       "https://cdn.example.com/" + name + ".mp3",
		IsActive:       true,
		IsDownloadable: downloadable,
	}
	require.NoError(t, env.db.Create(version).Error)
	return version
}

// do runs a request through the router with a fixed client address.
func (env *testEnv) do(method, target string, body interface{}, addr string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = addr
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestRecordPlayDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	track := env.seedTrack(t, "Nightfall", "nightfall")
	target := "/api/tracks/1/play"

	first := env.do(http.MethodPost, target, nil, "10.0.0.1:1234", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, false, decodeBody(t, first)["deduplicated"])

	second := env.do(http.MethodPost, target, nil, "10.0.0.1:5678", nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, true, decodeBody(t, second)["deduplicated"])

	var count int64
	require.NoError(t, env.db.Model(&model.TrackEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var got model.Track
	require.NoError(t, env.db.First(&got, track.ID).Error)
	assert.Equal(t, int64(1), got.PlayCount)
}

func TestRecordPlayDifferentVisitorsBothCount(t *testing.T) {
	env := newTestEnv(t)
	env.seedTrack(t, "Nightfall", "nightfall")

	first := env.do(http.MethodPost, "/api/tracks/1/play", nil, "10.0.0.1:1234", nil)
	second := env.do(http.MethodPost, "/api/tracks/1/play", nil, "10.0.0.2:1234", nil)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	var count int64
	require.NoError(t, env.db.Model(&model.TrackEvent{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRecordPlayUnknownTrack(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/tracks/99/play", nil, "10.0.0.1:1234", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordDownload(t *testing.T) {
	env := newTestEnv(t)
	track := env.seedTrack(t, "Nightfall", "nightfall")
	version := env.seedVersion(t, track.ID, "radio-edit", true)

	body := map[string]interface{}{"versionId": version.ID}
	target := "/api/tracks/1/download"

	// Downloads are never deduplicated.
	for i := 0; i < 2; i++ {
		rec := env.do(http.MethodPost, target, body, "10.0.0.1:1234", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, version.AudioURL, decodeBody(t, rec)["url"])
	}

	var count int64
	require.NoError(t, env.db.Model(&model.TrackEvent{}).Where("type = ?", model.EventDownload).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	var got model.TrackVersion
	require.NoError(t, env.db.First(&got, version.ID).Error)
	assert.Equal(t, int64(2), got.DownloadCount)
}

func TestRecordDownloadRequiresVersion(t *testing.T) {
	env := newTestEnv(t)
	env.seedTrack(t, "Nightfall", "nightfall")

	rec := env.do(http.MethodPost, "/api/tracks/1/download", map[string]interface{}{}, "10.0.0.1:1234", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordDownloadVersionOfOtherTrack(t *testing.T) {
	env := newTestEnv(t)
	env.seedTrack(t, "Nightfall", "nightfall")
	other := env.seedTrack(t, "Daybreak", "daybreak")
	version := env.seedVersion(t, other.ID, "radio-edit", true)

	rec := env.do(http.MethodPost, "/api/tracks/1/download",
		map[string]interface{}{"versionId": version.ID}, "10.0.0.1:1234", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordDownloadNotDownloadable(t *testing.T) {
	env := newTestEnv(t)
	track := env.seedTrack(t, "Nightfall", "nightfall")
	version := env.seedVersion(t, track.ID, "master", false)

	rec := env.do(http.MethodPost, "/api/tracks/1/download",
		map[string]interface{}{"versionId": version.ID}, "10.0.0.1:1234", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateCommentRateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.seedTrack(t, "Nightfall", "nightfall")

	body := map[string]interface{}{"nickname": "ada", "content": "great track", "rating": 5}
	target := "/api/tracks/1/comments"

	first := env.do(http.MethodPost, target, body, "10.0.0.1:1234", nil)
	require.Equal(t, http.StatusCreated, first.Code)

	second := env.do(http.MethodPost, target, body, "10.0.0.1:1234", nil)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, decodeBody(t, second)["error"], "Please wait 5 minutes")

	// A different visitor is not affected.
	third := env.do(http.MethodPost, target, body, "10.0.0.2:1234", nil)
	assert.Equal(t, http.StatusCreated, third.Code)
}

func TestCreateCommentValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedTrack(t, "Nightfall", "nightfall")

	rec := env.do(http.MethodPost, "/api/tracks/1/comments",
		map[string]interface{}{"nickname": "", "content": "", "rating": 9}, "10.0.0.1:1234", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	fields := decodeBody(t, rec)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "nickname")
	assert.Contains(t, fields, "content")
	assert.Contains(t, fields, "rating")

	// Validation failures never consume the rate limit budget.
	ok := env.do(http.MethodPost, "/api/tracks/1/comments",
		map[string]interface{}{"nickname": "ada", "content": "great"}, "10.0.0.1:1234", nil)
	assert.Equal(t, http.StatusCreated, ok.Code)
}

func TestCreateCommentDisabled(t *testing.T) {
	env := newTestEnv(t)
	track := env.seedTrack(t, "Nightfall", "nightfall")
	require.NoError(t, env.db.Model(track).Update("comments_enabled", false).Error)

	rec := env.do(http.MethodPost, "/api/tracks/1/comments",
		map[string]interface{}{"nickname": "ada", "content": "great"}, "10.0.0.1:1234", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetCommentsPagination(t *testing.T) {
	env := newTestEnv(t)
	track := env.seedTrack(t, "Nightfall", "nightfall")
	for i := 0; i < 3; i++ {
		require.NoError(t, env.db.Create(&model.Comment{
			TrackID:  track.ID,
			Nickname: "ada",
			Content:  "comment",
		}).Error)
	}

	rec := env.do(http.MethodGet, "/api/tracks/1/comments?page=1&limit=2", nil, "10.0.0.1:1234", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeBody(t, rec)
	assert.Equal(t, float64(3), payload["total"])
	assert.Len(t, payload["comments"], 2)
}

func TestGetTrackBySlug(t *testing.T) {
	env := newTestEnv(t)
	track := env.seedTrack(t, "Nightfall", "nightfall")
	rating := 4
	require.NoError(t, env.db.Create(&model.Comment{
		TrackID:  track.ID,
		Nickname: "ada",
		Content:  "solid",
		Rating:   &rating,
	}).Error)

	rec := env.do(http.MethodGet, "/api/tracks/nightfall", nil, "10.0.0.1:1234", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeBody(t, rec)
	assert.Equal(t, "Nightfall", payload["title"])
	assert.Equal(t, float64(4), payload["averageRating"])
	assert.Equal(t, float64(1), payload["ratingCount"])

	missing := env.do(http.MethodGet, "/api/tracks/unknown", nil, "10.0.0.1:1234", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestAdminStatsRequireToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/admin/stats/overview", nil, "10.0.0.1:1234", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	bad := env.do(http.MethodGet, "/api/admin/stats/overview", nil, "10.0.0.1:1234",
		map[string]string{"Authorization": "Bearer not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, bad.Code)
}

func TestLoginAndStatsOverview(t *testing.T) {
	env := newTestEnv(t)
	env.seedTrack(t, "Nightfall", "nightfall")

	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	require.NoError(t, env.db.Create(&model.User{
		Email:        "admin@example.com",
		Name:         "Admin",
		PasswordHash: hash,
	}).Error)

	denied := env.do(http.MethodPost, "/api/auth/login",
		map[string]string{"email": "admin@example.com", "password": "wrong"}, "10.0.0.1:1234", nil)
	require.Equal(t, http.StatusUnauthorized, denied.Code)

	login := env.do(http.MethodPost, "/api/auth/login",
		map[string]string{"email": "admin@example.com", "password": "hunter2"}, "10.0.0.1:1234", nil)
	require.Equal(t, http.StatusOK, login.Code)
	token := decodeBody(t, login)["token"].(string)
	require.NotEmpty(t, token)

	play := env.do(http.MethodPost, "/api/tracks/1/play", nil, "10.0.0.1:1234", nil)
	require.Equal(t, http.StatusOK, play.Code)

	headers := map[string]string{"Authorization": "Bearer " + token}
	overview := env.do(http.MethodGet, "/api/admin/stats/overview?range=7d", nil, "10.0.0.1:1234", headers)
	require.Equal(t, http.StatusOK, overview.Code)
	assert.Equal(t, float64(1), decodeBody(t, overview)["totalPlays"])

	invalid := env.do(http.MethodGet, "/api/admin/stats/overview?range=14d", nil, "10.0.0.1:1234", headers)
	assert.Equal(t, http.StatusBadRequest, invalid.Code)
}

func TestStatsTimeSeriesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedTrack(t, "Nightfall", "nightfall")

	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	require.NoError(t, env.db.Create(&model.User{Email: "admin@example.com", PasswordHash: hash}).Error)
	token, err := auth.GenerateToken(1, "admin@example.com", env.cfg.JWTSecret)
	require.NoError(t, err)
	headers := map[string]string{"Authorization": "Bearer " + token}

	require.Equal(t, http.StatusOK,
		env.do(http.MethodPost, "/api/tracks/1/play", nil, "10.0.0.1:1234", nil).Code)

	rec := env.do(http.MethodGet, "/api/admin/stats/timeseries?range=7d", nil, "10.0.0.1:1234", headers)
	require.Equal(t, http.StatusOK, rec.Code)

	points := decodeBody(t, rec)["points"].([]interface{})
	require.Len(t, points, 7)

	var total float64
	for _, p := range points {
		total += p.(map[string]interface{})["plays"].(float64)
	}
	assert.Equal(t, float64(1), total)
}

func TestRatingsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	track := env.seedTrack(t, "Nightfall", "nightfall")
	for _, r := range []int{5, 4} {
		rating := r
		require.NoError(t, env.db.Create(&model.Comment{
			TrackID:  track.ID,
			Nickname: "ada",
			Content:  "nice",
			Rating:   &rating,
		}).Error)
	}

	token, err := auth.GenerateToken(1, "admin@example.com", env.cfg.JWTSecret)
	require.NoError(t, err)

	rec := env.do(http.MethodGet, "/api/admin/ratings", nil, "10.0.0.1:1234",
		map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, rec.Code)

	tracks := decodeBody(t, rec)["tracks"].([]interface{})
	require.Len(t, tracks, 1)
	row := tracks[0].(map[string]interface{})
	assert.Equal(t, "Nightfall", row["title"])
	assert.Equal(t, float64(4.5), row["averageRating"])
	assert.Equal(t, float64(2), row["ratingCount"])
}
