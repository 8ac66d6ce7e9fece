// Package stats turns raw track events into the aggregates behind the admin
// dashboard: overview KPIs, time-bucketed series, top-N rankings, per-theme
// rollups and the recent-activity feed.
package stats

import (
	"context"
	"sort"
	"time"

	"dzika/model"
	"dzika/repository"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTopLimit      = 10
	defaultActivityLimit = 20
)

// Service is the aggregation engine. All reads are side-effect free; windowed
// numbers derive from raw events, all-time rankings from the denormalized
// counters.
type Service struct {
	events   repository.EventRepository
	tracks   repository.TrackRepository
	themes   repository.ThemeRepository
	comments repository.CommentRepository
}

// NewService creates a new stats Service.
func NewService(
	events repository.EventRepository,
	tracks repository.TrackRepository,
	themes repository.ThemeRepository,
	comments repository.CommentRepository,
) *Service {
	return &Service{
		events:   events,
		tracks:   tracks,
		themes:   themes,
		comments: comments,
	}
}

// Overview computes the KPI block. The independent sub-queries run
// concurrently; a failure of any of them fails the whole call rather than
// returning partial zeros.
func (s *Service) Overview(ctx context.Context, rng model.DateRange) (*model.StatsOverview, error) {
	now := time.Now()
	start := windowStart(rng, now)
	prevStart, prevEnd, hasPrev := previousWindow(rng, now)

	var (
		plays, downloads         int64
		prevPlays, prevDownloads int64
		commentCount             int64
		ratingAgg                repository.RatingAggregate
		trackCount, themeCount   int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		plays, err = s.events.CountByType(gctx, model.EventPlay, start, nil)
		return err
	})
	g.Go(func() (err error) {
		downloads, err = s.events.CountByType(gctx, model.EventDownload, start, nil)
		return err
	})
	g.Go(func() (err error) {
		commentCount, err = s.comments.CountTopLevel(gctx)
		return err
	})
	g.Go(func() (err error) {
		ratingAgg, err = s.comments.RatingAggregate(gctx)
		return err
	})
	g.Go(func() (err error) {
		trackCount, err = s.tracks.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		themeCount, err = s.themes.Count(gctx)
		return err
	})
	if hasPrev {
		g.Go(func() (err error) {
			prevPlays, err = s.events.CountByType(gctx, model.EventPlay, &prevStart, &prevEnd)
			return err
		})
		g.Go(func() (err error) {
			prevDownloads, err = s.events.CountByType(gctx, model.EventDownload, &prevStart, &prevEnd)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &model.StatsOverview{
		TotalPlays:     plays,
		TotalDownloads: downloads,
		TotalComments:  commentCount,
		AverageRating:  round1(ratingAgg.Average),
		RatingCount:    ratingAgg.Count,
		TotalTracks:    trackCount,
		TotalThemes:    themeCount,
		PlaysTrend:     trendPercent(plays, prevPlays, hasPrev),
		DownloadsTrend: trendPercent(downloads, prevDownloads, hasPrev),
	}, nil
}

// TimeSeries produces one point per bucket in [start, now]. Buckets with no
// events are zero-filled so the series stays contiguous and chart-ready. For
// the unbounded "all" range there is no fixed start to walk from; points
// reflect whatever buckets exist in the data.
func (s *Service) TimeSeries(ctx context.Context, rng model.DateRange) ([]model.TimeSeriesPoint, error) {
	now := time.Now()
	start := windowStart(rng, now)
	gran := granularityFor(rng)

	rows, err := s.events.EventTimes(ctx, start)
	if err != nil {
		return nil, err
	}

	type bucket struct{ plays, downloads int64 }
	counts := make(map[string]*bucket)
	var keys []string // ascending, rows arrive ordered by created_at
	for _, row := range rows {
		key := bucketKey(row.CreatedAt, gran)
		b, ok := counts[key]
		if !ok {
			b = &bucket{}
			counts[key] = b
			keys = append(keys, key)
		}
		if row.Type == model.EventPlay {
			b.plays++
		} else {
			b.downloads++
		}
	}

	points := make([]model.TimeSeriesPoint, 0, len(keys))
	if start != nil {
		for cursor := bucketStart(*start, gran); !cursor.After(now); cursor = nextBucket(cursor, gran) {
			key := cursor.Format("2006-01-02")
			point := model.TimeSeriesPoint{Date: key}
			if b, ok := counts[key]; ok {
				point.Plays = b.plays
				point.Downloads = b.downloads
			}
			points = append(points, point)
		}
		return points, nil
	}

	for _, key := range keys {
		b := counts[key]
		points = append(points, model.TimeSeriesPoint{Date: key, Plays: b.plays, Downloads: b.downloads})
	}
	return points, nil
}

// TopTracks returns the three ranking lists. Windowed ranges rank plays and
// downloads by event-derived counts; "all" uses the denormalized counters,
// which are authoritative for all-time totals. The rating list is always
// unwindowed and never contains a track without ratings.
func (s *Service) TopTracks(ctx context.Context, rng model.DateRange, limit int) (*model.TopTracks, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}

	var (
		base    []model.TopTrack
		ratings []repository.TrackRatingRow
		counts  []repository.TrackTypeCount
	)

	now := time.Now()
	start := windowStart(rng, now)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		base, err = s.tracks.TopTrackRows(gctx)
		return err
	})
	g.Go(func() (err error) {
		ratings, err = s.comments.RatingsByTrack(gctx)
		return err
	})
	if rng != model.RangeAll {
		g.Go(func() (err error) {
			counts, err = s.events.CountsByTrack(gctx, start)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ratingByTrack := make(map[int64]repository.TrackRatingRow, len(ratings))
	for _, row := range ratings {
		ratingByTrack[row.TrackID] = row
	}
	for i := range base {
		if row, ok := ratingByTrack[base[i].ID]; ok {
			base[i].AverageRating = round1(row.Average)
			base[i].RatingCount = row.Count
		}
	}

	ranked := base
	if rng != model.RangeAll {
		playByTrack := make(map[int64]int64)
		downloadByTrack := make(map[int64]int64)
		for _, row := range counts {
			if row.Type == model.EventPlay {
				playByTrack[row.TrackID] = row.Count
			} else {
				downloadByTrack[row.TrackID] = row.Count
			}
		}
		ranked = make([]model.TopTrack, len(base))
		copy(ranked, base)
		for i := range ranked {
			ranked[i].PlayCount = playByTrack[ranked[i].ID]
			ranked[i].DownloadCount = downloadByTrack[ranked[i].ID]
		}
	}

	byPlays := sortedCopy(ranked, func(a, b model.TopTrack) bool { return a.PlayCount > b.PlayCount })
	byDownloads := sortedCopy(ranked, func(a, b model.TopTrack) bool { return a.DownloadCount > b.DownloadCount })

	rated := make([]model.TopTrack, 0, len(base))
	for _, track := range base {
		if track.RatingCount > 0 {
			rated = append(rated, track)
		}
	}
	byRating := sortedCopy(rated, func(a, b model.TopTrack) bool { return a.AverageRating > b.AverageRating })

	return &model.TopTracks{
		ByPlays:     truncate(byPlays, limit),
		ByDownloads: truncate(byDownloads, limit),
		ByRating:    truncate(byRating, limit),
	}, nil
}

// ThemeStats rolls windowed play/download totals up to themes by joining
// per-track event counts against the track-to-theme mapping in memory.
func (s *Service) ThemeStats(ctx context.Context, rng model.DateRange) ([]model.ThemeStats, error) {
	now := time.Now()
	start := windowStart(rng, now)

	var (
		themes       []model.ThemeStats
		counts       []repository.TrackTypeCount
		themeByTrack map[int64]int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		themes, err = s.themes.ListWithTrackCounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		counts, err = s.events.CountsByTrack(gctx, start)
		return err
	})
	g.Go(func() (err error) {
		themeByTrack, err = s.tracks.ThemeIDsByTrack(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	playsByTheme := make(map[int64]int64)
	downloadsByTheme := make(map[int64]int64)
	for _, row := range counts {
		themeID, ok := themeByTrack[row.TrackID]
		if !ok {
			continue
		}
		if row.Type == model.EventPlay {
			playsByTheme[themeID] += row.Count
		} else {
			downloadsByTheme[themeID] += row.Count
		}
	}

	for i := range themes {
		themes[i].TotalPlays = playsByTheme[themes[i].ID]
		themes[i].TotalDownloads = downloadsByTheme[themes[i].ID]
	}
	return themes, nil
}

// RecentActivity returns the newest events across all tracks, newest first,
// always unwindowed.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]model.RecentEvent, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	return s.events.Recent(ctx, limit)
}

func sortedCopy(tracks []model.TopTrack, less func(a, b model.TopTrack) bool) []model.TopTrack {
	out := make([]model.TopTrack, len(tracks))
	copy(out, tracks)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func truncate(tracks []model.TopTrack, limit int) []model.TopTrack {
	if len(tracks) > limit {
		return tracks[:limit]
	}
	return tracks
}
