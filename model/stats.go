package model

import "time"

// DateRange selects the statistics window.
type DateRange string

const (
	Range7d  DateRange = "7d"
	Range30d DateRange = "30d"
	Range90d DateRange = "90d"
	RangeAll DateRange = "all"
)

// Valid reports whether the range is one of the supported values.
func (r DateRange) Valid() bool {
	switch r {
	case Range7d, Range30d, Range90d, RangeAll:
		return true
	}
	return false
}

// StatsOverview is the KPI block of the admin dashboard. Plays and downloads
// are windowed by the requested range; comment and rating aggregates, track
// and theme totals are all-time. Trends compare against the immediately
// preceding period of equal length and are nil for the "all" range or when
// the previous period had no events.
type StatsOverview struct {
	TotalPlays     int64   `json:"totalPlays"`
	TotalDownloads int64   `json:"totalDownloads"`
	TotalComments  int64   `json:"totalComments"`
	AverageRating  float64 `json:"averageRating"`
	RatingCount    int64   `json:"ratingCount"`
	TotalTracks    int64   `json:"totalTracks"`
	TotalThemes    int64   `json:"totalThemes"`
	PlaysTrend     *int    `json:"playsTrend"`
	DownloadsTrend *int    `json:"downloadsTrend"`
}

// TimeSeriesPoint is one chart bucket. Date is the bucket start formatted as
// YYYY-MM-DD.
type TimeSeriesPoint struct {
	Date      string `json:"date"`
	Plays     int64  `json:"plays"`
	Downloads int64  `json:"downloads"`
}

// TopTrack is one row of a top-N ranking list.
type TopTrack struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Slug          string  `json:"slug"`
	ThemeName     string  `json:"themeName"`
	PlayCount     int64   `json:"playCount"`
	DownloadCount int64   `json:"downloadCount"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int64   `json:"ratingCount"`
}

// TopTracks holds the three independently sorted ranking lists.
type TopTracks struct {
	ByPlays     []TopTrack `json:"byPlays"`
	ByDownloads []TopTrack `json:"byDownloads"`
	ByRating    []TopTrack `json:"byRating"`
}

// ThemeStats is the per-theme rollup: all-time track count plus windowed
// play/download totals.
type ThemeStats struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	TrackCount     int64  `json:"trackCount"`
	TotalPlays     int64  `json:"totalPlays"`
	TotalDownloads int64  `json:"totalDownloads"`
}

// RecentEvent is one entry of the recent-activity feed.
type RecentEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	TrackTitle  string    `json:"trackTitle"`
	VersionName *string   `json:"versionName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TrackRatingSummary is the admin ratings listing: per-track comment volume
// and rating aggregate.
type TrackRatingSummary struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Slug          string  `json:"slug"`
	CommentCount  int64   `json:"commentCount"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int64   `json:"ratingCount"`
}
