package stats

import (
	"time"

	"dzika/model"
)

// granularity is the bucket width of a time series.
type granularity int

const (
	granularityDay granularity = iota
	granularityWeek
	granularityMonth
)

func rangeDays(r model.DateRange) int {
	switch r {
	case model.Range7d:
		return 7
	case model.Range30d:
		return 30
	case model.Range90d:
		return 90
	}
	return 0
}

func granularityFor(r model.DateRange) granularity {
	switch r {
	case model.Range7d, model.Range30d:
		return granularityDay
	case model.Range90d:
		return granularityWeek
	}
	return granularityMonth
}

// windowStart returns the inclusive lower bound of the current window: the
// start of the day N-1 days ago, so the window covers exactly N calendar
// days including today. Nil for the unbounded "all" range.
func windowStart(r model.DateRange, now time.Time) *time.Time {
	days := rangeDays(r)
	if days == 0 {
		return nil
	}
	start := startOfDay(now.AddDate(0, 0, -(days - 1)))
	return &start
}

// previousWindow returns the bounds [start, end) of the period of identical
// length immediately before the current window. ok is false for "all".
func previousWindow(r model.DateRange, now time.Time) (start, end time.Time, ok bool) {
	days := rangeDays(r)
	if days == 0 {
		return time.Time{}, time.Time{}, false
	}
	end = *windowStart(r, now)
	start = end.AddDate(0, 0, -days)
	return start, end, true
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// bucketStart truncates a timestamp to the start of its bucket: midnight for
// daily buckets, Monday midnight for weekly, the first of the month for
// monthly.
func bucketStart(t time.Time, g granularity) time.Time {
	day := startOfDay(t)
	switch g {
	case granularityWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case granularityMonth:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	}
	return day
}

func nextBucket(t time.Time, g granularity) time.Time {
	switch g {
	case granularityWeek:
		return t.AddDate(0, 0, 7)
	case granularityMonth:
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

func bucketKey(t time.Time, g granularity) string {
	return bucketStart(t, g).Format("2006-01-02")
}
