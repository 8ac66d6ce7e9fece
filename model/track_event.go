package model

import "time"

// EventType distinguishes the two kinds of tracked occurrences.
type EventType string

const (
	EventPlay     EventType = "PLAY"
	EventDownload EventType = "DOWNLOAD"
)

// TrackEvent is an immutable fact: one qualifying play or download of a track
// (optionally of a specific version). Rows are append-only; CreatedAt is the
// authoritative ordering key. VisitorHash is a salted hash of the client
// address, never the raw IP.
type TrackEvent struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Type        EventType `json:"type" gorm:"size:16;not null;index:idx_track_events_type_created,priority:1"`
	TrackID     int64     `json:"trackId" gorm:"not null;index:idx_track_events_dedup,priority:2"`
	VersionID   *int64    `json:"versionId"`
	VisitorHash string    `json:"-" gorm:"size:16;index:idx_track_events_dedup,priority:1"`
	UserAgent   string    `json:"-" gorm:"size:500"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index:idx_track_events_type_created,priority:2"`
}
