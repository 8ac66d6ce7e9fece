package model

import "time"

// Comment is a visitor comment on a track, optionally carrying a 1-5 star
// rating. Admin replies reference their parent through ParentID and never
// carry a rating. Rating values feed the average-rating aggregates in the
// statistics views.
type Comment struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TrackID      int64     `json:"trackId" gorm:"index;not null"`
	VersionID    *int64    `json:"versionId"`
	ParentID     *int64    `json:"parentId" gorm:"index"`
	Nickname     string    `json:"nickname" gorm:"size:50;not null"`
	Content      string    `json:"content" gorm:"type:text;not null"`
	Rating       *int      `json:"rating"`
	IsAdminReply bool      `json:"isAdminReply"`
	VisitorHash  string    `json:"-" gorm:"size:16"`
	CreatedAt    time.Time `json:"createdAt"`

	Replies []Comment `json:"replies,omitempty" gorm:"foreignKey:ParentID"`
}
