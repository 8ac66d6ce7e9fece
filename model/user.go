package model

import "time"

// User is an admin account. Visitors are anonymous; only admins authenticate.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Email        string    `json:"email" gorm:"size:200;uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"size:100"`
	PasswordHash string    `json:"-" gorm:"size:100;not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
