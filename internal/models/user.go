package models

import "time"

type User struct {
	ID           int64  `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:32;not null"`
	PasswordHash string `gorm:"size:72;not null"`
	Token        string `gorm:"size:32"`
	CreatedAt    time.Time
}
