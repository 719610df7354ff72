package models

import "time"

type Message struct {
	ID        int64  `gorm:"primaryKey"`
	Text      string `gorm:"size:1024;not null"`
	UserID    int64  `gorm:"index;not null"`
	CreatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}
