package database

import (
	"github.com/AnnaAnvok/chat/internal/storage"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

var _ storage.Store = (*Database)(nil)

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}
