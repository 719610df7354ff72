package database

import (
	"context"
	"fmt"

	"github.com/AnnaAnvok/chat/internal/models"
	"github.com/AnnaAnvok/chat/internal/storage"
)

func (d *Database) SaveMessage(ctx context.Context, message *models.Message) error {
	// Omit, чтобы Create не трогал связанного пользователя
	err := d.db.WithContext(ctx).Omit("User").Create(message).Error
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

func (d *Database) MessagesAfter(ctx context.Context, afterID int64, limit int) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Preload("User").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}

	return messages, nil
}
