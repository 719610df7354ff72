package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnnaAnvok/chat/internal/models"
	"github.com/AnnaAnvok/chat/internal/storage"
	"gorm.io/gorm"
)

func (d *Database) FindUserByHandle(ctx context.Context, handle string) (*models.User, error) {
	user := models.User{}
	err := d.db.WithContext(ctx).Where("username = ?", handle).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return &user, nil
}

func (d *Database) SaveUser(ctx context.Context, user *models.User) error {
	err := d.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

func (d *Database) UpdateUserToken(ctx context.Context, userID int64, token string) error {
	res := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("token", token)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
