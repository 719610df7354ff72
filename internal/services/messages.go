package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/AnnaAnvok/chat/internal/models"
	"github.com/AnnaAnvok/chat/internal/storage"
)

// DefaultFetchLimit caps one get_messages response; a larger backlog is
// drained oldest-first over successive polls.
const DefaultFetchLimit = 50

// MessageService is the append-only chat log.
type MessageService struct {
	store storage.Store
	log   zerolog.Logger
}

func NewMessageService(store storage.Store, log zerolog.Logger) *MessageService {
	return &MessageService{store: store, log: log}
}

// Append stores a new message authored by user and returns it with its
// assigned identifier.
func (s *MessageService) Append(ctx context.Context, user *models.User, text string) (*models.Message, error) {
	message := &models.Message{
		Text:   text,
		UserID: user.ID,
		User:   *user,
	}
	if err := s.store.SaveMessage(ctx, message); err != nil {
		s.log.Error().Err(err).Str("handle", user.Username).Msg("append failed")
		return nil, ErrStorageUnavailable
	}
	return message, nil
}

// FetchSince returns up to limit messages with id strictly greater than
// cursor, ascending by id. limit <= 0 means DefaultFetchLimit.
func (s *MessageService) FetchSince(ctx context.Context, cursor int64, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	messages, err := s.store.MessagesAfter(ctx, cursor, limit)
	if err != nil {
		s.log.Error().Err(err).Int64("cursor", cursor).Msg("fetch failed")
		return nil, ErrStorageUnavailable
	}
	return messages, nil
}
