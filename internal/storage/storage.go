package storage

import (
	"context"
	"errors"

	"github.com/AnnaAnvok/chat/internal/models"
)

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrDuplicate   = errors.New("storage: duplicate handle")
	ErrUnavailable = errors.New("storage: unavailable")
)

// Store is the persistence collaborator consumed by the services layer.
// Implementations must be safe for concurrent callers and must report
// unavailability distinctly from not-found.
type Store interface {
	FindUserByHandle(ctx context.Context, handle string) (*models.User, error)

	// SaveUser persists a new user and assigns its ID. A taken handle
	// yields ErrDuplicate.
	SaveUser(ctx context.Context, user *models.User) error

	UpdateUserToken(ctx context.Context, userID int64, token string) error

	// SaveMessage persists a new message and assigns the next identifier.
	// Identifier assignment is linearizable: concurrent callers never
	// receive the same id.
	SaveMessage(ctx context.Context, message *models.Message) error

	// MessagesAfter returns up to limit messages with id strictly greater
	// than afterID, ascending by id, with the authoring user attached.
	MessagesAfter(ctx context.Context, afterID int64, limit int) ([]models.Message, error)
}
