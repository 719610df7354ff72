package storage

import (
	"context"
	"sync"
	"time"

	"github.com/AnnaAnvok/chat/internal/models"
)

// Memory is an in-process Store. The server runs on it in -memory mode
// and the tests use it in place of postgres.
type Memory struct {
	mu          sync.RWMutex
	users       map[int64]*models.User
	byHandle    map[string]int64
	messages    []models.Message
	nextUser    int64
	nextMessage int64
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[int64]*models.User),
		byHandle: make(map[string]int64),
	}
}

func (m *Memory) FindUserByHandle(ctx context.Context, handle string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byHandle[handle]
	if !ok {
		return nil, ErrNotFound
	}
	u := *m.users[id]
	return &u, nil
}

func (m *Memory) SaveUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byHandle[user.Username]; ok {
		return ErrDuplicate
	}

	m.nextUser++
	user.ID = m.nextUser
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	u := *user
	m.users[u.ID] = &u
	m.byHandle[u.Username] = u.ID
	return nil
}

func (m *Memory) UpdateUserToken(ctx context.Context, userID int64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Token = token
	return nil
}

func (m *Memory) SaveMessage(ctx context.Context, message *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	author, ok := m.users[message.UserID]
	if !ok {
		return ErrNotFound
	}

	m.nextMessage++
	message.ID = m.nextMessage
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	message.User = *author

	m.messages = append(m.messages, *message)
	return nil
}

func (m *Memory) MessagesAfter(ctx context.Context, afterID int64, limit int) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Message, 0, limit)
	for _, msg := range m.messages {
		if msg.ID <= afterID {
			continue
		}
		out = append(out, msg)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
