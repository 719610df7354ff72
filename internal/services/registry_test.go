package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnnaAnvok/chat/internal/models"
	"github.com/AnnaAnvok/chat/internal/storage"
)

func newRegistry(store storage.Store) *SessionRegistry {
	return NewSessionRegistry(store, nil, zerolog.Nop())
}

// downStore simulates an unreachable database.
type downStore struct{}

func (downStore) FindUserByHandle(context.Context, string) (*models.User, error) {
	return nil, storage.ErrUnavailable
}
func (downStore) SaveUser(context.Context, *models.User) error {
	return storage.ErrUnavailable
}
func (downStore) UpdateUserToken(context.Context, int64, string) error {
	return storage.ErrUnavailable
}
func (downStore) SaveMessage(context.Context, *models.Message) error {
	return storage.ErrUnavailable
}
func (downStore) MessagesAfter(context.Context, int64, int) ([]models.Message, error) {
	return nil, storage.ErrUnavailable
}

func TestRegisterThenLogin(t *testing.T) {
	r := newRegistry(storage.NewMemory())
	ctx := context.Background()

	created, err := r.Register(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.Len(t, created.Token, 32)
	assert.True(t, r.Validate(ctx, created, created.Token))

	logged, err := r.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.Len(t, logged.Token, 32)

	// Login rotates the token, the registration-time one is dead now
	assert.NotEqual(t, created.Token, logged.Token)
	assert.False(t, r.Validate(ctx, created, created.Token))
	assert.True(t, r.Validate(ctx, logged, logged.Token))
}

func TestLoginWrongPasswordKeepsToken(t *testing.T) {
	store := storage.NewMemory()
	r := newRegistry(store)
	ctx := context.Background()

	created, err := r.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	_, err = r.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.True(t, IsAuthError(err))

	stored, err := store.FindUserByHandle(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.Token, stored.Token)
}

func TestLoginUnknownUser(t *testing.T) {
	r := newRegistry(storage.NewMemory())
	_, err := r.Login(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRegisterHandleTaken(t *testing.T) {
	r := newRegistry(storage.NewMemory())
	ctx := context.Background()

	_, err := r.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	_, err = r.Register(ctx, "alice", "another")
	assert.ErrorIs(t, err, ErrHandleTaken)
	assert.True(t, IsValidationError(err))
}

func TestRegisterRejectsBadCredentials(t *testing.T) {
	r := newRegistry(storage.NewMemory())
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"handle too short", "ab", "secret1", ErrInvalidHandle},
		{"handle too long", "a_very_long_handle_x", "secret1", ErrInvalidHandle},
		{"handle bad characters", "al ice!", "secret1", ErrInvalidHandle},
		{"handle empty", "", "secret1", ErrInvalidHandle},
		{"password too short", "alice", "ab", ErrWeakPassword},
		{"password too long", "alice", "seventeen_chars_x", ErrWeakPassword},
		{"password empty", "alice", "", ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Register(ctx, tc.username, tc.password)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	// Boundary values pass
	_, err := r.Register(ctx, "a_1", "p12")
	assert.NoError(t, err)
	_, err = r.Register(ctx, "sixteen_chars_0k", "sixteen_chars_0k")
	assert.NoError(t, err)
}

func TestValidateRejectsForeignToken(t *testing.T) {
	r := newRegistry(storage.NewMemory())
	ctx := context.Background()

	alice, err := r.Register(ctx, "alice", "secret1")
	require.NoError(t, err)
	bob, err := r.Register(ctx, "bob", "secret2")
	require.NoError(t, err)

	// Correct handle, someone else's token
	assert.False(t, r.Validate(ctx, alice, bob.Token))
	assert.False(t, r.Validate(ctx, alice, ""))
	assert.False(t, r.Validate(ctx, nil, alice.Token))
	assert.True(t, r.Validate(ctx, alice, alice.Token))
}

func TestStorageUnavailableIsReportedNotFatal(t *testing.T) {
	r := newRegistry(downStore{})
	ctx := context.Background()

	_, err := r.Register(ctx, "alice", "secret1")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = r.Login(ctx, "alice", "secret1")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	assert.False(t, r.Validate(ctx, &models.User{Username: "alice", Token: "t"}, "t"))
}
