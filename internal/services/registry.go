package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/AnnaAnvok/chat/internal/models"
	"github.com/AnnaAnvok/chat/internal/storage"
)

var handleRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type credentials struct {
	Username string `validate:"required,min=3,max=16,handle"`
	Password string `validate:"required,min=3,max=16"`
}

// SessionRegistry owns the identity side of the protocol: it creates
// users, verifies credentials and rotates/validates access tokens.
// Tokens are opaque 32-char hex strings; a login invalidates every
// previously issued token for that user.
type SessionRegistry struct {
	store    storage.Store
	cache    *redis.Client // nil when no cache is configured
	validate *validator.Validate
	log      zerolog.Logger
}

func NewSessionRegistry(store storage.Store, cache *redis.Client, log zerolog.Logger) *SessionRegistry {
	v := validator.New()
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return handleRe.MatchString(fl.Field().String())
	})
	return &SessionRegistry{store: store, cache: cache, validate: v, log: log}
}

// Register creates a user with a hashed password and a fresh token.
func (r *SessionRegistry) Register(ctx context.Context, username, password string) (*models.User, error) {
	if err := r.checkCredentials(username, password); err != nil {
		return nil, err
	}

	_, err := r.store.FindUserByHandle(ctx, username)
	switch {
	case err == nil:
		return nil, ErrHandleTaken
	case !errors.Is(err, storage.ErrNotFound):
		return nil, r.unavailable("register lookup", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, r.unavailable("hash password", err)
	}

	token, err := newToken()
	if err != nil {
		return nil, r.unavailable("issue token", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Token:        token,
		CreatedAt:    time.Now(),
	}
	if err := r.store.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			// Кто-то успел занять логин между проверкой и записью
			return nil, ErrHandleTaken
		}
		return nil, r.unavailable("save user", err)
	}

	r.cacheToken(ctx, username, token)
	r.log.Info().Str("handle", username).Msg("user registered")
	return user, nil
}

// Login verifies the password and rotates the user's token.
func (r *SessionRegistry) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := r.store.FindUserByHandle(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, r.unavailable("login lookup", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}

	token, err := newToken()
	if err != nil {
		return nil, r.unavailable("issue token", err)
	}
	if err := r.store.UpdateUserToken(ctx, user.ID, token); err != nil {
		return nil, r.unavailable("rotate token", err)
	}
	user.Token = token

	r.cacheToken(ctx, username, token)
	r.log.Info().Str("handle", username).Msg("user logged in")
	return user, nil
}

// Validate compares the presented token with the user's current stored
// token. A token rotated away by a newer login no longer validates,
// regardless of what the session still holds.
func (r *SessionRegistry) Validate(ctx context.Context, user *models.User, token string) bool {
	if user == nil || token == "" {
		return false
	}

	current, ok := r.currentToken(ctx, user.Username)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(current), []byte(token)) == 1
}

func (r *SessionRegistry) checkCredentials(username, password string) error {
	err := r.validate.Struct(credentials{Username: username, Password: password})
	if err == nil {
		return nil
	}

	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		for _, f := range fields {
			if f.Field() == "Username" {
				return ErrInvalidHandle
			}
		}
		return ErrWeakPassword
	}
	return ErrInvalidHandle
}

func (r *SessionRegistry) currentToken(ctx context.Context, handle string) (string, bool) {
	if r.cache != nil {
		token, err := r.cache.Get(ctx, tokenKey(handle)).Result()
		if err == nil {
			return token, true
		}
		if err != redis.Nil {
			r.log.Warn().Err(err).Msg("token cache read failed")
		}
	}

	user, err := r.store.FindUserByHandle(ctx, handle)
	if err != nil {
		return "", false
	}
	r.cacheToken(ctx, handle, user.Token)
	return user.Token, user.Token != ""
}

// cacheToken is write-through; the store stays authoritative and cache
// failures only cost a lookup.
func (r *SessionRegistry) cacheToken(ctx context.Context, handle, token string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, tokenKey(handle), token, 24*time.Hour).Err(); err != nil {
		r.log.Warn().Err(err).Msg("token cache write failed")
	}
}

func (r *SessionRegistry) unavailable(op string, err error) error {
	r.log.Error().Err(err).Str("op", op).Msg("storage failure")
	return ErrStorageUnavailable
}

func tokenKey(handle string) string {
	return "token:" + handle
}
