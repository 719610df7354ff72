// Package session drives one client connection: it reads framed
// requests, dispatches them by route and writes a response for every
// request, including send_message.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AnnaAnvok/chat/internal/models"
	"github.com/AnnaAnvok/chat/internal/protocol"
	"github.com/AnnaAnvok/chat/internal/services"
)

// Session is the per-connection state machine. It starts anonymous and
// becomes authenticated after a successful register or login; it holds
// at most one user at a time.
type Session struct {
	conn     net.Conn
	registry *services.SessionRegistry
	messages *services.MessageService
	user     *models.User
	log      zerolog.Logger
}

func New(conn net.Conn, registry *services.SessionRegistry, messages *services.MessageService, log zerolog.Logger) *Session {
	return &Session{
		conn:     conn,
		registry: registry,
		messages: messages,
		log:      log.With().Stringer("conn", uuid.New()).Logger(),
	}
}

// Run serves requests until the peer disconnects, the frame stream
// becomes unrecoverable or ctx is cancelled. The connection is closed
// on return.
func (s *Session) Run(ctx context.Context) {
	defer s.conn.Close()

	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stop()

	s.log.Debug().Str("remote", s.conn.RemoteAddr().String()).Msg("session started")

	for {
		var req protocol.Request
		err := protocol.ReadMessage(s.conn, &req)
		if errors.Is(err, protocol.ErrBadPayload) {
			// The frame boundary held, only the JSON inside was bad.
			resp := s.failure(errors.New("malformed request"))
			if err := protocol.WriteMessage(s.conn, resp); err != nil {
				return
			}
			continue
		}
		if err != nil {
			s.handleReadError(ctx, err)
			return
		}

		resp := s.handle(ctx, req)
		if err := protocol.WriteMessage(s.conn, resp); err != nil {
			s.log.Debug().Err(err).Msg("write failed, dropping session")
			return
		}
	}
}

func (s *Session) handle(ctx context.Context, req protocol.Request) protocol.Response {
	switch req.Route {
	case protocol.RouteRegister:
		user, err := s.registry.Register(ctx, req.Username, req.Password)
		if err != nil {
			return s.failure(err)
		}
		s.user = user
		return s.success(fmt.Sprintf("Welcome to the chat, %s! Your account is ready.", user.Username))

	case protocol.RouteLogin:
		user, err := s.registry.Login(ctx, req.Username, req.Password)
		if err != nil {
			return s.failure(err)
		}
		s.user = user
		return s.success(fmt.Sprintf("Welcome back, %s!", user.Username))

	case protocol.RouteSendMessage:
		if err := s.authorize(ctx, req.Token); err != nil {
			return s.failure(err)
		}
		if _, err := s.messages.Append(ctx, s.user, req.Message); err != nil {
			return s.failure(err)
		}
		return s.success("OK")

	case protocol.RouteGetMessages:
		if err := s.authorize(ctx, req.Token); err != nil {
			return s.failure(err)
		}
		messages, err := s.messages.FetchSince(ctx, req.OffsetID, 0)
		if err != nil {
			return s.failure(err)
		}
		payload, err := protocol.MessageList(toChatMessages(messages))
		if err != nil {
			return s.failure(services.ErrStorageUnavailable)
		}
		return s.success(payload)

	default:
		return s.failure(fmt.Errorf("unknown route: %s", req.Route))
	}
}

// authorize enforces the authenticated-state precondition: a session
// user must exist and the presented token must still be the stored one.
func (s *Session) authorize(ctx context.Context, token string) error {
	if s.user == nil {
		return services.ErrNotAuthenticated
	}
	if !s.registry.Validate(ctx, s.user, token) {
		return services.ErrInvalidToken
	}
	return nil
}

func (s *Session) success(message string) protocol.Response {
	return protocol.Response{Success: true, Message: message, Token: s.token()}
}

func (s *Session) failure(err error) protocol.Response {
	return protocol.Response{Success: false, Message: err.Error(), Token: s.token()}
}

func (s *Session) token() string {
	if s.user == nil {
		return ""
	}
	return s.user.Token
}

func (s *Session) handleReadError(ctx context.Context, err error) {
	switch {
	case errors.Is(err, io.EOF):
		s.log.Debug().Msg("peer disconnected")
	case ctx.Err() != nil:
		s.log.Debug().Msg("session cancelled")
	case errors.Is(err, protocol.ErrFrameTooLarge), errors.Is(err, protocol.ErrEmptyFrame):
		// Protocol violation: answer once, then drop the connection
		// since the stream position can no longer be trusted.
		resp := s.failure(fmt.Errorf("malformed frame: %v", err))
		_ = protocol.WriteMessage(s.conn, resp)
		s.log.Warn().Err(err).Msg("protocol violation")
	default:
		s.log.Debug().Err(err).Msg("read failed, dropping session")
	}
}

func toChatMessages(messages []models.Message) []protocol.ChatMessage {
	out := make([]protocol.ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, protocol.ChatMessage{
			ID:   m.ID,
			User: m.User.Username,
			Msg:  m.Text,
		})
	}
	return out
}
