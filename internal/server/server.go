package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/AnnaAnvok/chat/internal/services"
	"github.com/AnnaAnvok/chat/internal/session"
)

// Server accepts TCP connections and runs one session goroutine per
// connection. Sessions are independent: a torn-down connection never
// affects the others.
type Server struct {
	addr     string
	registry *services.SessionRegistry
	messages *services.MessageService
	log      zerolog.Logger

	ln      net.Listener
	wg      sync.WaitGroup
	started time.Time
	active  atomic.Int64
	served  atomic.Int64
}

func New(addr string, registry *services.SessionRegistry, messages *services.MessageService, log zerolog.Logger) *Server {
	return &Server{
		addr:     addr,
		registry: registry,
		messages: messages,
		log:      log,
	}
}

// Listen binds the TCP listener without serving yet, so callers can
// read the bound address when the port was 0.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.ln = ln
	s.started = time.Now()
	return nil
}

func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve runs the accept loop until ctx is cancelled, then closes the
// listener and waits for live sessions to finish.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	stop := context.AfterFunc(ctx, func() { s.ln.Close() })
	defer stop()

	s.log.Info().Str("addr", s.ln.Addr().String()).Msg("chat server listening")

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.log.Warn().Err(err).Msg("accept failed")
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.active.Add(1)
			s.served.Add(1)
			defer s.active.Add(-1)

			sess := session.New(conn, s.registry, s.messages, s.log)
			sess.Run(ctx)
		}()
	}

	s.wg.Wait()
	s.log.Info().Msg("chat server stopped")
	return nil
}

// Stats is the snapshot served by the ops endpoint.
type Stats struct {
	ActiveConnections int64         `json:"active_connections"`
	ServedConnections int64         `json:"served_connections"`
	Uptime            time.Duration `json:"-"`
}

func (s *Server) Stats() Stats {
	return Stats{
		ActiveConnections: s.active.Load(),
		ServedConnections: s.served.Load(),
		Uptime:            time.Since(s.started),
	}
}
