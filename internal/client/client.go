// Package client implements the protocol from the consumer side: one
// persistent connection, a token adopted at login and a cursor tracking
// the last message already seen.
package client

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/AnnaAnvok/chat/internal/protocol"
)

// ErrConnectionLost is returned once the server side of the stream is
// gone; callers treat it as fatal.
var ErrConnectionLost = errors.New("connection to server lost")

type Client struct {
	conn net.Conn

	// mu makes every request/response exchange atomic so the poll
	// goroutine can never consume another call's response.
	mu       sync.Mutex
	token    string
	offsetID int64
}

func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Authorize performs a register or login exchange. The server's
// human-readable reply is returned in both outcomes; ok tells the
// caller whether the credentials were accepted.
func (c *Client) Authorize(route, username, password string) (reply string, ok bool, err error) {
	resp, err := c.roundTrip(protocol.Request{
		Route:    route,
		Username: username,
		Password: password,
	})
	if err != nil {
		return "", false, err
	}
	if resp.Success {
		c.mu.Lock()
		c.token = resp.Token
		c.mu.Unlock()
	}
	return resp.Message, resp.Success, nil
}

// Send posts one message and waits for the acknowledgement.
func (c *Client) Send(text string) error {
	resp, err := c.roundTrip(protocol.Request{
		Route:   protocol.RouteSendMessage,
		Message: text,
		Token:   c.currentToken(),
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return errors.New(resp.Message)
	}
	return nil
}

// Poll fetches messages newer than the cursor and advances it past the
// last one received.
func (c *Client) Poll() ([]protocol.ChatMessage, error) {
	resp, err := c.roundTrip(protocol.Request{
		Route:    protocol.RouteGetMessages,
		OffsetID: c.cursor(),
		Token:    c.currentToken(),
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New(resp.Message)
	}

	messages, err := protocol.ParseMessageList(resp.Message)
	if err != nil {
		return nil, fmt.Errorf("bad message list: %w", err)
	}
	if len(messages) > 0 {
		c.mu.Lock()
		c.offsetID = messages[len(messages)-1].ID
		c.mu.Unlock()
	}
	return messages, nil
}

func (c *Client) roundTrip(req protocol.Request) (protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := protocol.WriteMessage(c.conn, req); err != nil {
		return protocol.Response{}, ErrConnectionLost
	}
	var resp protocol.Response
	if err := protocol.ReadMessage(c.conn, &resp); err != nil {
		return protocol.Response{}, ErrConnectionLost
	}
	return resp, nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) cursor() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offsetID
}
