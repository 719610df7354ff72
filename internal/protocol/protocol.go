package protocol

import "encoding/json"

// Routes a client may request.
const (
	RouteRegister    = "register"
	RouteLogin       = "login"
	RouteSendMessage = "send_message"
	RouteGetMessages = "get_messages"
)

type Request struct {
	Route    string `json:"route"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Message  string `json:"message,omitempty"`
	OffsetID int64  `json:"offset_id,omitempty"`
	Token    string `json:"token,omitempty"`
}

// Response is sent for every request. Token carries the caller's current
// token ("" while anonymous) so the client can adopt one issued during
// the same exchange.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// ChatMessage is one element of a successful get_messages payload.
type ChatMessage struct {
	ID   int64  `json:"id"`
	User string `json:"user"`
	Msg  string `json:"msg"`
}

// MessageList packs messages into the Message field of a Response.
func MessageList(messages []ChatMessage) (string, error) {
	if messages == nil {
		messages = []ChatMessage{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseMessageList is the client-side inverse of MessageList.
func ParseMessageList(payload string) ([]ChatMessage, error) {
	var messages []ChatMessage
	if err := json.Unmarshal([]byte(payload), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
