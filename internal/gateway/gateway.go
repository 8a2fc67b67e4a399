// Package gateway wraps the Linq partner API: two-party chat creation,
// message delivery and thread history. It is the only component that talks
// to the external messaging service.
package gateway

import (
	"context"
	"time"
)

// ServiceIMessage and friends are the channel values the gateway reports
// for a recipient handle.
const (
	ServiceIMessage = "iMessage"
	ServiceSMS      = "SMS"
	ServiceRCS      = "RCS"
)

type Handle struct {
	Handle   string `json:"handle"`
	ID       string `json:"id"`
	IsMe     bool   `json:"is_me"`
	Service  string `json:"service"`
	Status   string `json:"status"`
	JoinedAt string `json:"joined_at"`
}

type Chat struct {
	ID        string    `json:"id"`
	Handles   []Handle  `json:"handles"`
	Service   string    `json:"service"`
	IsGroup   bool      `json:"is_group"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MessagePart struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Message struct {
	ID        string        `json:"id"`
	ChatID    string        `json:"chat_id"`
	From      string        `json:"from"`
	Parts     []MessagePart `json:"parts"`
	CreatedAt time.Time     `json:"created_at"`
}

// Gateway is the surface the engine consumes. Implemented by Client and by
// test mocks.
type Gateway interface {
	// CreateChat creates or continues a two-party thread from one of our
	// lines, optionally delivering an initial message.
	CreateChat(ctx context.Context, fromPhone, toPhone, message string) (*Chat, error)
	// GetMessages returns the most recent messages in a thread.
	GetMessages(ctx context.Context, chatID string, limit int) ([]Message, error)
}

// RecipientService returns the channel the non-me participant is on, or ""
// if the chat has no such handle.
func RecipientService(chat *Chat) string {
	for _, h := range chat.Handles {
		if !h.IsMe {
			return h.Service
		}
	}
	return ""
}

// Text flattens a message's text parts into one string.
func (m Message) Text() string {
	out := ""
	for _, p := range m.Parts {
		if p.Type != "text" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p.Value
	}
	return out
}
