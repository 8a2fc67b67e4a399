// internal/gateway/client.go
package gateway

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/trailblaize/outreach-backend/internal/config"
	appErrors "github.com/trailblaize/outreach-backend/internal/errors"
)

// Client is the resty-backed Gateway implementation.
type Client struct {
	httpClient *resty.Client
}

// NewClient configures a gateway client from config.
func NewClient(cfg config.GatewayConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway baseURL cannot be empty")
	}
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("gateway API token cannot be empty")
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)

	log.Info().Str("baseURL", cfg.BaseURL).Msg("Messaging gateway client configured")

	return &Client{httpClient: httpClient}, nil
}

type createChatRequest struct {
	From    string       `json:"from"`
	To      []string     `json:"to"`
	Message *chatMessage `json:"message,omitempty"`
}

type chatMessage struct {
	Parts []MessagePart `json:"parts"`
}

// CreateChat creates or continues a two-party thread, optionally with an
// initial message.
func (c *Client) CreateChat(ctx context.Context, fromPhone, toPhone, message string) (*Chat, error) {
	body := createChatRequest{From: fromPhone, To: []string{toPhone}}
	if message != "" {
		body.Message = &chatMessage{Parts: []MessagePart{{Type: "text", Value: message}}}
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&Chat{}).
		Post("/chats")
	if err != nil {
		return nil, appErrors.NewGateway("createChat", err)
	}
	if resp.IsError() {
		log.Error().Str("from", fromPhone).Int("statusCode", resp.StatusCode()).
			Str("responseBody", resp.String()).Msg("Gateway createChat returned an error")
		return nil, appErrors.NewGateway("createChat",
			fmt.Errorf("status %s: %s", resp.Status(), resp.String()))
	}

	return resp.Result().(*Chat), nil
}

type messagesResponse struct {
	Messages []Message `json:"messages"`
}

// GetMessages returns the most recent messages in a thread, newest last.
func (c *Client) GetMessages(ctx context.Context, chatID string, limit int) ([]Message, error) {
	var result messagesResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&result).
		Get("/chats/" + chatID + "/messages")
	if err != nil {
		return nil, appErrors.NewGateway("getMessages", err)
	}
	if resp.IsError() {
		log.Error().Str("chatID", chatID).Int("statusCode", resp.StatusCode()).
			Str("responseBody", resp.String()).Msg("Gateway getMessages returned an error")
		return nil, appErrors.NewGateway("getMessages",
			fmt.Errorf("status %s: %s", resp.Status(), resp.String()))
	}

	return result.Messages, nil
}

var _ Gateway = (*Client)(nil)
