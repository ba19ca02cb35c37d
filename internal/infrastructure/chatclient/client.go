// Package chatclient talks to a Stream-style chat REST API. Requests
// carry the app key as an api_key query parameter and a server-side
// HS256 token in the Authorization header.
package chatclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"coachchat/ai-bridge/internal/domain/chat"
)

const channelType = "messaging"

// Client implements chat.Messenger.
type Client struct {
	httpClient *resty.Client
	secret     []byte
	log        zerolog.Logger
}

// NewClient mints the long-lived server token and configures the REST
// client. The same secret later signs per-user frontend tokens.
func NewClient(baseURL, apiKey, apiSecret string, log zerolog.Logger) (*Client, error) {
	secret := []byte(apiSecret)
	serverToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"server": true,
	}).SignedString(secret)
	if err != nil {
		return nil, fmt.Errorf("sign server token: %w", err)
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("stream-auth-type", "jwt").
		SetHeader("Authorization", serverToken).
		SetQueryParam("api_key", apiKey).
		SetTimeout(10 * time.Second)

	return &Client{
		httpClient: httpClient,
		secret:     secret,
		log:        log.With().Str("component", "chat-client").Logger(),
	}, nil
}

// MintUserToken signs a frontend token for the given chat user.
func (c *Client) MintUserToken(userID string) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
	}).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign user token: %w", err)
	}
	return token, nil
}

type messageEnvelope struct {
	Message wireMessage `json:"message"`
}

type wireMessage struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	User      wireUser  `json:"user"`
	UpdatedAt time.Time `json:"updated_at"`
}

type wireUser struct {
	ID string `json:"id"`
}

// CreateMessage posts a message to the channel and returns its ID.
func (c *Client) CreateMessage(ctx context.Context, channelCID string, msg chat.NewMessage, authorID string) (string, error) {
	payload := map[string]any{
		"message": map[string]any{
			"text":         msg.Text,
			"ai_generated": msg.AIGenerated,
			"user_id":      authorID,
		},
	}

	var out messageEnvelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&out).
		Post(fmt.Sprintf("/channels/%s/%s/message", channelType, channelID(channelCID)))
	if err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("chat api error: %s", resp.String())
	}
	return out.Message.ID, nil
}

// UpdateMessagePartial edits text/generating of an existing message.
func (c *Client) UpdateMessagePartial(ctx context.Context, messageID string, set chat.MessageUpdate, authorID string) error {
	payload := map[string]any{
		"set": map[string]any{
			"text":       set.Text,
			"generating": set.Generating,
		},
		"user_id": authorID,
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Put("/messages/" + messageID)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("chat api error: %s", resp.String())
	}
	return nil
}

// SendEvent emits an indicator event on the channel.
func (c *Client) SendEvent(ctx context.Context, channelCID string, event chat.Event, authorID string) error {
	wire := map[string]any{
		"type":       string(event.Type),
		"message_id": event.MessageID,
		"user_id":    authorID,
	}
	if event.AIState != "" {
		wire["ai_state"] = string(event.AIState)
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{"event": wire}).
		Post(fmt.Sprintf("/channels/%s/%s/event", channelType, channelID(channelCID)))
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("chat api error: %s", resp.String())
	}
	return nil
}

// AddMembers adds users to the channel.
func (c *Client) AddMembers(ctx context.Context, channelCID string, userIDs []string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{"add_members": userIDs}).
		Post(fmt.Sprintf("/channels/%s/%s", channelType, channelID(channelCID)))
	if err != nil {
		return fmt.Errorf("add members: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("chat api error: %s", resp.String())
	}
	return nil
}

type searchResponse struct {
	Results []messageEnvelope `json:"results"`
}

// SearchMessages returns up to limit regular channel messages, most
// recent first.
func (c *Client) SearchMessages(ctx context.Context, channelCID string, limit int) ([]chat.SearchMessage, error) {
	payload := map[string]any{
		"filter_conditions": map[string]any{
			"cid": fullCID(channelCID),
		},
		"message_filter_conditions": map[string]any{
			"type": "regular",
		},
		"sort":  []map[string]any{{"field": "updated_at", "direction": -1}},
		"limit": limit,
	}

	var out searchResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&out).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chat api error: %s", resp.String())
	}

	messages := make([]chat.SearchMessage, 0, len(out.Results))
	for _, r := range out.Results {
		messages = append(messages, chat.SearchMessage{
			ID:        r.Message.ID,
			Type:      r.Message.Type,
			Text:      r.Message.Text,
			AuthorID:  r.Message.User.ID,
			UpdatedAt: r.Message.UpdatedAt,
		})
	}
	return messages, nil
}

// Ensure interface compliance.
var _ chat.Messenger = (*Client)(nil)

// channelID accepts either a bare channel ID or a fully qualified CID.
func channelID(cid string) string {
	if _, id, ok := strings.Cut(cid, ":"); ok && id != "" {
		return id
	}
	return cid
}

func fullCID(cid string) string {
	if strings.Contains(cid, ":") {
		return cid
	}
	return channelType + ":" + cid
}
