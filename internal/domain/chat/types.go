package chat

import (
	"context"
	"time"
)

// Role tags a conversation turn with its author kind.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the role-tagged transcript handed to the
// generation backend. Turns are immutable once created.
type Turn struct {
	Role    Role
	Content string
}

// AIState is the indicator state rendered by chat clients.
type AIState string

const (
	AIStateThinking   AIState = "AI_STATE_THINKING"
	AIStateGenerating AIState = "AI_STATE_GENERATING"
	AIStateError      AIState = "AI_STATE_ERROR"
)

// EventType distinguishes indicator updates from indicator clears.
type EventType string

const (
	EventIndicatorUpdate EventType = "ai_indicator.update"
	EventIndicatorClear  EventType = "ai_indicator.clear"
)

// Event is an out-of-band indicator signal sent on a channel.
type Event struct {
	Type      EventType `json:"type"`
	AIState   AIState   `json:"ai_state,omitempty"`
	MessageID string    `json:"message_id"`
}

// NewMessage is the payload for creating a channel message.
type NewMessage struct {
	Text        string `json:"text"`
	AIGenerated bool   `json:"ai_generated"`
}

// MessageUpdate is the partial-update payload for an existing message.
type MessageUpdate struct {
	Text       string `json:"text"`
	Generating bool   `json:"generating"`
}

// SearchMessage is one raw message returned by the backend search API.
type SearchMessage struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Messenger is the chat backend boundary. Implementations talk to a
// Stream-style REST API; tests substitute fakes.
type Messenger interface {
	// CreateMessage posts a message to the channel attributed to authorID
	// and returns the created message ID.
	CreateMessage(ctx context.Context, channelCID string, msg NewMessage, authorID string) (string, error)

	// UpdateMessagePartial edits the text/generating fields of an
	// existing message in place.
	UpdateMessagePartial(ctx context.Context, messageID string, set MessageUpdate, authorID string) error

	// SendEvent emits an indicator event on the channel.
	SendEvent(ctx context.Context, channelCID string, event Event, authorID string) error

	// AddMembers adds the given user IDs to the channel.
	AddMembers(ctx context.Context, channelCID string, userIDs []string) error

	// SearchMessages returns up to limit regular messages for the
	// channel, most recent first.
	SearchMessages(ctx context.Context, channelCID string, limit int) ([]SearchMessage, error)
}
