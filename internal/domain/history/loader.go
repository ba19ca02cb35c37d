package history

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"coachchat/ai-bridge/internal/domain/chat"
)

const messageTypeRegular = "regular"

// Loader fetches prior conversation turns for a channel. The backend is
// queried most-recent-first so the cap applies cheaply; the result is
// reversed to chronological order before returning.
type Loader struct {
	messenger chat.Messenger
	botID     string
	log       zerolog.Logger
}

// NewLoader builds a loader classifying messages from botID as assistant turns.
func NewLoader(messenger chat.Messenger, botID string, log zerolog.Logger) *Loader {
	return &Loader{
		messenger: messenger,
		botID:     botID,
		log:       log.With().Str("component", "history-loader").Logger(),
	}
}

// Load returns up to limit turns, oldest first. Non-regular and
// empty-text messages are dropped. Retrieval failures degrade to an
// empty transcript rather than aborting the reply.
func (l *Loader) Load(ctx context.Context, channelCID string, limit int) []chat.Turn {
	messages, err := l.messenger.SearchMessages(ctx, channelCID, limit)
	if err != nil {
		l.log.Warn().Err(err).Str("cid", channelCID).Msg("history retrieval failed, continuing without it")
		return nil
	}

	turns := make([]chat.Turn, 0, len(messages))
	for _, msg := range messages {
		if msg.Type != messageTypeRegular {
			continue
		}
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		role := chat.RoleUser
		if msg.AuthorID == l.botID {
			role = chat.RoleAssistant
		}
		turns = append(turns, chat.Turn{Role: role, Content: text})
	}

	// Backend order is newest first; callers want chronological.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns
}
