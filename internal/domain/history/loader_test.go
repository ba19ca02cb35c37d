package history_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"coachchat/ai-bridge/internal/domain/chat"
	"coachchat/ai-bridge/internal/domain/history"
)

const botID = "ai-bot-coach"

// fakeMessenger implements chat.Messenger with function fields.
type fakeMessenger struct {
	SearchFunc func(ctx context.Context, channelCID string, limit int) ([]chat.SearchMessage, error)
}

func (f *fakeMessenger) CreateMessage(ctx context.Context, cid string, msg chat.NewMessage, authorID string) (string, error) {
	return "", nil
}

func (f *fakeMessenger) UpdateMessagePartial(ctx context.Context, messageID string, set chat.MessageUpdate, authorID string) error {
	return nil
}

func (f *fakeMessenger) SendEvent(ctx context.Context, cid string, event chat.Event, authorID string) error {
	return nil
}

func (f *fakeMessenger) AddMembers(ctx context.Context, cid string, userIDs []string) error {
	return nil
}

func (f *fakeMessenger) SearchMessages(ctx context.Context, cid string, limit int) ([]chat.SearchMessage, error) {
	if f.SearchFunc != nil {
		return f.SearchFunc(ctx, cid, limit)
	}
	return nil, nil
}

func TestLoader_ChronologicalOrderAndRoles(t *testing.T) {
	// Backend returns newest first.
	messenger := &fakeMessenger{
		SearchFunc: func(ctx context.Context, cid string, limit int) ([]chat.SearchMessage, error) {
			return []chat.SearchMessage{
				{ID: "3", Type: "regular", Text: "reply two", AuthorID: botID},
				{ID: "2", Type: "regular", Text: "question two", AuthorID: "u1"},
				{ID: "1", Type: "regular", Text: "question one", AuthorID: "u1"},
			}, nil
		},
	}

	loader := history.NewLoader(messenger, botID, zerolog.Nop())
	turns := loader.Load(context.Background(), "messaging:c1", 50)

	assert.Equal(t, []chat.Turn{
		{Role: chat.RoleUser, Content: "question one"},
		{Role: chat.RoleUser, Content: "question two"},
		{Role: chat.RoleAssistant, Content: "reply two"},
	}, turns)
}

func TestLoader_FiltersEmptyAndNonRegular(t *testing.T) {
	messenger := &fakeMessenger{
		SearchFunc: func(ctx context.Context, cid string, limit int) ([]chat.SearchMessage, error) {
			return []chat.SearchMessage{
				{ID: "4", Type: "regular", Text: "kept", AuthorID: "u1"},
				{ID: "3", Type: "system", Text: "user joined", AuthorID: "u1"},
				{ID: "2", Type: "regular", Text: "   ", AuthorID: "u1"},
				{ID: "1", Type: "regular", Text: "", AuthorID: "u1"},
			}, nil
		},
	}

	loader := history.NewLoader(messenger, botID, zerolog.Nop())
	turns := loader.Load(context.Background(), "messaging:c1", 50)

	assert.Equal(t, []chat.Turn{{Role: chat.RoleUser, Content: "kept"}}, turns)
}

func TestLoader_RespectsLimit(t *testing.T) {
	messenger := &fakeMessenger{
		SearchFunc: func(ctx context.Context, cid string, limit int) ([]chat.SearchMessage, error) {
			msgs := make([]chat.SearchMessage, 0, limit)
			for i := limit; i > 0; i-- {
				msgs = append(msgs, chat.SearchMessage{
					ID:       fmt.Sprintf("%d", i),
					Type:     "regular",
					Text:     fmt.Sprintf("m%d", i),
					AuthorID: "u1",
				})
			}
			return msgs, nil
		},
	}

	loader := history.NewLoader(messenger, botID, zerolog.Nop())
	turns := loader.Load(context.Background(), "messaging:c1", 5)

	assert.Len(t, turns, 5)
	assert.Equal(t, "m1", turns[0].Content)
	assert.Equal(t, "m5", turns[4].Content)
}

func TestLoader_RetrievalErrorYieldsEmpty(t *testing.T) {
	messenger := &fakeMessenger{
		SearchFunc: func(ctx context.Context, cid string, limit int) ([]chat.SearchMessage, error) {
			return nil, errors.New("search unavailable")
		},
	}

	loader := history.NewLoader(messenger, botID, zerolog.Nop())
	turns := loader.Load(context.Background(), "messaging:c1", 50)

	assert.Empty(t, turns)
}
