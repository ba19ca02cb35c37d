package bridge_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachchat/ai-bridge/internal/domain/bridge"
	"coachchat/ai-bridge/internal/domain/chat"
	"coachchat/ai-bridge/internal/domain/history"
	"coachchat/ai-bridge/internal/domain/llm"
	"coachchat/ai-bridge/internal/domain/memory"
	"coachchat/ai-bridge/internal/domain/session"
	"coachchat/ai-bridge/internal/domain/user"
	"coachchat/ai-bridge/internal/worker"
)

const botID = "ai-bot-coach"

// memMessenger records calls; safe for the detached session goroutine.
type memMessenger struct {
	mu            sync.Mutex
	created       int
	updates       []chat.MessageUpdate
	events        []chat.Event
	members       [][]string
	addMembersErr error
	search        []chat.SearchMessage
}

func (m *memMessenger) CreateMessage(ctx context.Context, cid string, msg chat.NewMessage, authorID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
	return "msg-1", nil
}

func (m *memMessenger) UpdateMessagePartial(ctx context.Context, messageID string, set chat.MessageUpdate, authorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, set)
	return nil
}

func (m *memMessenger) SendEvent(ctx context.Context, cid string, event chat.Event, authorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memMessenger) AddMembers(ctx context.Context, cid string, userIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members = append(m.members, userIDs)
	return m.addMembersErr
}

func (m *memMessenger) SearchMessages(ctx context.Context, cid string, limit int) ([]chat.SearchMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.search, nil
}

func (m *memMessenger) snapshot() ([]chat.MessageUpdate, []chat.Event, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]chat.MessageUpdate(nil), m.updates...), append([]chat.Event(nil), m.events...), m.created
}

type sliceStream struct {
	deltas []*llm.ChatCompletionDelta
	pos    int
}

func (s *sliceStream) Recv() (*llm.ChatCompletionDelta, error) {
	if s.pos >= len(s.deltas) {
		return nil, io.EOF
	}
	d := s.deltas[s.pos]
	s.pos++
	return d, nil
}

func (s *sliceStream) Close() error { return nil }

type stubProvider struct {
	mu         sync.Mutex
	deltas     []*llm.ChatCompletionDelta
	completion string
	streamReqs []llm.ChatCompletionRequest
}

func (p *stubProvider) CreateChatCompletion(ctx context.Context, req llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	return &llm.ChatCompletionResponse{
		Choices: []llm.ChatCompletionChoice{{Message: llm.ChatMessage{Role: "assistant", Content: p.completion}}},
	}, nil
}

func (p *stubProvider) CreateChatCompletionStream(ctx context.Context, req llm.ChatCompletionRequest) (llm.Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.streamReqs = append(p.streamReqs, req)
	return &sliceStream{deltas: p.deltas}, nil
}

// fakeUserRepo satisfies user.Repository for the memory store.
type fakeUserRepo struct {
	mu       sync.Mutex
	memories map[string]string
}

func newFakeUserRepo() *fakeUserRepo { return &fakeUserRepo{memories: map[string]string{}} }

func (f *fakeUserRepo) Create(ctx context.Context, u *user.User) error { return nil }

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) ListMemories(ctx context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.memories))
	for k, v := range f.memories {
		out[k] = v
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateMemory(ctx context.Context, username, mem string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memories[username] = mem
	return nil
}

func newService(t *testing.T, messenger *memMessenger, provider *stubProvider) (*bridge.Service, *memory.Store, *worker.Runner) {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore(newFakeUserRepo(), log)
	extractor := memory.NewExtractor(provider, store, "gpt-4o-mini", 256, log)
	loader := history.NewLoader(messenger, botID, log)
	runner := worker.NewRunner(log)
	cfg := session.Config{BotID: botID, Model: "gpt-4o-mini", MaxTokens: 1024}
	svc := bridge.NewService(messenger, provider, store, extractor, loader, runner, nil, cfg, 50, log)
	return svc, store, runner
}

func contentDelta(text string) *llm.ChatCompletionDelta {
	return &llm.ChatCompletionDelta{
		Choices: []llm.ChatCompletionDeltaChoice{{Delta: llm.DeltaContent{Content: text}}},
	}
}

func TestHandleNewMessage_Validation(t *testing.T) {
	svc, _, runner := newService(t, &memMessenger{}, &stubProvider{})
	defer runner.Shutdown(time.Second)

	cases := []struct {
		name string
		in   bridge.InboundMessage
		want error
	}{
		{"missing cid", bridge.InboundMessage{Text: "hi", AuthorID: "u1"}, bridge.ErrMissingChannel},
		{"blank cid", bridge.InboundMessage{ChannelCID: "   ", Text: "hi", AuthorID: "u1"}, bridge.ErrMissingChannel},
		{"missing text", bridge.InboundMessage{ChannelCID: "c1", AuthorID: "u1"}, bridge.ErrMissingText},
		{"missing author", bridge.InboundMessage{ChannelCID: "c1", Text: "hi"}, bridge.ErrMissingAuthor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.HandleNewMessage(context.Background(), tc.in)
			assert.True(t, errors.Is(err, tc.want))
		})
	}
}

func TestHandleNewMessage_IgnoresBotAuthor(t *testing.T) {
	messenger := &memMessenger{}
	svc, _, runner := newService(t, messenger, &stubProvider{})

	err := svc.HandleNewMessage(context.Background(), bridge.InboundMessage{
		ChannelCID: "messaging:c1",
		Text:       "my own reply",
		AuthorID:   botID,
	})
	runner.Shutdown(time.Second)

	require.NoError(t, err)
	_, events, created := messenger.snapshot()
	assert.Zero(t, created)
	assert.Empty(t, events)
}

func TestNormalizeCID(t *testing.T) {
	assert.Equal(t, "abc", bridge.NormalizeCID("messaging:abc"))
	assert.Equal(t, "abc", bridge.NormalizeCID("abc"))
	assert.Equal(t, "xyz", bridge.NormalizeCID("team:xyz"))
}

func TestHandleNewMessage_EndToEnd(t *testing.T) {
	messenger := &memMessenger{
		search: []chat.SearchMessage{
			{ID: "2", Type: "regular", Text: "reply one", AuthorID: botID},
			{ID: "1", Type: "regular", Text: "question one", AuthorID: "u1"},
		},
	}
	provider := &stubProvider{
		deltas:     []*llm.ChatCompletionDelta{contentDelta("On "), contentDelta("it.")},
		completion: "Wants to run a marathon.",
	}
	svc, store, runner := newService(t, messenger, provider)

	err := svc.HandleNewMessage(context.Background(), bridge.InboundMessage{
		ChannelCID: "messaging:c1",
		Text:       "how do I start?",
		AuthorID:   "u1",
	})
	require.NoError(t, err)
	runner.Shutdown(2 * time.Second)

	updates, events, created := messenger.snapshot()
	assert.Equal(t, 1, created)

	// Full indicator lifecycle on the channel.
	var states []chat.AIState
	clears := 0
	for _, e := range events {
		switch e.Type {
		case chat.EventIndicatorUpdate:
			states = append(states, e.AIState)
		case chat.EventIndicatorClear:
			clears++
		}
	}
	assert.Equal(t, []chat.AIState{chat.AIStateThinking, chat.AIStateGenerating}, states)
	assert.Equal(t, 1, clears)

	// Final message text is the concatenation of the deltas.
	require.NotEmpty(t, updates)
	final := updates[len(updates)-1]
	assert.Equal(t, "On it.", final.Text)
	assert.False(t, final.Generating)

	// The detached extraction updated the author's memory.
	assert.Equal(t, "Wants to run a marathon.", store.Get("u1"))

	// The prompt included system, history and the new user turn.
	provider.mu.Lock()
	defer provider.mu.Unlock()
	require.Len(t, provider.streamReqs, 1)
	msgs := provider.streamReqs[0].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "question one", msgs[1].Content)
	assert.Equal(t, "reply one", msgs[2].Content)
	assert.Equal(t, "how do I start?", msgs[3].Content)
}

func TestHandleNewMessage_AddMembersFailureIsNonFatal(t *testing.T) {
	messenger := &memMessenger{addMembersErr: errors.New("forbidden")}
	provider := &stubProvider{deltas: []*llm.ChatCompletionDelta{contentDelta("ok")}}
	svc, _, runner := newService(t, messenger, provider)

	err := svc.HandleNewMessage(context.Background(), bridge.InboundMessage{
		ChannelCID: "messaging:c1",
		Text:       "hello",
		AuthorID:   "u1",
	})
	require.NoError(t, err)
	runner.Shutdown(2 * time.Second)

	_, _, created := messenger.snapshot()
	assert.Equal(t, 1, created)
}
