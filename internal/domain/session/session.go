// Package session owns the lifecycle of one outgoing AI reply: it
// issues the generation call, consumes the token stream, mirrors it as
// partial edits of a single chat message, and emits indicator events so
// clients render a live-typing state.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"coachchat/ai-bridge/internal/domain/chat"
	"coachchat/ai-bridge/internal/domain/llm"
	"coachchat/ai-bridge/internal/infrastructure/metrics"
)

// State is the observable indicator state of a session.
type State string

const (
	StateThinking   State = "thinking"
	StateGenerating State = "generating"
	StateError      State = "error"
	StateCleared    State = "cleared"
)

// ReplyRecord is the audit row appended for a completed reply.
type ReplyRecord struct {
	MessageID  string
	ChannelCID string
	UserID     string
	Text       string
	Usage      *llm.Usage
}

// ReplyRecorder persists completed replies. A nil recorder disables
// auditing; recording failures never affect the session outcome.
type ReplyRecorder interface {
	RecordReply(ctx context.Context, rec ReplyRecord) error
}

// Config carries the per-deployment knobs of a session.
type Config struct {
	BotID     string
	Model     string
	MaxTokens int

	// IndicatorPause lets the generating indicator render before the
	// message text starts changing. SettleDelay runs before the final
	// flush to avoid racing the last partial update. Both may be zero.
	IndicatorPause time.Duration
	SettleDelay    time.Duration
}

// Session is one in-flight AI reply. It is not safe for concurrent use;
// the token stream is consumed by a single reader, so the accumulated
// text mutates race-free by construction.
type Session struct {
	messenger chat.Messenger
	provider  llm.Provider
	recorder  ReplyRecorder
	cfg       Config
	log       zerolog.Logger

	channelCID string
	userID     string
	messages   []llm.ChatMessage

	messageID   string
	accumulated strings.Builder
	chunkCount  int
	usage       *llm.Usage
	state       State
}

// New constructs a session for one assembled prompt. The session ID is
// the placeholder message's ID, known only after Run creates it.
func New(
	messenger chat.Messenger,
	provider llm.Provider,
	recorder ReplyRecorder,
	cfg Config,
	channelCID, userID string,
	messages []llm.ChatMessage,
	log zerolog.Logger,
) *Session {
	return &Session{
		messenger:  messenger,
		provider:   provider,
		recorder:   recorder,
		cfg:        cfg,
		channelCID: channelCID,
		userID:     userID,
		messages:   messages,
		log:        log.With().Str("component", "streaming-session").Str("cid", channelCID).Logger(),
	}
}

// State returns the current indicator state.
func (s *Session) State() State { return s.state }

// MessageID returns the identifier of the chat message being built.
func (s *Session) MessageID() string { return s.messageID }

// Run drives the session to a terminal state. On success the indicator
// sequence is THINKING, GENERATING (exactly once, at the first content
// chunk), then a clear event. On failure an ERROR indicator is emitted
// and the error returned; text already flushed stays visible.
func (s *Session) Run(ctx context.Context) error {
	start := time.Now()

	messageID, err := s.messenger.CreateMessage(ctx, s.channelCID, chat.NewMessage{AIGenerated: true}, s.cfg.BotID)
	if err != nil {
		metrics.SessionsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("create placeholder message: %w", err)
	}
	s.messageID = messageID
	s.log = s.log.With().Str("message_id", messageID).Logger()

	if err := s.emitIndicator(ctx, chat.AIStateThinking); err != nil {
		return s.fail(ctx, fmt.Errorf("emit thinking indicator: %w", err))
	}
	s.state = StateThinking

	maxTokens := s.cfg.MaxTokens
	stream, err := s.provider.CreateChatCompletionStream(ctx, llm.ChatCompletionRequest{
		Model:     s.cfg.Model,
		Messages:  s.messages,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return s.fail(ctx, fmt.Errorf("open generation stream: %w", err))
	}
	defer stream.Close()

	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s.fail(ctx, fmt.Errorf("receive chunk: %w", err))
		}
		if delta.Usage != nil {
			s.usage = delta.Usage
		}

		chunk := llm.ChunkFromDelta(delta)
		if chunk.Delta != "" {
			if err := s.consumeDelta(ctx, chunk.Delta); err != nil {
				return s.fail(ctx, err)
			}
		}
		if chunk.FinishReason != nil {
			break
		}
	}

	if err := s.finalize(ctx); err != nil {
		return s.fail(ctx, err)
	}

	metrics.SessionsTotal.WithLabelValues("completed").Inc()
	metrics.SessionDuration.Observe(time.Since(start).Seconds())
	s.log.Info().Int("chunks", s.chunkCount).Int("bytes", s.accumulated.Len()).Msg("session completed")
	return nil
}

// ShouldFlush reports whether a partial update is due after the n-th
// content chunk: every other chunk while n < 8 for early responsiveness,
// then every 15th to bound update volume.
func ShouldFlush(n int) bool {
	return n%15 == 0 || (n < 8 && n%2 == 0)
}

func (s *Session) consumeDelta(ctx context.Context, delta string) error {
	if s.chunkCount == 0 {
		if err := s.emitIndicator(ctx, chat.AIStateGenerating); err != nil {
			return fmt.Errorf("emit generating indicator: %w", err)
		}
		s.state = StateGenerating
		s.pause(ctx, s.cfg.IndicatorPause)
	}

	s.accumulated.WriteString(delta)
	s.chunkCount++
	metrics.StreamChunksTotal.Inc()

	if ShouldFlush(s.chunkCount) {
		if err := s.flush(ctx, true); err != nil {
			// The next scheduled flush carries the larger delta forward.
			metrics.MessageFlushesTotal.WithLabelValues("error").Inc()
			s.log.Warn().Err(err).Int("chunk", s.chunkCount).Msg("partial update failed, continuing")
		}
	}
	return nil
}

func (s *Session) finalize(ctx context.Context) error {
	s.pause(ctx, s.cfg.SettleDelay)

	if err := s.flush(ctx, false); err != nil {
		metrics.MessageFlushesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("final flush: %w", err)
	}

	event := chat.Event{Type: chat.EventIndicatorClear, MessageID: s.messageID}
	if err := s.messenger.SendEvent(ctx, s.channelCID, event, s.cfg.BotID); err != nil {
		return fmt.Errorf("clear indicator: %w", err)
	}
	s.state = StateCleared
	metrics.IndicatorEventsTotal.WithLabelValues(string(StateCleared)).Inc()

	if s.recorder != nil {
		rec := ReplyRecord{
			MessageID:  s.messageID,
			ChannelCID: s.channelCID,
			UserID:     s.userID,
			Text:       s.accumulated.String(),
			Usage:      s.usage,
		}
		if err := s.recorder.RecordReply(ctx, rec); err != nil {
			s.log.Warn().Err(err).Msg("reply audit failed")
		}
	}
	return nil
}

func (s *Session) flush(ctx context.Context, generating bool) error {
	update := chat.MessageUpdate{Text: s.accumulated.String(), Generating: generating}
	if err := s.messenger.UpdateMessagePartial(ctx, s.messageID, update, s.cfg.BotID); err != nil {
		return err
	}
	metrics.MessageFlushesTotal.WithLabelValues("ok").Inc()
	return nil
}

func (s *Session) fail(ctx context.Context, cause error) error {
	s.state = StateError
	metrics.SessionsTotal.WithLabelValues("failed").Inc()

	event := chat.Event{
		Type:      chat.EventIndicatorUpdate,
		AIState:   chat.AIStateError,
		MessageID: s.messageID,
	}
	if err := s.messenger.SendEvent(ctx, s.channelCID, event, s.cfg.BotID); err != nil {
		s.log.Error().Err(err).Msg("emit error indicator failed")
	} else {
		metrics.IndicatorEventsTotal.WithLabelValues(string(StateError)).Inc()
	}

	s.log.Error().Err(cause).Int("chunks", s.chunkCount).Msg("session failed")
	return cause
}

func (s *Session) emitIndicator(ctx context.Context, state chat.AIState) error {
	event := chat.Event{
		Type:      chat.EventIndicatorUpdate,
		AIState:   state,
		MessageID: s.messageID,
	}
	if err := s.messenger.SendEvent(ctx, s.channelCID, event, s.cfg.BotID); err != nil {
		return err
	}
	switch state {
	case chat.AIStateThinking:
		metrics.IndicatorEventsTotal.WithLabelValues(string(StateThinking)).Inc()
	case chat.AIStateGenerating:
		metrics.IndicatorEventsTotal.WithLabelValues(string(StateGenerating)).Inc()
	}
	return nil
}

func (s *Session) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
