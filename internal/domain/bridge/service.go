// Package bridge is the entry point for inbound chat messages: it
// validates the trigger, kicks off memory extraction, assembles the
// prompt and launches the streaming session as a detached task.
package bridge

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"coachchat/ai-bridge/internal/domain/chat"
	"coachchat/ai-bridge/internal/domain/history"
	"coachchat/ai-bridge/internal/domain/llm"
	"coachchat/ai-bridge/internal/domain/memory"
	"coachchat/ai-bridge/internal/domain/prompt"
	"coachchat/ai-bridge/internal/domain/session"
	"coachchat/ai-bridge/internal/worker"
)

// Client-input errors, mapped to 400 by the HTTP layer.
var (
	ErrMissingChannel = errors.New("channel cid is required")
	ErrMissingText    = errors.New("message text is required")
	ErrMissingAuthor  = errors.New("message author is required")
)

// InboundMessage is the normalized trigger extracted from the webhook
// payload.
type InboundMessage struct {
	ChannelCID string
	Text       string
	AuthorID   string
}

// Service wires the reply pipeline together. One Service handles all
// channels; per-reply state lives in the session it launches.
type Service struct {
	messenger    chat.Messenger
	provider     llm.Provider
	memory       *memory.Store
	extractor    *memory.Extractor
	loader       *history.Loader
	runner       *worker.Runner
	recorder     session.ReplyRecorder
	sessionCfg   session.Config
	historyLimit int
	log          zerolog.Logger
}

// NewService builds the entry-point service. recorder may be nil.
func NewService(
	messenger chat.Messenger,
	provider llm.Provider,
	store *memory.Store,
	extractor *memory.Extractor,
	loader *history.Loader,
	runner *worker.Runner,
	recorder session.ReplyRecorder,
	sessionCfg session.Config,
	historyLimit int,
	log zerolog.Logger,
) *Service {
	return &Service{
		messenger:    messenger,
		provider:     provider,
		memory:       store,
		extractor:    extractor,
		loader:       loader,
		runner:       runner,
		recorder:     recorder,
		sessionCfg:   sessionCfg,
		historyLimit: historyLimit,
		log:          log.With().Str("component", "bridge").Logger(),
	}
}

// HandleNewMessage validates the trigger and launches the reply
// pipeline. It returns once the session is submitted; generation
// failures surface only as indicator events on the channel.
func (s *Service) HandleNewMessage(ctx context.Context, in InboundMessage) error {
	if strings.TrimSpace(in.ChannelCID) == "" {
		return ErrMissingChannel
	}
	if strings.TrimSpace(in.Text) == "" {
		return ErrMissingText
	}
	if strings.TrimSpace(in.AuthorID) == "" {
		return ErrMissingAuthor
	}
	if in.AuthorID == s.sessionCfg.BotID {
		// The bot's own replies trigger webhooks too; replying to
		// ourselves would loop forever.
		s.log.Debug().Str("cid", in.ChannelCID).Msg("ignoring bot-authored message")
		return nil
	}

	cid := NormalizeCID(in.ChannelCID)
	log := s.log.With().Str("cid", cid).Str("author", in.AuthorID).Logger()

	if err := s.messenger.AddMembers(ctx, cid, []string{s.sessionCfg.BotID}); err != nil {
		log.Warn().Err(err).Msg("bot membership not confirmed, continuing")
	}

	// Snapshot before the extractor task can overwrite it: the reply uses
	// the memory as of the moment the message arrived.
	memorySnapshot := s.memory.Get(in.AuthorID)

	author, text := in.AuthorID, in.Text
	s.runner.Submit("memory-extraction", func(taskCtx context.Context) {
		s.extractor.ExtractAndStore(taskCtx, author, text)
	})

	transcript := s.loader.Load(ctx, cid, s.historyLimit)
	turns := prompt.Assemble(memorySnapshot, transcript, in.Text)

	sess := session.New(
		s.messenger, s.provider, s.recorder,
		s.sessionCfg, cid, in.AuthorID,
		prompt.ToLLM(turns), s.log,
	)
	s.runner.Submit("streaming-session", func(taskCtx context.Context) {
		// Failures are reported on the channel and logged by the session.
		_ = sess.Run(taskCtx)
	})

	log.Info().Int("history_turns", len(transcript)).Msg("reply session launched")
	return nil
}

// NormalizeCID strips the channel-type prefix from a fully qualified
// CID ("messaging:abc" yields "abc"). Bare IDs pass through unchanged.
func NormalizeCID(cid string) string {
	if _, id, ok := strings.Cut(cid, ":"); ok && id != "" {
		return id
	}
	return cid
}
