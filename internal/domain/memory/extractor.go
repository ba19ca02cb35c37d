package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"coachchat/ai-bridge/internal/domain/llm"
	"coachchat/ai-bridge/internal/infrastructure/metrics"
)

const extractionTemplate = "Extract useful information from the following message that could help build a long-term context " +
	"for this user to achieve their goals. The current memory is:\n\n%s\n\n" +
	"New message: %s\n\n" +
	"Return the updated memory as a plain text paragraph."

// Extractor derives an updated memory blob from the latest utterance.
// It is invoked as a detached task, once per inbound message, and is
// never awaited by the reply path. A failed extraction leaves the last
// known good value in place; there is no retry.
//
// Two extractions for the same owner can race; the outcome is
// last-completed-wins, which is accepted behavior.
type Extractor struct {
	provider  llm.Provider
	store     *Store
	model     string
	maxTokens int
	log       zerolog.Logger
}

// NewExtractor wires the extractor against the shared store.
func NewExtractor(provider llm.Provider, store *Store, model string, maxTokens int, log zerolog.Logger) *Extractor {
	return &Extractor{
		provider:  provider,
		store:     store,
		model:     model,
		maxTokens: maxTokens,
		log:       log.With().Str("component", "memory-extractor").Logger(),
	}
}

// ExtractAndStore runs one extraction for owner and overwrites the
// store entry on success. All failures are swallowed after logging.
func (e *Extractor) ExtractAndStore(ctx context.Context, owner, utterance string) {
	current := e.store.Get(owner)
	prompt := fmt.Sprintf(extractionTemplate, current, utterance)

	maxTokens := e.maxTokens
	resp, err := e.provider.CreateChatCompletion(ctx, llm.ChatCompletionRequest{
		Model:     e.model,
		Messages:  []llm.ChatMessage{{Role: "system", Content: prompt}},
		MaxTokens: &maxTokens,
	})
	if err != nil {
		metrics.MemoryUpdatesTotal.WithLabelValues("error").Inc()
		e.log.Error().Err(err).Str("owner", owner).Msg("memory extraction failed")
		return
	}
	if len(resp.Choices) == 0 {
		metrics.MemoryUpdatesTotal.WithLabelValues("error").Inc()
		e.log.Error().Str("owner", owner).Msg("memory extraction returned no choices")
		return
	}

	updated := strings.TrimSpace(resp.Choices[0].Message.Content)
	e.store.Set(owner, updated)
	metrics.MemoryUpdatesTotal.WithLabelValues("ok").Inc()
	e.log.Debug().Str("owner", owner).Int("bytes", len(updated)).Msg("memory updated")
}
