package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"coachchat/ai-bridge/internal/domain/user"
)

// Store is the process-wide owner -> long-term-context mapping. Reads
// never fail; an unknown owner reads as the empty string. Writes are
// last-write-wins. Entries are hydrated from the user repository at
// startup and flushed back at shutdown; there is no per-write
// persistence guarantee.
type Store struct {
	mu      sync.RWMutex
	entries map[string]string
	dirty   map[string]struct{}
	users   user.Repository
	log     zerolog.Logger
}

// NewStore creates an empty store backed by the given repository.
func NewStore(users user.Repository, log zerolog.Logger) *Store {
	return &Store{
		entries: make(map[string]string),
		dirty:   make(map[string]struct{}),
		users:   users,
		log:     log.With().Str("component", "memory-store").Logger(),
	}
}

// Get returns the memory for owner, or the empty string when absent.
func (s *Store) Get(owner string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[owner]
}

// Set overwrites the memory for owner.
func (s *Store) Set(owner, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[owner] = text
	s.dirty[owner] = struct{}{}
}

// LoadAll hydrates the store from durable storage.
func (s *Store) LoadAll(ctx context.Context) error {
	memories, err := s.users.ListMemories(ctx)
	if err != nil {
		return fmt.Errorf("load memories: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for owner, text := range memories {
		s.entries[owner] = text
	}
	s.log.Info().Int("owners", len(memories)).Msg("memories loaded")
	return nil
}

// FlushAll writes every entry modified since the last flush back to
// durable storage. Individual failures are logged and skipped so one
// bad row cannot block shutdown.
func (s *Store) FlushAll(ctx context.Context) {
	s.mu.Lock()
	pending := make(map[string]string, len(s.dirty))
	for owner := range s.dirty {
		pending[owner] = s.entries[owner]
	}
	s.dirty = make(map[string]struct{})
	s.mu.Unlock()

	for owner, text := range pending {
		if err := s.users.UpdateMemory(ctx, owner, text); err != nil {
			s.log.Error().Err(err).Str("owner", owner).Msg("flush memory failed")
		}
	}
	if len(pending) > 0 {
		s.log.Info().Int("owners", len(pending)).Msg("memories flushed")
	}
}
