package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/breakpoint/internal/domain/types"
)

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithInitialCapacity pre-sizes the player table.
func WithInitialCapacity(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.initialCapacity = n
		}
	}
}

// MemStore is an in-memory rankings store. Writes are point upserts from the
// single-goroutine rating pass; reads snapshot and sort under a read lock, so
// concurrent readers never observe a partially applied update.
type MemStore struct {
	mu              sync.RWMutex
	players         map[string]record
	initialCapacity int
}

type record struct {
	elo     float64
	matches int
}

// NewMemStore creates an empty rankings store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{initialCapacity: 1024}
	for _, opt := range opts {
		opt(s)
	}
	s.players = make(map[string]record, s.initialCapacity)
	return s
}

// Upsert replaces a player's rating.
func (s *MemStore) Upsert(playerID string, eloOverall float64, matches int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[playerID] = record{elo: eloOverall, matches: matches}
}

// Rank returns the player's current standing by overall rating.
func (s *MemStore) Rank(_ context.Context, playerID string) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target, ok := s.players[playerID]
	if !ok {
		return types.Entry{}, ErrNotFound
	}
	rank := 1
	for id, r := range s.players {
		if r.elo > target.elo || (r.elo == target.elo && id < playerID) {
			rank++
		}
	}
	return types.Entry{Rank: rank, PlayerID: playerID, EloOverall: target.elo, Matches: target.matches}, nil
}

// TopN returns the n highest-rated players.
func (s *MemStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	entries := make([]types.Entry, 0, len(s.players))
	for id, r := range s.players {
		entries = append(entries, types.Entry{PlayerID: id, EloOverall: r.elo, Matches: r.matches})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].EloOverall != entries[j].EloOverall {
			return entries[i].EloOverall > entries[j].EloOverall
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	if n < len(entries) {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// Count returns the number of tracked players.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}
