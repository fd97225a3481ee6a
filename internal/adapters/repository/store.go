// Package repository defines the rankings store interface and errors.
package repository

import (
	"context"

	"github.com/okian/breakpoint/internal/domain/types"
)

// Store provides read access to current player ratings. Writes arrive from
// the rating engine's sink; reads serve reports and the rankings endpoint.
type Store interface {
	// Upsert replaces the stored rating for a player. Implements the rating
	// engine's sink contract.
	Upsert(playerID string, eloOverall float64, matches int)

	// Rank returns the current rank and rating for a player.
	// Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, playerID string) (types.Entry, error)

	// TopN returns the top-N entries ordered by rating desc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of players tracked.
	Count(ctx context.Context) int
}
