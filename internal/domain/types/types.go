// Package types contains common types used across the application
package types

// Entry represents a rankings-table row.
type Entry struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"player_id"`
	EloOverall float64 `json:"elo_overall"`
	Matches    int     `json:"matches"`
}
