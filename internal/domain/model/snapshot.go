package model

import "time"

// Snapshot is an immutable, timestamped copy of a player's derived rating and
// form features, taken before the match it precedes mutates engine state.
// Consumers must treat a Snapshot as frozen; it is safe to retain for audit.
type Snapshot struct {
	PlayerID string

	// AsOf is the exclusive upper bound on the information in this snapshot:
	// every contributing match is dated strictly before it.
	AsOf time.Time

	EloOverall    float64
	EloSurface    float64 // surface rating for the upcoming match's surface, overall fallback applied
	SurfacePlayed bool    // whether any match on that surface contributed

	// Trailing rating change over 26 and 52 weeks.
	EloDelta26w float64
	EloDelta52w float64

	// Opponent-adjusted rolling serve/return form.
	HoldRate  float64
	BreakRate float64
	FormKnown bool // false until at least one serve/return sample exists

	Last10WinRate float64
	MatchCount    int

	// DaysSinceLast is -1 when the player has no prior match.
	DaysSinceLast int

	// H2H against the specific upcoming opponent, capped at the five most
	// recent meetings. WinFrac is this player's share; Recency weights newer
	// meetings more. Meetings is zero when the pair has no history.
	H2HWinFrac  float64
	H2HRecency  float64
	H2HMeetings int
}
