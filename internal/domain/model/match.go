// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Surface is the closed set of court surfaces.
type Surface int

// Court surfaces, ordinal order matches historical speed convention.
const (
	SurfaceHard Surface = iota
	SurfaceClay
	SurfaceGrass
	SurfaceCarpet
	surfaceCount
)

// String returns the canonical lower-case surface label.
func (s Surface) String() string {
	switch s {
	case SurfaceClay:
		return "clay"
	case SurfaceGrass:
		return "grass"
	case SurfaceCarpet:
		return "carpet"
	default:
		return "hard"
	}
}

// Surfaces lists every surface in ordinal order.
func Surfaces() []Surface {
	return []Surface{SurfaceHard, SurfaceClay, SurfaceGrass, SurfaceCarpet}
}

// surfaceAliases folds vendor-specific court names into the closed set.
var surfaceAliases = map[string]Surface{
	"hard":         SurfaceHard,
	"clay":         SurfaceClay,
	"grass":        SurfaceGrass,
	"carpet":       SurfaceCarpet,
	"acrylic":      SurfaceHard,
	"decoturf":     SurfaceHard,
	"plexicushion": SurfaceHard,
	"rebound ace":  SurfaceHard,
	"greenset":     SurfaceHard,
}

// ParseSurface maps a raw surface label onto the closed surface set.
// Unknown labels default to hard, matching the upstream data convention.
func ParseSurface(raw string) Surface {
	if s, ok := surfaceAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return SurfaceHard
}

// Round identifies tournament round depth.
type Round int

// Rounds ordered by depth; higher means deeper in the draw.
const (
	RoundR1 Round = iota + 1
	RoundR2
	RoundR3
	RoundR4
	RoundQF
	RoundSF
	RoundF
)

// String returns the short round code.
func (r Round) String() string {
	switch r {
	case RoundR1:
		return "R1"
	case RoundR2:
		return "R2"
	case RoundR3:
		return "R3"
	case RoundR4:
		return "R4"
	case RoundQF:
		return "QF"
	case RoundSF:
		return "SF"
	case RoundF:
		return "F"
	}
	return "R1"
}

// Depth returns the ordinal draw depth used as a model feature.
func (r Round) Depth() int { return int(r) }

var roundAliases = map[string]Round{
	"r1": RoundR1, "1st round": RoundR1, "round of 128": RoundR1,
	"r2": RoundR2, "2nd round": RoundR2, "round of 64": RoundR2,
	"r3": RoundR3, "3rd round": RoundR3, "round of 32": RoundR3,
	"r4": RoundR4, "4th round": RoundR4, "round of 16": RoundR4,
	"qf": RoundQF, "quarterfinals": RoundQF, "quarter-finals": RoundQF,
	"sf": RoundSF, "semifinals": RoundSF, "semi-finals": RoundSF,
	"f": RoundF, "final": RoundF, "finals": RoundF, "the final": RoundF,
}

// ParseRound maps raw round labels onto round codes. Unknown labels are
// treated as first round rather than rejected; draw depth is a soft signal.
func ParseRound(raw string) Round {
	if r, ok := roundAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return r
	}
	return RoundR1
}

// Hand is a player's dominant hand, when known.
type Hand int

// Handedness values. Unknown is the zero value.
const (
	HandUnknown Hand = iota
	HandRight
	HandLeft
)

// PlayerInfo carries static player attributes attached to a match record.
type PlayerInfo struct {
	ID        string
	Hand      Hand
	BirthYear int // zero when unknown
}

// ServeStats holds one side's serve/return point rates for a completed match.
// Rates are fractions in [0,1]. Valid reports whether the stats were recorded;
// retirements and walkovers ship without them.
type ServeStats struct {
	Valid     bool
	HoldRate  float64 // service games held / service games played
	BreakRate float64 // return games won / return games played
}

// Match is a canonical, schema-valid match record. It is read-only to the
// rating and feature layers; the winner is used only as the post-hoc label.
type Match struct {
	ID      string
	Date    time.Time
	Surface Surface
	Indoor  bool
	Level   string // tour level, e.g. "Grand Slam", "Masters 1000", "ATP250"
	Round   Round
	BestOf  int

	PlayerA  PlayerInfo
	PlayerB  PlayerInfo
	WinnerID string

	StatsA ServeStats
	StatsB ServeStats

	// Retired marks retirements and walkovers. Ratings still update from the
	// recorded winner, serve/return windows do not.
	Retired bool
}

// AWon reports whether player A is the recorded winner.
func (m Match) AWon() bool { return m.WinnerID == m.PlayerA.ID }

// LevelWeight maps tour level onto a coarse importance ordinal.
func LevelWeight(level string) float64 {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "grand slam":
		return 4
	case "masters 1000", "masters":
		return 3
	case "atp500", "500":
		return 2
	default:
		return 1
	}
}
