// Package feature assembles model feature vectors from pre-match snapshots.
// Assembly is a pure function of its inputs and enforces the date wall: both
// snapshots must be dated strictly before the match, checked here rather than
// assumed from caller discipline.
package feature

import (
	"fmt"
	"time"

	"github.com/okian/breakpoint/internal/domain/model"
)

// Default assembly constants.
const (
	defaultRestCapDays   = 60 // rest beyond this carries no extra signal
	defaultShortRestDays = 2
)

// Option applies a configuration option to the Assembler.
type Option func(*Assembler)

// WithRestCap caps the days-since-last-match signal.
func WithRestCap(days int) Option {
	return func(a *Assembler) {
		if days > 0 {
			a.restCap = days
		}
	}
}

// WithShortRest sets the threshold below which a player counts as
// short-rested for the rest-disadvantage flag.
func WithShortRest(days int) Option {
	return func(a *Assembler) {
		if days > 0 {
			a.shortRest = days
		}
	}
}

// Assembler builds feature vectors. It holds only configuration; Assemble has
// no hidden state.
type Assembler struct {
	restCap   int
	shortRest int
}

// New constructs an Assembler with defaults, then applies options.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		restCap:   defaultRestCapDays,
		shortRest: defaultShortRestDays,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the (A, B)-oriented feature vector for a match from the two
// pre-match snapshots. It fails with ErrLeakDetected when either snapshot is
// not strictly earlier than the match date, or when a snapshot does not belong
// to the match's players.
func (as *Assembler) Assemble(m model.Match, a, b model.Snapshot) (model.FeatureVector, error) {
	if err := checkWall(m, a); err != nil {
		return model.FeatureVector{}, err
	}
	if err := checkWall(m, b); err != nil {
		return model.FeatureVector{}, err
	}
	if a.PlayerID != m.PlayerA.ID || b.PlayerID != m.PlayerB.ID {
		return model.FeatureVector{}, fmt.Errorf(
			"%w: snapshots (%s, %s) do not match participants (%s, %s) of match %s",
			ErrLeakDetected, a.PlayerID, b.PlayerID, m.PlayerA.ID, m.PlayerB.ID, m.ID)
	}

	fv := model.FeatureVector{
		MatchID:   m.ID,
		MatchDate: m.Date,
		PlayerA:   m.PlayerA.ID,
		PlayerB:   m.PlayerB.ID,

		EloOverallDiff:  a.EloOverall - b.EloOverall,
		EloSurfaceDiff:  a.EloSurface - b.EloSurface,
		EloDelta26wDiff: a.EloDelta26w - b.EloDelta26w,
		EloDelta52wDiff: a.EloDelta52w - b.EloDelta52w,
		Last10Diff:      a.Last10WinRate - b.Last10WinRate,
		H2HAdvantage:    a.H2HWinFrac - b.H2HWinFrac,
		H2HRecency:      a.H2HRecency - b.H2HRecency,

		SurfaceOrdinal: float64(m.Surface),
		Indoor:         boolToFloat(m.Indoor),
		Level:          model.LevelWeight(m.Level),
		RoundDepth:     float64(m.Round.Depth()),
		BestOf:         float64(m.BestOf),

		AWon: boolToFloat(m.AWon()),
	}

	// Serve/return form contributes only when both sides have a window; a
	// one-sided diff against an unknown baseline is noise.
	if a.FormKnown && b.FormKnown {
		fv.HoldPctDiff = a.HoldRate - b.HoldRate
		fv.BreakPctDiff = a.BreakRate - b.BreakRate
	}

	restA := as.cappedRest(a.DaysSinceLast)
	restB := as.cappedRest(b.DaysSinceLast)
	fv.DaysSinceA = float64(restA)
	fv.DaysSinceB = float64(restB)
	fv.RestDiff = float64(restA - restB)
	fv.RestDisadvantage = as.restFlag(restA, restB)

	fv.AgeDiff = ageDiff(m)
	fv.HandInteraction = leftyIndicator(m.PlayerA.Hand) - leftyIndicator(m.PlayerB.Hand)
	fv.ExperienceDiff = float64(experienceBucket(a.MatchCount) - experienceBucket(b.MatchCount))

	return fv, nil
}

// checkWall enforces the date wall for one snapshot.
func checkWall(m model.Match, s model.Snapshot) error {
	if !s.AsOf.Before(m.Date) {
		return fmt.Errorf("%w: snapshot for %s as of %s, match %s dated %s",
			ErrLeakDetected, s.PlayerID, s.AsOf.Format(time.DateOnly), m.ID, m.Date.Format(time.DateOnly))
	}
	return nil
}

// cappedRest treats an unseen player as fully rested.
func (as *Assembler) cappedRest(days int) int {
	if days < 0 || days > as.restCap {
		return as.restCap
	}
	return days
}

// restFlag is -1 when A alone is short-rested, +1 when B alone is, else 0.
func (as *Assembler) restFlag(restA, restB int) float64 {
	shortA := restA < as.shortRest
	shortB := restB < as.shortRest
	switch {
	case shortA && !shortB:
		return -1
	case shortB && !shortA:
		return 1
	default:
		return 0
	}
}

func ageDiff(m model.Match) float64 {
	if m.PlayerA.BirthYear == 0 || m.PlayerB.BirthYear == 0 {
		return 0
	}
	ageA := m.Date.Year() - m.PlayerA.BirthYear
	ageB := m.Date.Year() - m.PlayerB.BirthYear
	return float64(ageA - ageB)
}

func leftyIndicator(h model.Hand) float64 {
	if h == model.HandLeft {
		return 1
	}
	return 0
}

// experienceBucket coarsens career match counts into four tiers.
func experienceBucket(matches int) int {
	switch {
	case matches < 10:
		return 0
	case matches < 50:
		return 1
	case matches < 150:
		return 2
	default:
		return 3
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
