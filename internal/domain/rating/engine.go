// Package rating owns evolving per-player skill and form state. It is a
// sequential state machine: matches must be processed in non-decreasing
// timestamp order, and snapshots emitted for a match reflect exclusively the
// matches dated strictly before it.
package rating

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/okian/breakpoint/internal/domain/model"
)

// Default engine configuration constants.
const (
	defaultBaseline     = 1500
	defaultKFactor      = 32
	defaultFormWindow   = 20
	defaultRecentWindow = 10
	defaultH2HCap       = 5
	defaultTourHold     = 0.80
	defaultTourBreak    = 0.20
	longestDeltaWindow  = 53 * 7 * 24 * time.Hour // one week of slack past 52w
)

// Sink receives post-update ratings for read-side consumers such as the
// rankings repository. Implementations must not call back into the engine.
type Sink interface {
	Upsert(playerID string, eloOverall float64, matches int)
}

// Engine processes matches chronologically and owns all player state.
// It is not safe for concurrent use; the match stream is a single ordered pass.
type Engine struct {
	baseline       float64
	kFactor        float64
	kShrinkDivisor float64
	formWindow     int
	recentWindow   int
	h2hCap         int
	tourHold       float64
	tourBreak      float64
	sink           Sink

	players map[string]*playerState
	clock   time.Time // high-water mark of processed match dates
	started bool
}

// New constructs an Engine with defaults, then applies options.
func New(opts ...Option) *Engine {
	e := &Engine{
		baseline:     defaultBaseline,
		kFactor:      defaultKFactor,
		formWindow:   defaultFormWindow,
		recentWindow: defaultRecentWindow,
		h2hCap:       defaultH2HCap,
		tourHold:     defaultTourHold,
		tourBreak:    defaultTourBreak,
		players:      make(map[string]*playerState),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expected is the logistic Elo expectation for self against opp.
func Expected(self, opp float64) float64 {
	return 1 / (1 + math.Pow(10, (opp-self)/400))
}

// Process consumes one match and returns the two pre-match snapshots, oriented
// (A, B) to match the record. Calling it with a match dated before any
// previously processed match fails with ErrDateOrderViolation and leaves
// state untouched.
func (e *Engine) Process(m model.Match) (model.Snapshot, model.Snapshot, error) {
	if err := validateIDs(m); err != nil {
		return model.Snapshot{}, model.Snapshot{}, err
	}
	if e.started && m.Date.Before(e.clock) {
		return model.Snapshot{}, model.Snapshot{}, fmt.Errorf(
			"%w: match %s dated %s before engine clock %s",
			ErrDateOrderViolation, m.ID, m.Date.Format(time.DateOnly), e.clock.Format(time.DateOnly))
	}

	a := e.player(m.PlayerA.ID)
	b := e.player(m.PlayerB.ID)

	cfg := snapshotConfig{baseline: e.baseline, lastN: e.recentWindow}
	snapA := a.snapshot(m.Date, m.Surface, b.id, cfg)
	snapB := b.snapshot(m.Date, m.Surface, a.id, cfg)

	e.applyOutcome(a, b, m)

	e.clock = m.Date
	e.started = true
	return snapA, snapB, nil
}

// Clock returns the date of the most recently processed match.
func (e *Engine) Clock() (time.Time, bool) { return e.clock, e.started }

// Snapshot builds a pre-match snapshot for one player against a prospective
// opponent without mutating state. It serves the inference path; asOf must be
// strictly after the player's last processed match for the date wall to pass
// downstream. Unseen players snapshot at the baseline without entering the
// engine, so concurrent snapshots never write shared state.
func (e *Engine) Snapshot(playerID, opponentID string, surface model.Surface, asOf time.Time) (model.Snapshot, error) {
	if strings.TrimSpace(playerID) == "" || strings.TrimSpace(opponentID) == "" {
		return model.Snapshot{}, ErrMissingPlayer
	}
	cfg := snapshotConfig{baseline: e.baseline, lastN: e.recentWindow}
	s, ok := e.players[playerID]
	if !ok {
		s = newPlayerState(playerID, e.baseline)
	}
	return s.snapshot(asOf, surface, opponentID, cfg), nil
}

// player looks up or lazily creates state at the baseline rating.
func (e *Engine) player(id string) *playerState {
	s, ok := e.players[id]
	if !ok {
		s = newPlayerState(id, e.baseline)
		e.players[id] = s
	}
	return s
}

// applyOutcome mutates both players' state with the realized result.
func (e *Engine) applyOutcome(a, b *playerState, m model.Match) {
	aWon := m.AWon()

	winner, loser := a, b
	if !aWon {
		winner, loser = b, a
	}

	// Overall and surface ratings update independently with the same K, each
	// from its own expectation.
	expOverall := Expected(winner.eloOverall, loser.eloOverall)
	winner.eloOverall += e.kEff(winner) * (1 - expOverall)
	loser.eloOverall -= e.kEff(loser) * (1 - expOverall)

	surf := m.Surface
	expSurface := Expected(winner.eloSurface[surf], loser.eloSurface[surf])
	winner.eloSurface[surf] += e.kEff(winner) * (1 - expSurface)
	loser.eloSurface[surf] -= e.kEff(loser) * (1 - expSurface)
	winner.surfacePlayed[surf] = true
	loser.surfacePlayed[surf] = true

	// Serve/return windows are skipped for retirements and walkovers; the
	// recorded point rates are not representative.
	if !m.Retired {
		e.pushAdjustedForm(a, b, m.Date, m.StatsA)
		e.pushAdjustedForm(b, a, m.Date, m.StatsB)
	}

	a.pushResult(resultEntry{date: m.Date, opponent: b.id, won: aWon}, e.recentWindow, e.h2hCap)
	b.pushResult(resultEntry{date: m.Date, opponent: a.id, won: !aWon}, e.recentWindow, e.h2hCap)

	for _, s := range []*playerState{a, b} {
		s.matches++
		s.lastMatchDate = m.Date
		s.hasPlayed = true
		s.pushHistory(ratingPoint{date: m.Date, elo: s.eloOverall}, longestDeltaWindow)
	}

	if e.sink != nil {
		e.sink.Upsert(a.id, a.eloOverall, a.matches)
		e.sink.Upsert(b.id, b.eloOverall, b.matches)
	}
}

// pushAdjustedForm records self's serve/return rates adjusted for opponent
// strength: holding against a strong returner, or breaking a strong server,
// counts for more than the raw rate. Opponents without form history get no
// adjustment.
func (e *Engine) pushAdjustedForm(self, opp *playerState, date time.Time, own model.ServeStats) {
	if !own.Valid {
		return
	}
	hold, brk := own.HoldRate, own.BreakRate
	if oppHold, oppBreak, ok := opp.formRates(); ok {
		hold = clamp01(hold + (oppBreak - e.tourBreak))
		brk = clamp01(brk + (oppHold - e.tourHold))
	}
	self.pushForm(formSample{date: date, hold: hold, brk: brk}, e.formWindow)
}

// kEff applies the optional experience shrink to the K factor.
func (e *Engine) kEff(s *playerState) float64 {
	if e.kShrinkDivisor <= 0 {
		return e.kFactor
	}
	return e.kFactor / (1 + float64(s.matches)/e.kShrinkDivisor)
}

func validateIDs(m model.Match) error {
	idA := strings.TrimSpace(m.PlayerA.ID)
	idB := strings.TrimSpace(m.PlayerB.ID)
	switch {
	case idA == "" || idB == "":
		return fmt.Errorf("%w: match %s", ErrMissingPlayer, m.ID)
	case idA == idB:
		return fmt.Errorf("%w: match %s lists the same player twice", ErrMissingPlayer, m.ID)
	case m.WinnerID != idA && m.WinnerID != idB:
		return fmt.Errorf("%w: match %s winner %q is not a participant", ErrMissingPlayer, m.ID, m.WinnerID)
	}
	return nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
