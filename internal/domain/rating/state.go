package rating

import (
	"time"

	"github.com/okian/breakpoint/internal/domain/model"
)

// formSample is one match's opponent-adjusted serve/return point rates.
type formSample struct {
	date time.Time
	hold float64
	brk  float64
}

// resultEntry is one match result in a player's rolling history.
type resultEntry struct {
	date     time.Time
	opponent string
	won      bool
}

// ratingPoint anchors the overall rating at a point in time, for trailing
// delta computation.
type ratingPoint struct {
	date time.Time
	elo  float64
}

// playerState is the live mutable state for one player. It never leaves the
// engine; snapshots copy the derived values out.
type playerState struct {
	id string

	eloOverall    float64
	eloSurface    [4]float64
	surfacePlayed [4]bool

	// form is the bounded serve/return window, oldest first.
	form []formSample

	// recent is the bounded match-result window, oldest first.
	recent []resultEntry

	// h2h keeps at most h2hCap most recent meetings per opponent, oldest first.
	h2h map[string][]resultEntry

	// history anchors eloOverall over time for 26w/52w deltas. The front is
	// trimmed to keep exactly one anchor older than the longest window.
	history []ratingPoint

	matches       int
	lastMatchDate time.Time
	hasPlayed     bool
}

func newPlayerState(id string, baseline float64) *playerState {
	s := &playerState{
		id:         id,
		eloOverall: baseline,
		h2h:        make(map[string][]resultEntry),
	}
	for i := range s.eloSurface {
		s.eloSurface[i] = baseline
	}
	return s
}

// pushForm appends a serve/return sample, evicting the oldest beyond limit.
func (s *playerState) pushForm(sample formSample, limit int) {
	s.form = append(s.form, sample)
	if len(s.form) > limit {
		s.form = s.form[1:]
	}
}

// pushResult appends a match result to the rolling and H2H windows.
func (s *playerState) pushResult(e resultEntry, recentCap, h2hCap int) {
	s.recent = append(s.recent, e)
	if len(s.recent) > recentCap {
		s.recent = s.recent[1:]
	}
	meetings := append(s.h2h[e.opponent], e)
	if len(meetings) > h2hCap {
		meetings = meetings[1:]
	}
	s.h2h[e.opponent] = meetings
}

// pushHistory records the post-match overall rating and trims anchors older
// than needed for the longest trailing window.
func (s *playerState) pushHistory(p ratingPoint, longest time.Duration) {
	s.history = append(s.history, p)
	cutoff := p.date.Add(-longest)
	for len(s.history) > 1 && !s.history[1].date.After(cutoff) {
		s.history = s.history[1:]
	}
}

// ratingAt returns the overall rating as of t: the latest anchored value not
// after t, or baseline when the player had no rating yet.
func (s *playerState) ratingAt(t time.Time, baseline float64) float64 {
	elo := baseline
	for _, p := range s.history {
		if p.date.After(t) {
			break
		}
		elo = p.elo
	}
	return elo
}

// formRates averages the rolling window. ok is false with an empty window.
func (s *playerState) formRates() (hold, brk float64, ok bool) {
	if len(s.form) == 0 {
		return 0, 0, false
	}
	for _, f := range s.form {
		hold += f.hold
		brk += f.brk
	}
	n := float64(len(s.form))
	return hold / n, brk / n, true
}

// lastNWinRate computes the win share over up to n most recent results.
func (s *playerState) lastNWinRate(n int) float64 {
	if len(s.recent) == 0 {
		return 0.5
	}
	start := len(s.recent) - n
	if start < 0 {
		start = 0
	}
	wins, total := 0, 0
	for _, e := range s.recent[start:] {
		total++
		if e.won {
			wins++
		}
	}
	return float64(wins) / float64(total)
}

// headToHead summarizes meetings against one opponent: plain win share and a
// recency-weighted score in [-1, 1] where newer meetings count double.
func (s *playerState) headToHead(opponent string) (winFrac, recency float64, meetings int) {
	ms := s.h2h[opponent]
	if len(ms) == 0 {
		return 0.5, 0, 0
	}
	wins := 0
	var num, den float64
	w := 1.0
	for i := len(ms) - 1; i >= 0; i-- { // newest first
		if ms[i].won {
			wins++
			num += w
		} else {
			num -= w
		}
		den += w
		w /= 2
	}
	return float64(wins) / float64(len(ms)), num / den, len(ms)
}

// daysSince returns whole days between the last match and t, -1 when the
// player has no prior match.
func (s *playerState) daysSince(t time.Time) int {
	if !s.hasPlayed {
		return -1
	}
	return int(t.Sub(s.lastMatchDate).Hours() / 24)
}

// snapshot copies the derived pre-match view of this player out of the
// engine, relative to the upcoming match at date on surface against opponent.
func (s *playerState) snapshot(date time.Time, surface model.Surface, opponent string, cfg snapshotConfig) model.Snapshot {
	snap := model.Snapshot{
		PlayerID:   s.id,
		AsOf:       s.lastMatchDate, // zero time for an unseen player
		EloOverall: s.eloOverall,
		MatchCount: s.matches,
	}
	if s.surfacePlayed[surface] {
		snap.EloSurface = s.eloSurface[surface]
		snap.SurfacePlayed = true
	} else {
		// No history on this surface yet: fall back to overall.
		snap.EloSurface = s.eloOverall
	}
	snap.EloDelta26w = s.eloOverall - s.ratingAt(date.Add(-26*7*24*time.Hour), cfg.baseline)
	snap.EloDelta52w = s.eloOverall - s.ratingAt(date.Add(-52*7*24*time.Hour), cfg.baseline)
	snap.HoldRate, snap.BreakRate, snap.FormKnown = s.formRates()
	snap.Last10WinRate = s.lastNWinRate(cfg.lastN)
	snap.DaysSinceLast = s.daysSince(date)
	snap.H2HWinFrac, snap.H2HRecency, snap.H2HMeetings = s.headToHead(opponent)
	return snap
}

// snapshotConfig carries the engine knobs snapshotting needs.
type snapshotConfig struct {
	baseline float64
	lastN    int
}
