// Package synth generates deterministic synthetic match histories. Tests and
// local pipeline runs use it in place of scraped data: players carry latent
// strengths, outcomes are sampled from the logistic of the strength gap, so a
// well-behaved model recovers the ordering.
package synth

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/okian/breakpoint/internal/domain/model"
)

const (
	defaultSeed          = 1
	defaultPlayers       = 32
	defaultPerYear       = 400
	defaultStartYear     = 2015
	defaultEndYear       = 2023
	strengthSpread       = 400.0 // latent strengths span this many Elo-like points
	logisticScale        = 400.0
	retiredRate          = 0.03
	statsMissingRate     = 0.10
	holdBase             = 0.70
	holdStrengthGain     = 0.20
	breakBase            = 0.30
	breakStrengthGain    = -0.20
	bestOfFiveShare      = 0.2
	indoorShare          = 0.25
	minDaysBetweenRounds = 2
)

var levels = []string{"ATP250", "ATP500", "Masters 1000", "Grand Slam"}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithSeed fixes the random stream.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.seed = seed }
}

// WithPlayers sets the roster size.
func WithPlayers(n int) Option {
	return func(g *Generator) {
		if n > 1 {
			g.players = n
		}
	}
}

// WithMatchesPerYear sets the number of matches generated per calendar year.
func WithMatchesPerYear(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.perYear = n
		}
	}
}

// WithYears sets the generated calendar window, inclusive.
func WithYears(start, end int) Option {
	return func(g *Generator) {
		if start > 0 && end >= start {
			g.startYear = start
			g.endYear = end
		}
	}
}

// Generator produces a date-sorted synthetic match stream.
type Generator struct {
	seed      int64
	players   int
	perYear   int
	startYear int
	endYear   int
}

// New constructs a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		seed:      defaultSeed,
		players:   defaultPlayers,
		perYear:   defaultPerYear,
		startYear: defaultStartYear,
		endYear:   defaultEndYear,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type player struct {
	id       string
	strength float64
	hand     model.Hand
	birth    int
}

// Matches generates the full stream in non-decreasing date order. The same
// seed always yields the same stream.
func (g *Generator) Matches() []model.Match {
	rng := rand.New(rand.NewSource(g.seed))

	roster := make([]player, g.players)
	for i := range roster {
		hand := model.HandRight
		if rng.Float64() < 0.12 {
			hand = model.HandLeft
		}
		roster[i] = player{
			id:       fmt.Sprintf("p%04d", i),
			strength: strengthSpread * (float64(i)/float64(g.players-1) - 0.5),
			hand:     hand,
			birth:    1985 + rng.Intn(18),
		}
	}

	var out []model.Match
	seq := 0
	for year := g.startYear; year <= g.endYear; year++ {
		date := time.Date(year, time.January, 3, 0, 0, 0, 0, time.UTC)
		for n := 0; n < g.perYear; n++ {
			ai := rng.Intn(len(roster))
			bi := rng.Intn(len(roster))
			if ai == bi {
				bi = (bi + 1) % len(roster)
			}
			out = append(out, g.match(rng, seq, date, roster[ai], roster[bi]))
			seq++

			// Spread matches over the season, never past the year boundary.
			date = date.AddDate(0, 0, rng.Intn(minDaysBetweenRounds+1))
			if date.Year() != year {
				date = time.Date(year, time.December, 20, 0, 0, 0, 0, time.UTC)
			}
		}
	}
	return out
}

func (g *Generator) match(rng *rand.Rand, seq int, date time.Time, a, b player) model.Match {
	surfaces := model.Surfaces()
	surface := surfaces[rng.Intn(len(surfaces))]
	level := levels[rng.Intn(len(levels))]
	bestOf := 3
	if rng.Float64() < bestOfFiveShare {
		bestOf = 5
	}

	pA := 1.0 / (1.0 + math.Pow(10, (b.strength-a.strength)/logisticScale))
	winner := a.id
	if rng.Float64() >= pA {
		winner = b.id
	}
	retired := rng.Float64() < retiredRate

	m := model.Match{
		ID:       fmt.Sprintf("syn-%06d", seq),
		Date:     date,
		Surface:  surface,
		Indoor:   rng.Float64() < indoorShare,
		Level:    level,
		Round:    model.Round(rng.Intn(int(model.RoundF)) + 1),
		BestOf:   bestOf,
		PlayerA:  model.PlayerInfo{ID: a.id, Hand: a.hand, BirthYear: a.birth},
		PlayerB:  model.PlayerInfo{ID: b.id, Hand: b.hand, BirthYear: b.birth},
		WinnerID: winner,
		Retired:  retired,
	}
	if !retired && rng.Float64() > statsMissingRate {
		m.StatsA = serveStats(rng, a.strength)
		m.StatsB = serveStats(rng, b.strength)
	}
	return m
}

func serveStats(rng *rand.Rand, strength float64) model.ServeStats {
	rel := strength/strengthSpread + 0.5 // 0..1 across the roster
	noise := (rng.Float64() - 0.5) * 0.06
	return model.ServeStats{
		Valid:     true,
		HoldRate:  clamp01(holdBase + holdStrengthGain*(rel-0.5) + noise),
		BreakRate: clamp01(breakBase + breakStrengthGain*(0.5-rel) + noise),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
