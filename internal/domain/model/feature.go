package model

import "time"

// FeatureVector is the fixed-schema model input for one match, oriented as
// (A, B). Differential fields are value(A) − value(B); mirroring the
// orientation negates every differential, swaps the per-side fields, leaves
// context fields untouched, and flips the label. The vector is immutable once
// assembled.
type FeatureVector struct {
	MatchID   string
	MatchDate time.Time
	PlayerA   string
	PlayerB   string

	// Differentials, A − B.
	EloOverallDiff   float64
	EloSurfaceDiff   float64
	EloDelta26wDiff  float64
	EloDelta52wDiff  float64
	HoldPctDiff      float64
	BreakPctDiff     float64
	Last10Diff       float64
	RestDiff         float64 // days since last match, A − B, capped
	RestDisadvantage float64 // −1, 0, +1: sign of meaningful rest deficit for A
	H2HAdvantage     float64 // A's win share minus B's over ≤5 recent meetings
	H2HRecency       float64 // recency-weighted H2H advantage
	AgeDiff          float64
	HandInteraction  float64 // lefty indicator diff
	ExperienceDiff   float64 // experience bucket diff

	// Per-side fields, swapped on mirror.
	DaysSinceA float64
	DaysSinceB float64

	// Context, orientation-invariant.
	SurfaceOrdinal float64
	Indoor         float64
	Level          float64
	RoundDepth     float64
	BestOf         float64

	// Label: 1 when A won. Never an input feature.
	AWon float64
}

// featureNames is the model input schema, in Values() order. SchemaVersion
// changes whenever this list does.
var featureNames = []string{
	"elo_overall_diff",
	"elo_surface_diff",
	"elo_delta_26w_diff",
	"elo_delta_52w_diff",
	"hold_pct_diff",
	"break_pct_diff",
	"last10_winpct_diff",
	"rest_diff",
	"rest_disadvantage",
	"h2h_advantage",
	"h2h_recency",
	"age_diff",
	"hand_interaction",
	"experience_diff",
	"surface_ordinal",
	"indoor",
	"level",
	"round_depth",
	"best_of",
}

// SchemaVersion identifies the feature schema embedded in model cards.
const SchemaVersion = "fv2"

// FeatureNames returns the model input schema in Values() order.
func FeatureNames() []string {
	out := make([]string, len(featureNames))
	copy(out, featureNames)
	return out
}

// Values returns the numeric model inputs in FeatureNames order.
func (fv FeatureVector) Values() []float64 {
	return []float64{
		fv.EloOverallDiff,
		fv.EloSurfaceDiff,
		fv.EloDelta26wDiff,
		fv.EloDelta52wDiff,
		fv.HoldPctDiff,
		fv.BreakPctDiff,
		fv.Last10Diff,
		fv.RestDiff,
		fv.RestDisadvantage,
		fv.H2HAdvantage,
		fv.H2HRecency,
		fv.AgeDiff,
		fv.HandInteraction,
		fv.ExperienceDiff,
		fv.SurfaceOrdinal,
		fv.Indoor,
		fv.Level,
		fv.RoundDepth,
		fv.BestOf,
	}
}

// Mirror returns the same match oriented as (B, A): differentials negated,
// per-side fields swapped, context untouched, label flipped.
func (fv FeatureVector) Mirror() FeatureVector {
	m := fv
	m.PlayerA, m.PlayerB = fv.PlayerB, fv.PlayerA
	m.EloOverallDiff = -fv.EloOverallDiff
	m.EloSurfaceDiff = -fv.EloSurfaceDiff
	m.EloDelta26wDiff = -fv.EloDelta26wDiff
	m.EloDelta52wDiff = -fv.EloDelta52wDiff
	m.HoldPctDiff = -fv.HoldPctDiff
	m.BreakPctDiff = -fv.BreakPctDiff
	m.Last10Diff = -fv.Last10Diff
	m.RestDiff = -fv.RestDiff
	m.RestDisadvantage = -fv.RestDisadvantage
	m.H2HAdvantage = -fv.H2HAdvantage
	m.H2HRecency = -fv.H2HRecency
	m.AgeDiff = -fv.AgeDiff
	m.HandInteraction = -fv.HandInteraction
	m.ExperienceDiff = -fv.ExperienceDiff
	m.DaysSinceA, m.DaysSinceB = fv.DaysSinceB, fv.DaysSinceA
	m.AWon = 1 - fv.AWon
	return m
}
