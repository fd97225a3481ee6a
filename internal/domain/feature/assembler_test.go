package feature_test

import (
	"testing"
	"time"

	"github.com/okian/breakpoint/internal/domain/feature"
	"github.com/okian/breakpoint/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func fixtureMatch() model.Match {
	return model.Match{
		ID:       "m1",
		Date:     day(2021, 6, 14),
		Surface:  model.SurfaceGrass,
		Level:    "Grand Slam",
		Round:    model.RoundQF,
		BestOf:   5,
		PlayerA:  model.PlayerInfo{ID: "a", Hand: model.HandLeft, BirthYear: 1995},
		PlayerB:  model.PlayerInfo{ID: "b", Hand: model.HandRight, BirthYear: 1990},
		WinnerID: "a",
	}
}

func snap(id string, asOf time.Time, elo float64) model.Snapshot {
	return model.Snapshot{
		PlayerID:      id,
		AsOf:          asOf,
		EloOverall:    elo,
		EloSurface:    elo,
		Last10WinRate: 0.5,
		H2HWinFrac:    0.5,
		DaysSinceLast: 7,
	}
}

func TestAssemble(t *testing.T) {
	Convey("Given valid pre-match snapshots", t, func() {
		as := feature.New()
		m := fixtureMatch()
		a := snap("a", day(2021, 6, 7), 1516)
		b := snap("b", day(2021, 6, 10), 1484)

		Convey("When the vector is assembled", func() {
			fv, err := as.Assemble(m, a, b)

			Convey("Then differentials and context land in the right fields", func() {
				So(err, ShouldBeNil)
				So(fv.EloOverallDiff, ShouldAlmostEqual, 32.0, 1e-9)
				So(fv.SurfaceOrdinal, ShouldAlmostEqual, float64(model.SurfaceGrass), 1e-9)
				So(fv.Level, ShouldAlmostEqual, 4.0, 1e-9)
				So(fv.RoundDepth, ShouldAlmostEqual, 5.0, 1e-9)
				So(fv.BestOf, ShouldAlmostEqual, 5.0, 1e-9)
				So(fv.HandInteraction, ShouldAlmostEqual, 1.0, 1e-9)
				So(fv.AgeDiff, ShouldAlmostEqual, -5.0, 1e-9)
				So(fv.AWon, ShouldAlmostEqual, 1.0, 1e-9)
			})

			Convey("And the mirrored vector negates differentials and flips the label", func() {
				So(err, ShouldBeNil)
				mir := fv.Mirror()
				So(mir.EloOverallDiff, ShouldAlmostEqual, -32.0, 1e-9)
				So(mir.AgeDiff, ShouldAlmostEqual, 5.0, 1e-9)
				So(mir.SurfaceOrdinal, ShouldAlmostEqual, fv.SurfaceOrdinal, 1e-9)
				So(mir.BestOf, ShouldAlmostEqual, fv.BestOf, 1e-9)
				So(mir.AWon, ShouldAlmostEqual, 0.0, 1e-9)
				So(mir.DaysSinceA, ShouldAlmostEqual, fv.DaysSinceB, 1e-9)
			})
		})

		Convey("When serve/return form is known on only one side", func() {
			a.FormKnown = true
			a.HoldRate = 0.85
			fv, err := as.Assemble(m, a, b)

			Convey("Then the hold and break diffs stay zero", func() {
				So(err, ShouldBeNil)
				So(fv.HoldPctDiff, ShouldAlmostEqual, 0.0, 1e-9)
				So(fv.BreakPctDiff, ShouldAlmostEqual, 0.0, 1e-9)
			})
		})

		Convey("When both sides report form", func() {
			a.FormKnown = true
			a.HoldRate, a.BreakRate = 0.85, 0.25
			b.FormKnown = true
			b.HoldRate, b.BreakRate = 0.75, 0.20
			fv, err := as.Assemble(m, a, b)

			Convey("Then the diffs carry through", func() {
				So(err, ShouldBeNil)
				So(fv.HoldPctDiff, ShouldAlmostEqual, 0.10, 1e-9)
				So(fv.BreakPctDiff, ShouldAlmostEqual, 0.05, 1e-9)
			})
		})
	})
}

func TestAssembleDateWall(t *testing.T) {
	Convey("Given a match on 14 June", t, func() {
		as := feature.New()
		m := fixtureMatch()

		Convey("A snapshot dated the same day is rejected", func() {
			a := snap("a", m.Date, 1516)
			b := snap("b", day(2021, 6, 10), 1484)
			_, err := as.Assemble(m, a, b)
			So(err, ShouldWrap, feature.ErrLeakDetected)
		})

		Convey("A snapshot dated after the match is rejected", func() {
			a := snap("a", day(2021, 6, 7), 1516)
			b := snap("b", day(2021, 6, 20), 1484)
			_, err := as.Assemble(m, a, b)
			So(err, ShouldWrap, feature.ErrLeakDetected)
		})

		Convey("Snapshots for the wrong players are rejected", func() {
			a := snap("z", day(2021, 6, 7), 1516)
			b := snap("b", day(2021, 6, 10), 1484)
			_, err := as.Assemble(m, a, b)
			So(err, ShouldWrap, feature.ErrLeakDetected)
		})

		Convey("An unseen player passes the wall with a zero AsOf", func() {
			a := snap("a", time.Time{}, 1500)
			a.DaysSinceLast = -1
			b := snap("b", day(2021, 6, 10), 1484)
			fv, err := as.Assemble(m, a, b)
			So(err, ShouldBeNil)
			So(fv.DaysSinceA, ShouldAlmostEqual, 60.0, 1e-9)
		})
	})
}

func TestRestSignals(t *testing.T) {
	Convey("Given the rest cap and short-rest threshold", t, func() {
		as := feature.New(feature.WithRestCap(30), feature.WithShortRest(3))
		m := fixtureMatch()
		b := snap("b", day(2021, 6, 10), 1484)

		Convey("Rest beyond the cap is clamped", func() {
			a := snap("a", day(2021, 1, 1), 1516)
			a.DaysSinceLast = 160
			fv, err := as.Assemble(m, a, b)
			So(err, ShouldBeNil)
			So(fv.DaysSinceA, ShouldAlmostEqual, 30.0, 1e-9)
		})

		Convey("A short-rested A against a rested B flags -1", func() {
			a := snap("a", day(2021, 6, 13), 1516)
			a.DaysSinceLast = 1
			fv, err := as.Assemble(m, a, b)
			So(err, ShouldBeNil)
			So(fv.RestDisadvantage, ShouldAlmostEqual, -1.0, 1e-9)
		})

		Convey("Both short-rested flags 0", func() {
			a := snap("a", day(2021, 6, 13), 1516)
			a.DaysSinceLast = 1
			b2 := snap("b", day(2021, 6, 13), 1484)
			b2.DaysSinceLast = 2
			fv, err := as.Assemble(m, a, b2)
			So(err, ShouldBeNil)
			So(fv.RestDisadvantage, ShouldAlmostEqual, 0.0, 1e-9)
		})
	})
}
