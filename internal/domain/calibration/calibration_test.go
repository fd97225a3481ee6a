package calibration_test

import (
	"math/rand"
	"testing"

	"github.com/okian/breakpoint/internal/domain/calibration"
	. "github.com/smartystreets/goconvey/convey"
)

// overconfident fabricates pairs where the raw probability overstates the
// true rate, the classic miscalibration shape.
func overconfident(n int, seed int64) []calibration.Pair {
	rng := rand.New(rand.NewSource(seed))
	out := make([]calibration.Pair, n)
	for i := range out {
		raw := 0.05 + 0.9*rng.Float64()
		truth := 0.5 + 0.6*(raw-0.5) // shrunk toward a coin flip
		outcome := 0.0
		if rng.Float64() < truth {
			outcome = 1.0
		}
		out[i] = calibration.Pair{Raw: raw, Outcome: outcome}
	}
	return out
}

func TestFitPlatt(t *testing.T) {
	Convey("Given overconfident raw probabilities", t, func() {
		pairs := overconfident(2000, 11)

		Convey("When a platt map is fitted", func() {
			m, err := calibration.Fit(pairs, calibration.MethodPlatt)
			So(err, ShouldBeNil)
			So(m.Method, ShouldEqual, calibration.MethodPlatt)

			Convey("Then the map is monotone over the unit interval", func() {
				prev := m.Apply(0)
				for i := 1; i <= 100; i++ {
					p := m.Apply(float64(i) / 100)
					So(p, ShouldBeGreaterThanOrEqualTo, prev)
					prev = p
				}
			})

			Convey("And it pulls extremes toward the observed rates", func() {
				So(m.Apply(0.95), ShouldBeLessThan, 0.95)
				So(m.Apply(0.05), ShouldBeGreaterThan, 0.05)
			})

			Convey("And outputs stay inside the unit interval", func() {
				So(m.Apply(0), ShouldBeBetweenOrEqual, 0, 1)
				So(m.Apply(1), ShouldBeBetweenOrEqual, 0, 1)
			})
		})
	})
}

func TestFitIsotonic(t *testing.T) {
	Convey("Given overconfident raw probabilities", t, func() {
		pairs := overconfident(2000, 13)

		Convey("When an isotonic map is fitted", func() {
			m, err := calibration.Fit(pairs, calibration.MethodIsotonic)
			So(err, ShouldBeNil)
			So(m.Method, ShouldEqual, calibration.MethodIsotonic)

			Convey("Then breakpoints are non-decreasing in both axes", func() {
				for i := 1; i < len(m.Xs); i++ {
					So(m.Xs[i], ShouldBeGreaterThan, m.Xs[i-1])
					So(m.Ys[i], ShouldBeGreaterThanOrEqualTo, m.Ys[i-1])
				}
			})

			Convey("And application interpolates monotonically", func() {
				prev := m.Apply(0)
				for i := 1; i <= 100; i++ {
					p := m.Apply(float64(i) / 100)
					So(p, ShouldBeGreaterThanOrEqualTo, prev)
					prev = p
				}
			})

			Convey("And values outside the fitted range clamp to the ends", func() {
				So(m.Apply(0), ShouldAlmostEqual, m.Ys[0], 1e-12)
				So(m.Apply(1), ShouldAlmostEqual, m.Ys[len(m.Ys)-1], 1e-12)
			})
		})

		Convey("When the pairs contain exact raw ties", func() {
			tied := append([]calibration.Pair(nil), pairs...)
			for i := 0; i < 100; i++ {
				tied = append(tied, calibration.Pair{Raw: 0.5, Outcome: float64(i % 2)})
			}
			m, err := calibration.Fit(tied, calibration.MethodIsotonic)

			Convey("Then fitting still yields a strictly increasing domain", func() {
				So(err, ShouldBeNil)
				for i := 1; i < len(m.Xs); i++ {
					So(m.Xs[i], ShouldBeGreaterThan, m.Xs[i-1])
				}
			})
		})
	})
}

func TestFitGuards(t *testing.T) {
	Convey("Given too few pairs", t, func() {
		_, err := calibration.Fit(overconfident(10, 3), calibration.MethodPlatt)
		So(err, ShouldWrap, calibration.ErrCalibrationFit)
	})

	Convey("Given a lowered minimum", t, func() {
		_, err := calibration.Fit(overconfident(30, 3), calibration.MethodPlatt, calibration.WithMinPairs(20))
		So(err, ShouldBeNil)
	})

	Convey("Given an unknown method", t, func() {
		_, err := calibration.Fit(overconfident(100, 3), "beta")
		So(err, ShouldWrap, calibration.ErrUnknownMethod)
	})
}
