package train_test

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/breakpoint/internal/domain/model"
	"github.com/okian/breakpoint/internal/domain/train"
	. "github.com/smartystreets/goconvey/convey"
)

// trainingSet fabricates matches where a positive rating gap usually wins.
func trainingSet(n int, seed int64) []model.FeatureVector {
	rng := rand.New(rand.NewSource(seed))
	out := make([]model.FeatureVector, n)
	for i := range out {
		gap := (rng.Float64() - 0.5) * 400
		label := 0.0
		if rng.Float64() < 1.0/(1.0+math.Exp(-gap/120)) {
			label = 1.0
		}
		out[i] = model.FeatureVector{
			MatchID:        "t",
			MatchDate:      time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			EloOverallDiff: gap,
			EloSurfaceDiff: gap * 0.8,
			Last10Diff:     (rng.Float64() - 0.5) * 0.4,
			SurfaceOrdinal: float64(i % 4),
			BestOf:         3,
			AWon:           label,
		}
	}
	return out
}

func TestLogisticFit(t *testing.T) {
	Convey("Given a separable training set", t, func() {
		features := trainingSet(600, 7)
		m := train.NewLogisticModel()

		Convey("When fitted", func() {
			err := m.Fit(context.Background(), features)
			So(err, ShouldBeNil)

			Convey("Then a large rating edge predicts a likely win", func() {
				strong := model.FeatureVector{EloOverallDiff: 200, EloSurfaceDiff: 160, BestOf: 3}
				weak := strong.Mirror()
				pStrong, err := m.PredictProba(context.Background(), strong)
				So(err, ShouldBeNil)
				pWeak, err := m.PredictProba(context.Background(), weak)
				So(err, ShouldBeNil)
				So(pStrong, ShouldBeGreaterThan, 0.6)
				So(pStrong, ShouldBeGreaterThan, pWeak)
			})

			Convey("And mirrored orientations sum to one", func() {
				fv := model.FeatureVector{
					EloOverallDiff: 120,
					EloSurfaceDiff: 90,
					Last10Diff:     0.2,
					SurfaceOrdinal: 2,
					BestOf:         5,
				}
				p, err := m.PredictProba(context.Background(), fv)
				So(err, ShouldBeNil)
				q, err := m.PredictProba(context.Background(), fv.Mirror())
				So(err, ShouldBeNil)
				So(p+q, ShouldAlmostEqual, 1.0, 0.02)
			})

			Convey("And refitting the same data gives identical weights", func() {
				m2 := train.NewLogisticModel()
				So(m2.Fit(context.Background(), features), ShouldBeNil)
				p1, _ := m.Params()
				p2, _ := m2.Params()
				So(p2.Weights, ShouldResemble, p1.Weights)
				So(p2.Bias, ShouldAlmostEqual, p1.Bias, 1e-15)
			})
		})

		Convey("When parameters round-trip through Restore", func() {
			So(m.Fit(context.Background(), features), ShouldBeNil)
			params, err := m.Params()
			So(err, ShouldBeNil)

			restored := train.NewLogisticModel()
			So(restored.Restore(params), ShouldBeNil)

			fv := features[0]
			p, err := m.PredictProba(context.Background(), fv)
			So(err, ShouldBeNil)
			q, err := restored.PredictProba(context.Background(), fv)
			So(err, ShouldBeNil)
			So(q, ShouldAlmostEqual, p, 1e-12)
		})
	})

	Convey("Given no training data", t, func() {
		m := train.NewLogisticModel()
		So(m.Fit(context.Background(), nil), ShouldWrap, train.ErrNoTrainingData)
	})

	Convey("Given an unfitted model", t, func() {
		m := train.NewLogisticModel()
		_, err := m.PredictProba(context.Background(), model.FeatureVector{})
		So(err, ShouldWrap, train.ErrNotFitted)
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m := train.NewLogisticModel()
		err := m.Fit(ctx, trainingSet(50, 1))
		So(err, ShouldNotBeNil)
	})

	Convey("Given restore with inconsistent shapes", t, func() {
		m := train.NewLogisticModel()
		err := m.Restore(train.LogisticParams{Weights: []float64{1, 2}, Means: []float64{0}, Stds: []float64{1}})
		So(err, ShouldNotBeNil)
	})
}
