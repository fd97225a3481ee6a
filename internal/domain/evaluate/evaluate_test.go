package evaluate_test

import (
	"math"
	"testing"

	"github.com/okian/breakpoint/internal/domain/evaluate"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given a coin-flip predictor on balanced outcomes", t, func() {
		preds := []evaluate.Prediction{
			{Prob: 0.5, Outcome: 1},
			{Prob: 0.5, Outcome: 0},
			{Prob: 0.5, Outcome: 1},
			{Prob: 0.5, Outcome: 0},
		}

		Convey("Then log loss is ln 2 and Brier is a quarter", func() {
			So(evaluate.LogLoss(preds), ShouldAlmostEqual, math.Ln2, 1e-12)
			So(evaluate.Brier(preds), ShouldAlmostEqual, 0.25, 1e-12)
		})

		Convey("And AUC is the no-skill half", func() {
			So(evaluate.AUC(preds), ShouldAlmostEqual, 0.5, 1e-12)
		})

		Convey("And ECE vanishes, the bin is perfectly calibrated", func() {
			So(evaluate.ECE(preds, 10), ShouldAlmostEqual, 0.0, 1e-12)
		})
	})

	Convey("Given a perfect separator", t, func() {
		preds := []evaluate.Prediction{
			{Prob: 0.9, Outcome: 1},
			{Prob: 0.8, Outcome: 1},
			{Prob: 0.2, Outcome: 0},
			{Prob: 0.1, Outcome: 0},
		}

		Convey("Then AUC is one", func() {
			So(evaluate.AUC(preds), ShouldAlmostEqual, 1.0, 1e-12)
		})
	})

	Convey("Given an inverted predictor", t, func() {
		preds := []evaluate.Prediction{
			{Prob: 0.9, Outcome: 0},
			{Prob: 0.1, Outcome: 1},
		}

		Convey("Then AUC is zero", func() {
			So(evaluate.AUC(preds), ShouldAlmostEqual, 0.0, 1e-12)
		})
	})

	Convey("Given tied scores across classes", t, func() {
		preds := []evaluate.Prediction{
			{Prob: 0.7, Outcome: 1},
			{Prob: 0.7, Outcome: 0},
		}

		Convey("Then the tie counts as half", func() {
			So(evaluate.AUC(preds), ShouldAlmostEqual, 0.5, 1e-12)
		})
	})

	Convey("Given one-class outcomes", t, func() {
		preds := []evaluate.Prediction{
			{Prob: 0.7, Outcome: 1},
			{Prob: 0.6, Outcome: 1},
		}

		Convey("Then AUC degrades to the no-skill half", func() {
			So(evaluate.AUC(preds), ShouldAlmostEqual, 0.5, 1e-12)
		})
	})

	Convey("Given a miscalibrated bin", t, func() {
		// All predictions near 0.9 but only half come true.
		preds := []evaluate.Prediction{
			{Prob: 0.9, Outcome: 1},
			{Prob: 0.9, Outcome: 0},
			{Prob: 0.9, Outcome: 1},
			{Prob: 0.9, Outcome: 0},
		}

		Convey("Then ECE reports the gap", func() {
			So(evaluate.ECE(preds, 10), ShouldAlmostEqual, 0.4, 1e-12)
		})
	})
}

func TestEvaluateReport(t *testing.T) {
	Convey("Given thresholds and a decent predictor", t, func() {
		preds := []evaluate.Prediction{
			{Prob: 0.8, Outcome: 1},
			{Prob: 0.7, Outcome: 1},
			{Prob: 0.3, Outcome: 0},
			{Prob: 0.2, Outcome: 0},
		}
		thresholds := evaluate.Thresholds{MaxLogLoss: 0.69, MaxBrier: 0.24, MaxECE: 0.5}

		Convey("When evaluated", func() {
			report := evaluate.Evaluate(preds, thresholds)

			Convey("Then every metric is present and the gates pass", func() {
				So(report.Samples, ShouldEqual, 4)
				So(len(report.Metrics), ShouldEqual, 4)
				So(report.Pass(), ShouldBeTrue)
			})

			Convey("And AUC is informational, never gated", func() {
				for _, m := range report.Metrics {
					if m.Name == "auc" {
						So(m.Checked, ShouldBeFalse)
					}
				}
			})
		})

		Convey("When a gate is impossible", func() {
			report := evaluate.Evaluate(preds, evaluate.Thresholds{MaxLogLoss: 0.01})

			Convey("Then the miss is reported, not thrown", func() {
				So(report.Pass(), ShouldBeFalse)
			})
		})

		Convey("When thresholds are zero", func() {
			report := evaluate.Evaluate(preds, evaluate.Thresholds{})

			Convey("Then no gate is checked", func() {
				So(report.Pass(), ShouldBeTrue)
				for _, m := range report.Metrics {
					So(m.Checked, ShouldBeFalse)
				}
			})
		})
	})
}
