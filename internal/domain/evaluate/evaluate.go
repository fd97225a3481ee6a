// Package evaluate computes probability-quality metrics over calibrated
// out-of-fold predictions and checks them against configured thresholds.
package evaluate

import (
	"math"
	"sort"
)

// Default evaluation constants.
const (
	defaultECEBins   = 10
	probClampEpsilon = 1e-12
)

// Prediction is one calibrated out-of-fold prediction with its outcome.
type Prediction struct {
	Prob    float64
	Outcome float64 // 1 when the predicted side won
}

// Thresholds are the promotion gates. A zero threshold disables its check.
type Thresholds struct {
	MaxLogLoss float64 // pass when log loss strictly below
	MaxBrier   float64 // pass when Brier at or below
	MaxECE     float64 // pass when ECE strictly below
}

// MetricResult pairs a metric value with its threshold verdict.
type MetricResult struct {
	Name      string
	Value     float64
	Threshold float64
	Checked   bool
	Pass      bool
}

// Report carries every metric. Threshold misses are reported, never thrown;
// a failed gate is an outcome of evaluation, not a crash.
type Report struct {
	Samples int
	Metrics []MetricResult
}

// Pass reports whether every checked metric met its gate.
func (r Report) Pass() bool {
	for _, m := range r.Metrics {
		if m.Checked && !m.Pass {
			return false
		}
	}
	return true
}

// Evaluate computes log loss, Brier score, AUC and ECE over predictions and
// applies thresholds.
func Evaluate(preds []Prediction, t Thresholds) Report {
	r := Report{Samples: len(preds)}
	logLoss := LogLoss(preds)
	brier := Brier(preds)
	auc := AUC(preds)
	ece := ECE(preds, defaultECEBins)

	r.Metrics = []MetricResult{
		{Name: "log_loss", Value: logLoss, Threshold: t.MaxLogLoss, Checked: t.MaxLogLoss > 0, Pass: logLoss < t.MaxLogLoss},
		{Name: "brier", Value: brier, Threshold: t.MaxBrier, Checked: t.MaxBrier > 0, Pass: brier <= t.MaxBrier},
		{Name: "auc", Value: auc, Checked: false},
		{Name: "ece", Value: ece, Threshold: t.MaxECE, Checked: t.MaxECE > 0, Pass: ece < t.MaxECE},
	}
	return r
}

// LogLoss is the mean negative log likelihood.
func LogLoss(preds []Prediction) float64 {
	if len(preds) == 0 {
		return 0
	}
	var sum float64
	for _, p := range preds {
		prob := math.Max(probClampEpsilon, math.Min(1-probClampEpsilon, p.Prob))
		if p.Outcome > 0.5 {
			sum -= math.Log(prob)
		} else {
			sum -= math.Log(1 - prob)
		}
	}
	return sum / float64(len(preds))
}

// Brier is the mean squared probability error.
func Brier(preds []Prediction) float64 {
	if len(preds) == 0 {
		return 0
	}
	var sum float64
	for _, p := range preds {
		d := p.Prob - p.Outcome
		sum += d * d
	}
	return sum / float64(len(preds))
}

// AUC is the Mann-Whitney rank statistic: the probability a random positive
// outranks a random negative, with half credit for ties.
func AUC(preds []Prediction) float64 {
	sorted := append([]Prediction(nil), preds...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Prob < sorted[j].Prob })

	var positives, negatives float64
	var rankSum float64
	i := 0
	rank := 1.0
	for i < len(sorted) {
		// Average ranks across a tie group.
		j := i
		for j < len(sorted) && sorted[j].Prob == sorted[i].Prob {
			j++
		}
		avgRank := rank + float64(j-i-1)/2
		for k := i; k < j; k++ {
			if sorted[k].Outcome > 0.5 {
				rankSum += avgRank
				positives++
			} else {
				negatives++
			}
		}
		rank += float64(j - i)
		i = j
	}
	if positives == 0 || negatives == 0 {
		return 0.5
	}
	return (rankSum - positives*(positives+1)/2) / (positives * negatives)
}

// ECE partitions predictions into fixed-width probability bins and reports
// the occupancy-weighted mean gap between predicted probability and empirical
// outcome frequency.
func ECE(preds []Prediction, bins int) float64 {
	if len(preds) == 0 || bins <= 0 {
		return 0
	}
	sumProb := make([]float64, bins)
	sumOutcome := make([]float64, bins)
	counts := make([]float64, bins)
	for _, p := range preds {
		b := int(p.Prob * float64(bins))
		if b >= bins {
			b = bins - 1
		}
		if b < 0 {
			b = 0
		}
		sumProb[b] += p.Prob
		sumOutcome[b] += p.Outcome
		counts[b]++
	}
	var ece float64
	n := float64(len(preds))
	for b := 0; b < bins; b++ {
		if counts[b] == 0 {
			continue
		}
		gap := math.Abs(sumProb[b]/counts[b] - sumOutcome[b]/counts[b])
		ece += counts[b] / n * gap
	}
	return ece
}
