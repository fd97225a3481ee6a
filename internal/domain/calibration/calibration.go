// Package calibration fits a monotonic mapping from raw model probabilities
// to calibrated probabilities over pooled out-of-fold predictions.
package calibration

import (
	"fmt"
	"math"
	"sort"
)

// Supported calibration methods.
const (
	MethodPlatt    = "platt"
	MethodIsotonic = "isotonic"
)

// Default fitting constants.
const (
	defaultMinPairs    = 50
	defaultTolerance   = 1e-9
	plattIterations    = 200
	plattLearningRate  = 0.5
	probClampEpsilon   = 1e-6
	monotoneProbeSteps = 512
)

// Pair is one out-of-fold observation: the raw predicted probability and the
// realized outcome (1 when player A won).
type Pair struct {
	Raw     float64
	Outcome float64
}

// Map is a fitted monotonic probability correction. It is replaced wholesale
// on each training run and never partially updated.
type Map struct {
	Method string `json:"method"`

	// Platt parameters: calibrated = sigmoid(A*logit(raw) + B).
	A float64 `json:"a,omitempty"`
	B float64 `json:"b,omitempty"`

	// Isotonic breakpoints: Xs strictly increasing raw probabilities with
	// their fitted values Ys; Apply interpolates linearly between them.
	Xs []float64 `json:"xs,omitempty"`
	Ys []float64 `json:"ys,omitempty"`
}

// Option applies a configuration option to fitting.
type Option func(*fitter)

// WithMinPairs sets the minimum pooled sample size.
func WithMinPairs(n int) Option {
	return func(f *fitter) {
		if n > 0 {
			f.minPairs = n
		}
	}
}

// WithTolerance sets the allowed monotonicity slack in the post-fit check.
func WithTolerance(tol float64) Option {
	return func(f *fitter) {
		if tol >= 0 {
			f.tolerance = tol
		}
	}
}

type fitter struct {
	minPairs  int
	tolerance float64
}

// Fit fits a calibration map of the given method over pooled out-of-fold
// pairs and verifies monotonicity post-fit. The check is explicit rather than
// assumed from the method, because degenerate inputs (e.g. isotonic ties) can
// still produce a broken map.
func Fit(pairs []Pair, method string, opts ...Option) (Map, error) {
	f := &fitter{minPairs: defaultMinPairs, tolerance: defaultTolerance}
	for _, opt := range opts {
		opt(f)
	}
	if len(pairs) < f.minPairs {
		return Map{}, fmt.Errorf("%w: %d pairs, need at least %d", ErrCalibrationFit, len(pairs), f.minPairs)
	}

	var m Map
	var err error
	switch method {
	case MethodPlatt:
		m, err = fitPlatt(pairs)
	case MethodIsotonic:
		m, err = fitIsotonic(pairs)
	default:
		return Map{}, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if err != nil {
		return Map{}, err
	}
	if err := m.checkMonotone(f.tolerance); err != nil {
		return Map{}, err
	}
	return m, nil
}

// Apply maps a raw probability through the fitted correction. The result is
// monotone non-decreasing in raw and clamped to [0, 1].
func (m Map) Apply(raw float64) float64 {
	raw = clampProb(raw)
	switch m.Method {
	case MethodIsotonic:
		return m.applyIsotonic(raw)
	default:
		return sigmoid(m.A*logit(raw) + m.B)
	}
}

func (m Map) applyIsotonic(raw float64) float64 {
	n := len(m.Xs)
	if n == 0 {
		return raw
	}
	if raw <= m.Xs[0] {
		return m.Ys[0]
	}
	if raw >= m.Xs[n-1] {
		return m.Ys[n-1]
	}
	i := sort.SearchFloat64s(m.Xs, raw)
	// Xs[i-1] < raw <= Xs[i]; interpolate.
	span := m.Xs[i] - m.Xs[i-1]
	if span <= 0 {
		return m.Ys[i]
	}
	t := (raw - m.Xs[i-1]) / span
	return m.Ys[i-1] + t*(m.Ys[i]-m.Ys[i-1])
}

// checkMonotone probes a dense grid and rejects decreases beyond tolerance.
func (m Map) checkMonotone(tol float64) error {
	prev := m.Apply(0)
	for i := 1; i <= monotoneProbeSteps; i++ {
		p := m.Apply(float64(i) / monotoneProbeSteps)
		if p < prev-tol {
			return fmt.Errorf("%w: map decreases at raw=%.4f", ErrCalibrationFit, float64(i)/monotoneProbeSteps)
		}
		if p > prev {
			prev = p
		}
	}
	return nil
}

// fitPlatt fits logistic scaling on logits by gradient descent. Slope is
// floored at zero so the map cannot invert.
func fitPlatt(pairs []Pair) (Map, error) {
	a, b := 1.0, 0.0
	n := float64(len(pairs))
	for iter := 0; iter < plattIterations; iter++ {
		var gradA, gradB float64
		for _, p := range pairs {
			z := logit(clampProb(p.Raw))
			err := sigmoid(a*z+b) - p.Outcome
			gradA += err * z
			gradB += err
		}
		a -= plattLearningRate * gradA / n
		b -= plattLearningRate * gradB / n
		if a < 0 {
			a = 0
		}
	}
	if a == 0 {
		return Map{}, fmt.Errorf("%w: platt slope collapsed to zero", ErrCalibrationFit)
	}
	return Map{Method: MethodPlatt, A: a, B: b}, nil
}

// fitIsotonic runs pool-adjacent-violators over pairs sorted by raw
// probability. Equal raw values are merged first so ties cannot order-flip.
func fitIsotonic(pairs []Pair) (Map, error) {
	sorted := append([]Pair(nil), pairs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Raw < sorted[j].Raw })

	type block struct {
		x      float64 // weighted mean raw
		y      float64 // fitted value
		weight float64
	}
	var blocks []block
	for _, p := range sorted {
		if len(blocks) > 0 && blocks[len(blocks)-1].x == p.Raw {
			// Merge exact ties up front.
			last := &blocks[len(blocks)-1]
			last.y = (last.y*last.weight + p.Outcome) / (last.weight + 1)
			last.weight++
		} else {
			blocks = append(blocks, block{x: p.Raw, y: p.Outcome, weight: 1})
		}
		// Pool backwards while monotonicity is violated.
		for len(blocks) > 1 {
			i := len(blocks) - 1
			if blocks[i-1].y <= blocks[i].y {
				break
			}
			w := blocks[i-1].weight + blocks[i].weight
			blocks[i-1] = block{
				x:      (blocks[i-1].x*blocks[i-1].weight + blocks[i].x*blocks[i].weight) / w,
				y:      (blocks[i-1].y*blocks[i-1].weight + blocks[i].y*blocks[i].weight) / w,
				weight: w,
			}
			blocks = blocks[:i]
		}
	}

	m := Map{Method: MethodIsotonic, Xs: make([]float64, len(blocks)), Ys: make([]float64, len(blocks))}
	for i, b := range blocks {
		m.Xs[i] = b.x
		m.Ys[i] = clamp01(b.y)
	}
	return m, nil
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func clampProb(p float64) float64 {
	return math.Max(probClampEpsilon, math.Min(1-probClampEpsilon, p))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
