package train

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/breakpoint/internal/domain/model"
)

// Default training hyperparameters.
const (
	defaultEpochs       = 300
	defaultLearningRate = 0.1
	defaultL2           = 1e-4
	stdFloor            = 1e-9
)

// LogisticOption applies a configuration option to the LogisticModel.
type LogisticOption func(*LogisticModel)

// WithEpochs sets the number of full gradient passes.
func WithEpochs(n int) LogisticOption {
	return func(m *LogisticModel) {
		if n > 0 {
			m.epochs = n
		}
	}
}

// WithLearningRate sets the gradient step size.
func WithLearningRate(lr float64) LogisticOption {
	return func(m *LogisticModel) {
		if lr > 0 {
			m.learningRate = lr
		}
	}
}

// WithL2 sets the ridge penalty on the weights.
func WithL2(l2 float64) LogisticOption {
	return func(m *LogisticModel) {
		if l2 >= 0 {
			m.l2 = l2
		}
	}
}

// WithMirrorAugmentation toggles training on both orientations of every
// match. With it on, symmetric context features cannot push the model away
// from predict(A,B) = 1 - predict(B,A).
func WithMirrorAugmentation(on bool) LogisticOption {
	return func(m *LogisticModel) { m.mirror = on }
}

// LogisticParams is the persistable form of a fitted model.
type LogisticParams struct {
	Means   []float64 `json:"means"`
	Stds    []float64 `json:"stds"`
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// LogisticModel is a deterministic batch-gradient logistic regression over
// the numeric feature schema, with per-feature standardization fitted on the
// training set only.
type LogisticModel struct {
	epochs       int
	learningRate float64
	l2           float64
	mirror       bool

	means   []float64
	stds    []float64
	weights []float64
	bias    float64
	fitted  bool
}

// NewLogisticModel constructs a model with defaults, then applies options.
// Mirror augmentation is on by default.
func NewLogisticModel(opts ...LogisticOption) *LogisticModel {
	m := &LogisticModel{
		epochs:       defaultEpochs,
		learningRate: defaultLearningRate,
		l2:           defaultL2,
		mirror:       true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fit trains by full-batch gradient descent. Deterministic: no shuffling, no
// random initialization. Cancellation is checked between epochs.
func (m *LogisticModel) Fit(ctx context.Context, features []model.FeatureVector) error {
	if len(features) == 0 {
		return ErrNoTrainingData
	}

	rows := make([][]float64, 0, 2*len(features))
	labels := make([]float64, 0, 2*len(features))
	for _, fv := range features {
		rows = append(rows, fv.Values())
		labels = append(labels, fv.AWon)
		if m.mirror {
			mir := fv.Mirror()
			rows = append(rows, mir.Values())
			labels = append(labels, mir.AWon)
		}
	}

	dim := len(rows[0])
	m.means, m.stds = standardization(rows, dim)
	for _, r := range rows {
		m.standardizeInPlace(r)
	}

	m.weights = make([]float64, dim)
	m.bias = 0
	n := float64(len(rows))

	grad := make([]float64, dim)
	for epoch := 0; epoch < m.epochs; epoch++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("training cancelled: %w", ctx.Err())
		default:
		}

		for j := range grad {
			grad[j] = 0
		}
		gradBias := 0.0
		for i, r := range rows {
			err := sigmoid(dot(m.weights, r)+m.bias) - labels[i]
			for j, v := range r {
				grad[j] += err * v
			}
			gradBias += err
		}
		for j := range m.weights {
			m.weights[j] -= m.learningRate * (grad[j]/n + m.l2*m.weights[j])
		}
		m.bias -= m.learningRate * gradBias / n
	}

	m.fitted = true
	return nil
}

// PredictProba returns the raw probability that player A wins.
func (m *LogisticModel) PredictProba(_ context.Context, fv model.FeatureVector) (float64, error) {
	if !m.fitted {
		return 0, ErrNotFitted
	}
	r := fv.Values()
	m.standardizeInPlace(r)
	return sigmoid(dot(m.weights, r) + m.bias), nil
}

// Params exports the fitted parameters for persistence.
func (m *LogisticModel) Params() (LogisticParams, error) {
	if !m.fitted {
		return LogisticParams{}, ErrNotFitted
	}
	return LogisticParams{
		Means:   append([]float64(nil), m.means...),
		Stds:    append([]float64(nil), m.stds...),
		Weights: append([]float64(nil), m.weights...),
		Bias:    m.bias,
	}, nil
}

// Restore loads previously fitted parameters, e.g. from a model artifact.
func (m *LogisticModel) Restore(p LogisticParams) error {
	if len(p.Weights) == 0 || len(p.Weights) != len(p.Means) || len(p.Means) != len(p.Stds) {
		return fmt.Errorf("%w: inconsistent parameter shapes", ErrNotFitted)
	}
	m.means = append([]float64(nil), p.Means...)
	m.stds = append([]float64(nil), p.Stds...)
	m.weights = append([]float64(nil), p.Weights...)
	m.bias = p.Bias
	m.fitted = true
	return nil
}

// Weights exposes per-feature weights keyed by schema name, for explanations.
func (m *LogisticModel) Weights() map[string]float64 {
	out := make(map[string]float64, len(m.weights))
	for i, name := range model.FeatureNames() {
		if i < len(m.weights) {
			out[name] = m.weights[i]
		}
	}
	return out
}

func (m *LogisticModel) standardizeInPlace(r []float64) {
	for j := range r {
		r[j] = (r[j] - m.means[j]) / m.stds[j]
	}
}

// standardization computes per-column mean and deviation with a floor.
func standardization(rows [][]float64, dim int) (means, stds []float64) {
	means = make([]float64, dim)
	stds = make([]float64, dim)
	n := float64(len(rows))
	for _, r := range rows {
		for j, v := range r {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}
	for _, r := range rows {
		for j, v := range r {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] < stdFloor {
			stds[j] = 1 // constant column, leave it centered
		}
	}
	return means, stds
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(w, x []float64) float64 {
	var s float64
	for i := range w {
		s += w[i] * x[i]
	}
	return s
}
