// Package train defines the model fit/predict boundary. The gradient-boosted
// model the pipeline is designed around sits behind this contract; the
// package ships a deterministic logistic-regression implementation so the
// pipeline runs end to end without an external trainer.
package train

import (
	"context"

	"github.com/okian/breakpoint/internal/domain/model"
)

// Model is the black-box classifier contract: fit on a fold's training
// features, then return raw win probabilities for held-out features.
type Model interface {
	// Fit trains on the given features, honoring ctx for cancellation.
	Fit(ctx context.Context, features []model.FeatureVector) error

	// PredictProba returns the raw probability that player A wins.
	// Fails with ErrNotFitted before a successful Fit.
	PredictProba(ctx context.Context, fv model.FeatureVector) (float64, error)
}

// Factory builds a fresh, unfitted Model. Each CV fold trains its own
// instance so folds stay independent and parallelizable.
type Factory func() Model
