// Package split partitions assembled feature vectors into ordered
// time-series cross-validation folds with no future leakage.
package split

import (
	"fmt"

	"github.com/okian/breakpoint/internal/domain/model"
)

// Config bounds the fold sweep. Validation years run from StartYear+1 through
// EndYear inclusive; each fold trains on everything dated in or before the
// preceding years.
type Config struct {
	StartYear  int
	EndYear    int
	MinMatches int // minimum validation matches for a fold to count
}

// Fold is an immutable (train, validate) pair. Train and Validate alias the
// date-sorted input slice; neither may be mutated.
type Fold struct {
	Year     int // validation year
	Train    []model.FeatureVector
	Validate []model.FeatureVector
}

// Skipped reports a validation year dropped for sparsity.
type Skipped struct {
	Year    int
	Matches int
	Reason  error
}

// Split partitions features into calendar folds. The input must already be
// sorted by match date in non-decreasing order; Split re-asserts both that
// ordering and the per-fold train/validate boundary rather than trusting
// construction, because an upstream ordering bug would otherwise silently
// leak future matches into training.
func Split(features []model.FeatureVector, cfg Config) ([]Fold, []Skipped, error) {
	if cfg.EndYear <= cfg.StartYear {
		return nil, nil, fmt.Errorf("%w: empty year range %d..%d", ErrInsufficientFoldData, cfg.StartYear, cfg.EndYear)
	}
	for i := 1; i < len(features); i++ {
		if features[i].MatchDate.Before(features[i-1].MatchDate) {
			return nil, nil, fmt.Errorf("%w: feature %d dated before its predecessor", ErrFoldOrdering, i)
		}
	}

	// yearEnd[y] is the index one past the last feature dated in year y.
	yearStart := make(map[int]int)
	yearEnd := make(map[int]int)
	for i, fv := range features {
		y := fv.MatchDate.Year()
		if _, ok := yearStart[y]; !ok {
			yearStart[y] = i
		}
		yearEnd[y] = i + 1
	}

	var folds []Fold
	var skipped []Skipped
	for year := cfg.StartYear + 1; year <= cfg.EndYear; year++ {
		start, ok := yearStart[year]
		n := 0
		if ok {
			n = yearEnd[year] - start
		}
		if n < cfg.MinMatches {
			skipped = append(skipped, Skipped{
				Year:    year,
				Matches: n,
				Reason:  fmt.Errorf("%w: year %d has %d matches, need %d", ErrInsufficientFoldData, year, n, cfg.MinMatches),
			})
			continue
		}
		train := features[:start]
		validate := features[start:yearEnd[year]]
		if len(train) == 0 {
			skipped = append(skipped, Skipped{
				Year:    year,
				Matches: n,
				Reason:  fmt.Errorf("%w: year %d has no training history", ErrInsufficientFoldData, year),
			})
			continue
		}
		if err := assertBoundary(train, validate, year); err != nil {
			return nil, nil, err
		}
		folds = append(folds, Fold{Year: year, Train: train, Validate: validate})
	}
	return folds, skipped, nil
}

// assertBoundary re-checks max(train.date) < min(validate.date).
func assertBoundary(train, validate []model.FeatureVector, year int) error {
	last := train[len(train)-1].MatchDate
	first := validate[0].MatchDate
	if !last.Before(first) {
		return fmt.Errorf("%w: fold %d trains through %s but validates from %s",
			ErrFoldOrdering, year, last.Format("2006-01-02"), first.Format("2006-01-02"))
	}
	return nil
}
