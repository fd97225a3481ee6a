package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/okian/breakpoint/internal/domain/model"
)

// featureMetaColumns precede the numeric schema in the feature table.
var featureMetaColumns = []string{"match_id", "date", "player_a", "player_b"}

// featureTailColumns follow the numeric schema.
var featureTailColumns = []string{"days_since_a", "days_since_b", "label"}

func featureHeader() []string {
	header := append([]string{}, featureMetaColumns...)
	header = append(header, model.FeatureNames()...)
	header = append(header, featureTailColumns...)
	return header
}

// SaveFeatures writes assembled feature vectors as CSV, in input order.
func SaveFeatures(path string, features []model.FeatureVector) error {
	rows := make([][]string, 0, len(features)+1)
	rows = append(rows, featureHeader())
	for _, fv := range features {
		row := []string{fv.MatchID, fv.MatchDate.Format(time.DateOnly), fv.PlayerA, fv.PlayerB}
		for _, v := range fv.Values() {
			row = append(row, formatFloat(v))
		}
		row = append(row,
			formatFloat(fv.DaysSinceA),
			formatFloat(fv.DaysSinceB),
			formatFloat(fv.AWon))
		rows = append(rows, row)
	}
	return writeCSV(path, rows)
}

// LoadFeatures reads a feature table written by SaveFeatures.
func LoadFeatures(path string) ([]model.FeatureVector, error) {
	rows, err := readCSV(path, featureHeader())
	if err != nil {
		return nil, err
	}

	names := model.FeatureNames()
	meta := len(featureMetaColumns)
	features := make([]model.FeatureVector, 0, len(rows))
	for i, row := range rows {
		date, err := time.Parse(time.DateOnly, row[1])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d has unparseable date %q", ErrBadSchema, i+2, row[1])
		}
		vals := make([]float64, len(names))
		for j := range names {
			v, err := strconv.ParseFloat(row[meta+j], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %s: %v", ErrBadSchema, i+2, names[j], err)
			}
			vals[j] = v
		}
		daysA, _ := strconv.ParseFloat(row[meta+len(names)], 64)
		daysB, _ := strconv.ParseFloat(row[meta+len(names)+1], 64)
		label, _ := strconv.ParseFloat(row[meta+len(names)+2], 64)

		features = append(features, model.FeatureVector{
			MatchID:   row[0],
			MatchDate: date,
			PlayerA:   row[2],
			PlayerB:   row[3],

			EloOverallDiff:   vals[0],
			EloSurfaceDiff:   vals[1],
			EloDelta26wDiff:  vals[2],
			EloDelta52wDiff:  vals[3],
			HoldPctDiff:      vals[4],
			BreakPctDiff:     vals[5],
			Last10Diff:       vals[6],
			RestDiff:         vals[7],
			RestDisadvantage: vals[8],
			H2HAdvantage:     vals[9],
			H2HRecency:       vals[10],
			AgeDiff:          vals[11],
			HandInteraction:  vals[12],
			ExperienceDiff:   vals[13],
			SurfaceOrdinal:   vals[14],
			Indoor:           vals[15],
			Level:            vals[16],
			RoundDepth:       vals[17],
			BestOf:           vals[18],

			DaysSinceA: daysA,
			DaysSinceB: daysB,
			AWon:       label,
		})
	}
	return features, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
