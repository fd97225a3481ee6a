package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/okian/breakpoint/internal/adapters/repository"
	"github.com/okian/breakpoint/internal/domain/calibration"
	"github.com/okian/breakpoint/internal/domain/train"
	"github.com/okian/breakpoint/internal/domain/types"
)

// Artifact file names under the artifacts directory.
const (
	ModelFile       = "model.json"
	CalibrationFile = "calibration.json"
	ModelCardFile   = "model_card.json"
	RatingsFile     = "elo_ratings.csv"
	OOFFile         = "oof_predictions.csv"
)

var oofColumns = []string{"year", "raw_prob", "outcome"}

// MetricValue is one evaluation metric recorded on the model card.
type MetricValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Pass  bool    `json:"pass"`
}

// ModelCard records provenance for a trained artifact: what data it saw, the
// feature schema, hyperparameters and the evaluation outcome. The version
// string is embedded in serving responses.
type ModelCard struct {
	ModelVersion  string            `json:"model_version"`
	TrainedAt     time.Time         `json:"trained_at"`
	DataFrom      string            `json:"data_from"`
	DataTo        string            `json:"data_to"`
	Matches       int               `json:"matches"`
	SchemaVersion string            `json:"feature_schema_version"`
	Hyperparams   map[string]string `json:"hyperparameters"`
	Calibration   string            `json:"calibration"`
	Metrics       []MetricValue     `json:"metrics"`
	Promotable    bool              `json:"promotable"`
}

// SaveModelCard writes the model card JSON into dir.
func SaveModelCard(dir string, card ModelCard) error {
	return writeJSON(filepath.Join(dir, ModelCardFile), card)
}

// LoadModelCard reads the model card JSON from dir.
func LoadModelCard(dir string) (ModelCard, error) {
	var card ModelCard
	err := readJSON(filepath.Join(dir, ModelCardFile), &card)
	return card, err
}

// SaveModelParams persists fitted classifier parameters.
func SaveModelParams(dir string, params train.LogisticParams) error {
	return writeJSON(filepath.Join(dir, ModelFile), params)
}

// LoadModelParams restores fitted classifier parameters.
func LoadModelParams(dir string) (train.LogisticParams, error) {
	var params train.LogisticParams
	err := readJSON(filepath.Join(dir, ModelFile), &params)
	return params, err
}

// SaveCalibration persists the fitted calibration map.
func SaveCalibration(dir string, m calibration.Map) error {
	return writeJSON(filepath.Join(dir, CalibrationFile), m)
}

// LoadCalibration restores the fitted calibration map.
func LoadCalibration(dir string) (calibration.Map, error) {
	var m calibration.Map
	err := readJSON(filepath.Join(dir, CalibrationFile), &m)
	return m, err
}

// OOFRow is one out-of-fold prediction kept for later evaluation. Raw is the
// uncalibrated classifier output; the stored calibration map is applied at
// evaluation time.
type OOFRow struct {
	Year    int
	Raw     float64
	Outcome float64
}

// SaveOOF persists pooled out-of-fold predictions.
func SaveOOF(dir string, rows []OOFRow) error {
	out := [][]string{oofColumns}
	for _, r := range rows {
		out = append(out, []string{
			strconv.Itoa(r.Year),
			formatFloat(r.Raw),
			formatFloat(r.Outcome),
		})
	}
	return writeCSV(filepath.Join(dir, OOFFile), out)
}

// LoadOOF restores pooled out-of-fold predictions.
func LoadOOF(dir string) ([]OOFRow, error) {
	rows, err := readCSV(filepath.Join(dir, OOFFile), oofColumns)
	if err != nil {
		return nil, err
	}
	out := make([]OOFRow, 0, len(rows))
	for i, row := range rows {
		year, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d year %q", ErrBadSchema, i+1, row[0])
		}
		raw, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d raw prob %q", ErrBadSchema, i+1, row[1])
		}
		outcome, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d outcome %q", ErrBadSchema, i+1, row[2])
		}
		out = append(out, OOFRow{Year: year, Raw: raw, Outcome: outcome})
	}
	return out, nil
}

// SaveRatings exports the rankings store as CSV, best first.
func SaveRatings(ctx context.Context, dir string, repo repository.Store) error {
	rows := [][]string{{"rank", "player_id", "elo_overall", "matches"}}
	var entries []types.Entry
	if n := repo.Count(ctx); n > 0 {
		var err error
		entries, err = repo.TopN(ctx, n)
		if err != nil {
			return err
		}
	}
	for _, e := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.Rank),
			e.PlayerID,
			fmt.Sprintf("%.1f", e.EloOverall),
			fmt.Sprintf("%d", e.Matches),
		})
	}
	return writeCSV(filepath.Join(dir, RatingsFile), rows)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, fileMode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadSchema, path, err)
	}
	return nil
}
