// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Three YAML documents (data.yaml, features.yaml, model.yaml) under one dir.
// - Provide New() initializer to build a Config with defaults.
// - Config is frozen after Load; components receive it explicitly.
// - External errors must be wrapped via this package's error helpers.
package config

// Config aggregates the three configuration documents.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	Data     Data     `koanf:"data"`
	Features Features `koanf:"features"`
	Model    Model    `koanf:"model"`
}

// Data locates raw, processed, feature and artifact storage.
type Data struct {
	RawDir       string `koanf:"raw_dir"`
	ProcessedDir string `koanf:"processed_dir"`
	FeaturesDir  string `koanf:"features_dir"`
	ArtifactsDir string `koanf:"artifacts_dir"`

	// SourceURLs are the scrape targets for the ingest stage, paired
	// one-to-one with SourceFiles output names.
	SourceURLs  []string `koanf:"source_urls"`
	SourceFiles []string `koanf:"source_files"`
}

// Features controls the rating engine and feature assembly.
type Features struct {
	BaselineElo    float64 `koanf:"baseline_elo"`
	KFactor        float64 `koanf:"k_factor"`
	KShrinkDivisor float64 `koanf:"k_shrink_divisor"` // 0 disables experience shrink

	ServeReturnWindow int `koanf:"serve_return_window"`
	LastN             int `koanf:"last_n"`
	H2HCap            int `koanf:"h2h_cap"`

	TourAvgHold  float64 `koanf:"tour_avg_hold"`
	TourAvgBreak float64 `koanf:"tour_avg_break"`

	RestCapDays   int `koanf:"rest_cap_days"`
	ShortRestDays int `koanf:"short_rest_days"`

	// Surfaces enumerates the recognized surface set. The closed set itself
	// is compiled in; this exists for validation and documentation.
	Surfaces []string `koanf:"surfaces"`
}

// Model controls cross-validation, training, calibration and evaluation.
type Model struct {
	StartYear      int `koanf:"start_year"`
	EndYear        int `koanf:"end_year"`
	MinFoldMatches int `koanf:"min_fold_matches"`

	// Calibration method: platt or isotonic.
	Calibration string `koanf:"calibration"`

	// Classifier hyperparameters.
	Epochs       int     `koanf:"epochs"`
	LearningRate float64 `koanf:"learning_rate"`
	L2           float64 `koanf:"l2"`

	// Evaluation gates.
	MaxLogLoss float64 `koanf:"max_log_loss"`
	MaxBrier   float64 `koanf:"max_brier"`
	MaxECE     float64 `koanf:"max_ece"`

	// Addr configures the HTTP listen address for the serve stage.
	Addr string `koanf:"addr"`
}

// New creates a Config with defaults. Load layers files and env on top.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Data: Data{
			RawDir:       "data/raw",
			ProcessedDir: "data/processed",
			FeaturesDir:  "data/features",
			ArtifactsDir: "data/artifacts",
		},
		Features: Features{
			BaselineElo:       1500,
			KFactor:           32,
			KShrinkDivisor:    0,
			ServeReturnWindow: 20,
			LastN:             10,
			H2HCap:            5,
			TourAvgHold:       0.80,
			TourAvgBreak:      0.20,
			RestCapDays:       60,
			ShortRestDays:     2,
			Surfaces:          []string{"hard", "clay", "grass", "carpet"},
		},
		Model: Model{
			StartYear:      2010,
			EndYear:        2023,
			MinFoldMatches: 200,
			Calibration:    "platt",
			Epochs:         300,
			LearningRate:   0.1,
			L2:             1e-4,
			MaxLogLoss:     0.69,
			MaxBrier:       0.24,
			MaxECE:         0.03,
			Addr:           ":9090",
		},
	}
}
