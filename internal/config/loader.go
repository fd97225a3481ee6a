package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// The three recognized configuration documents and their key prefixes.
var documents = []string{"data", "features", "model"}

// Load builds a Config by layering defaults, the three YAML documents under
// dir, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. dir/data.yaml, dir/features.yaml, dir/model.yaml (each optional)
//  3. env (prefix BREAKPOINT_, e.g. BREAKPOINT_MODEL_CALIBRATION)
func Load(_ context.Context, dir string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	for _, doc := range documents {
		path := filepath.Join(dir, doc+".yaml")
		if _, err := os.Stat(path); err != nil {
			continue // each document is optional; defaults cover it
		}
		sub := koanf.New(".")
		if err := sub.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
		if err := k.MergeAt(sub, doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// Environment variables: BREAKPOINT_LOG_LEVEL, BREAKPOINT_MODEL_ADDR, ...
	// The first segment after the prefix selects the document; the rest keeps
	// its underscores to match koanf tags on the structs.
	envProvider := env.Provider("BREAKPOINT_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(strings.ToLower(s), "breakpoint_"))
		for _, doc := range documents {
			if strings.HasPrefix(s, doc+"_") {
				return doc + "." + strings.TrimPrefix(s, doc+"_")
			}
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate runs once at load; components receive a known-good Config.
func (c *Config) validate() error {
	switch c.Model.Calibration {
	case "platt", "isotonic":
	default:
		return fmt.Errorf("%w: calibration must be platt or isotonic, got %q", ErrInvalidConfig, c.Model.Calibration)
	}
	if c.Model.EndYear <= c.Model.StartYear {
		return fmt.Errorf("%w: model year range %d..%d is empty", ErrInvalidConfig, c.Model.StartYear, c.Model.EndYear)
	}
	if c.Model.MinFoldMatches < 1 {
		return fmt.Errorf("%w: min_fold_matches must be positive", ErrInvalidConfig)
	}
	if c.Features.BaselineElo <= 0 || c.Features.KFactor <= 0 {
		return fmt.Errorf("%w: baseline_elo and k_factor must be positive", ErrInvalidConfig)
	}
	if c.Features.H2HCap < 1 || c.Features.H2HCap > 5 {
		return fmt.Errorf("%w: h2h_cap must be in 1..5", ErrInvalidConfig)
	}
	if c.Features.ServeReturnWindow < 1 || c.Features.LastN < 1 {
		return fmt.Errorf("%w: rolling windows must be positive", ErrInvalidConfig)
	}
	if len(c.Data.SourceURLs) != len(c.Data.SourceFiles) {
		return fmt.Errorf("%w: source_urls and source_files must pair up", ErrInvalidConfig)
	}
	if c.Model.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	return nil
}
