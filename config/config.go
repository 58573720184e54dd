// Package config holds every tunable threshold of the analytical pipeline
// in one explicit object. Stages receive a Config value instead of reading
// process-wide settings, so two concurrent runs can use different knobs.
//
// The defaults mirror common practice (1.5x IQR fences, PSI 0.1/0.25
// bands), not validated rules; callers with domain knowledge should
// override them per dataset.
package config

import (
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

// Config carries the knobs for every pipeline stage.
type Config struct {
	// Ingestion
	MaxInputBytes int64 `yaml:"max_input_bytes"`

	// Type inference
	CategoricalCardinalityMax int     `yaml:"categorical_cardinality_max"` // distinct values at or below which a string column is categorical
	IDUniqueRatio             float64 `yaml:"id_unique_ratio"`             // unique ratio above which a column is ID-like

	// Cleaning
	MissingDropThreshold float64 `yaml:"missing_drop_threshold"` // drop columns above this missing rate
	IQRMultiplier        float64 `yaml:"iqr_multiplier"`         // outlier fence width
	SkewThreshold        float64 `yaml:"skew_threshold"`         // |skew| above which a transform applies

	// Feature engineering
	VarianceThreshold     float64 `yaml:"variance_threshold"`
	CorrelationThreshold  float64 `yaml:"correlation_threshold"`
	OneHotCardinalityMax  int     `yaml:"one_hot_cardinality_max"`
	RFEMinFeatures        int     `yaml:"rfe_min_features"`
	RFEMaxIterations      int     `yaml:"rfe_max_iterations"`
	RFETolerance          float64 `yaml:"rfe_tolerance"` // allowed validation metric drop per elimination round

	// Problem type detection
	ClassificationCardinalityMax int `yaml:"classification_cardinality_max"` // exclusive: a numeric target at this cardinality is regression

	// Training
	TestFraction     float64 `yaml:"test_fraction"`
	MinTrainingRows  int     `yaml:"min_training_rows"`
	CVFolds          int     `yaml:"cv_folds"`
	SearchIterations int     `yaml:"search_iterations"`
	EnableTuning     bool    `yaml:"enable_tuning"`
	Seed             int64   `yaml:"seed"`
	Workers          int     `yaml:"workers"`

	// Drift
	PSIBins              int     `yaml:"psi_bins"`
	PSIEpsilon           float64 `yaml:"psi_epsilon"`
	PSIModerateThreshold float64 `yaml:"psi_moderate_threshold"`
	PSISevereThreshold   float64 `yaml:"psi_severe_threshold"`

	// Explainability
	PermutationRepeats int `yaml:"permutation_repeats"`
}

// Default returns the configuration used when the caller supplies nothing.
func Default() Config {
	return Config{
		MaxInputBytes: 64 << 20,

		CategoricalCardinalityMax: 20,
		IDUniqueRatio:             0.95,

		MissingDropThreshold: 0.5,
		IQRMultiplier:        1.5,
		SkewThreshold:        1.0,

		VarianceThreshold:    0.01,
		CorrelationThreshold: 0.95,
		OneHotCardinalityMax: 20,
		RFEMinFeatures:       3,
		RFEMaxIterations:     30,
		RFETolerance:         0.02,

		ClassificationCardinalityMax: 20,

		TestFraction:     0.2,
		MinTrainingRows:  10,
		CVFolds:          3,
		SearchIterations: 10,
		EnableTuning:     true,
		Seed:             42,
		Workers:          runtime.NumCPU(),

		PSIBins:              10,
		PSIEpsilon:           1e-4,
		PSIModerateThreshold: 0.1,
		PSISevereThreshold:   0.25,

		PermutationRepeats: 5,
	}
}

// Load reads a YAML file and overlays it on the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, pkgerr.Wrapf(err, "config: reading %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, pkgerr.Wrapf(err, "config: parsing %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations that would make a stage misbehave.
func (c Config) Validate() error {
	switch {
	case c.TestFraction <= 0 || c.TestFraction >= 1:
		return pkgerr.NewValueError("Config.Validate", "test_fraction must be in (0, 1)")
	case c.MissingDropThreshold <= 0 || c.MissingDropThreshold > 1:
		return pkgerr.NewValueError("Config.Validate", "missing_drop_threshold must be in (0, 1]")
	case c.PSIBins < 2:
		return pkgerr.NewValueError("Config.Validate", "psi_bins must be at least 2")
	case c.RFEMinFeatures < 1:
		return pkgerr.NewValueError("Config.Validate", "rfe_min_features must be at least 1")
	case c.CVFolds < 2:
		return pkgerr.NewValueError("Config.Validate", "cv_folds must be at least 2")
	case c.Workers < 1:
		return pkgerr.NewValueError("Config.Validate", "workers must be at least 1")
	}
	return nil
}
