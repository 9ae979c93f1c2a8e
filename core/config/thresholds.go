// Package config loads and validates the decision thresholds the engine is
// constructed with. Loading happens once at startup; a missing or invalid
// base file is fatal so the process never serves decisions with unvalidated
// thresholds.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Thresholds are the static decision cuts, immutable for the process
// lifetime once loaded.
type Thresholds struct {
	// SSS cuts on the composite-relevant linguistic score.
	SSSHelpful  float64 `yaml:"sss_helpful"`
	SSSModerate float64 `yaml:"sss_moderate"`

	// EVS cuts on the raw velocity ratio.
	EVSViralHigh     float64 `yaml:"evs_viral_high"`
	EVSViralModerate float64 `yaml:"evs_viral_moderate"`

	ARSStrong float64 `yaml:"ars_strong"`

	// TRSGate is the hard topicality gate; items below it are disengaged.
	TRSGate float64 `yaml:"trs_gate"`

	// MinSampleSize anchors Bayesian shrinkage and the uncertainty
	// estimator's sample factor.
	MinSampleSize float64 `yaml:"min_sample_size"`

	// Review policy cuts.
	ReviewMargin        float64 `yaml:"review_margin"`
	ReviewLowConfidence float64 `yaml:"review_low_confidence"`

	// CompetitorOpportunity splits competitor mentions between HELPFUL and
	// HYBRID handling.
	CompetitorOpportunity float64 `yaml:"competitor_opportunity"`
}

type thresholdsFile struct {
	Thresholds Thresholds `yaml:"thresholds"`
}

// Default returns the thresholds shipped with the base config file.
func Default() Thresholds {
	return Thresholds{
		SSSHelpful:            0.75,
		SSSModerate:           0.5,
		EVSViralHigh:          10,
		EVSViralModerate:      3,
		ARSStrong:             0.7,
		TRSGate:               0.3,
		MinSampleSize:         50,
		ReviewMargin:          0.05,
		ReviewLowConfidence:   0.4,
		CompetitorOpportunity: 0.6,
	}
}

// Load reads the base thresholds file, deep-merges the optional
// environment override on top, and validates the result. The base file is
// required; overridePath may be empty.
func Load(basePath, overridePath string) (Thresholds, error) {
	base, err := decodeFile(basePath)
	if err != nil {
		return Thresholds{}, fmt.Errorf("base thresholds: %w", err)
	}

	if overridePath != "" {
		override, err := decodeFile(overridePath)
		if err != nil {
			return Thresholds{}, fmt.Errorf("override thresholds: %w", err)
		}
		DeepMerge(&base, &override)
	}

	if err := base.Validate(); err != nil {
		return Thresholds{}, fmt.Errorf("thresholds validation: %w", err)
	}
	return base, nil
}

// decodeFile strictly decodes one yaml thresholds file. Unknown keys are a
// schema error, not a silent drop.
func decodeFile(path string) (Thresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, fmt.Errorf("read %s: %w", path, err)
	}

	var file thresholdsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return Thresholds{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return file.Thresholds, nil
}

// Validate checks every field against its documented bounds.
func (t Thresholds) Validate() error {
	unit := []struct {
		name  string
		value float64
	}{
		{"sss_helpful", t.SSSHelpful},
		{"sss_moderate", t.SSSModerate},
		{"ars_strong", t.ARSStrong},
		{"trs_gate", t.TRSGate},
		{"review_low_confidence", t.ReviewLowConfidence},
		{"competitor_opportunity", t.CompetitorOpportunity},
	}
	for _, f := range unit {
		if f.value < 0 || f.value > 1 {
			return fmt.Errorf("%s must be in [0,1], got %g", f.name, f.value)
		}
	}

	if t.SSSModerate > t.SSSHelpful {
		return fmt.Errorf("sss_moderate (%g) must not exceed sss_helpful (%g)", t.SSSModerate, t.SSSHelpful)
	}
	if t.EVSViralModerate < 0 || t.EVSViralHigh < 0 {
		return fmt.Errorf("evs cuts must be non-negative")
	}
	if t.EVSViralModerate > t.EVSViralHigh {
		return fmt.Errorf("evs_viral_moderate (%g) must not exceed evs_viral_high (%g)", t.EVSViralModerate, t.EVSViralHigh)
	}
	if t.MinSampleSize <= 0 {
		return fmt.Errorf("min_sample_size must be positive, got %g", t.MinSampleSize)
	}
	if t.ReviewMargin < 0 || t.ReviewMargin > 0.5 {
		return fmt.Errorf("review_margin must be in [0,0.5], got %g", t.ReviewMargin)
	}
	return nil
}
