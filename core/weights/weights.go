// Package weights resolves the signal blending weights for a decision
// context: a TTL cache in front of segmented lookups, with Bayesian
// shrinkage toward the global default and strict validation before any
// weight set is used.
package weights

import (
	"fmt"
	"math"
	"time"
)

// SegmentType identifies how specific a weight set is.
type SegmentType string

const (
	SegmentGlobal   SegmentType = "global"
	SegmentPlatform SegmentType = "platform"
	SegmentCombined SegmentType = "combined"
)

// Weight-sum tolerance for validation.
const sumTolerance = 0.001

// Validation failure reasons, used as the metric tag on
// weights_validation_failure_count.
const (
	ReasonInvalidSample       = "invalid_sample"
	ReasonNonFiniteOrNegative = "non_finite_or_negative"
	ReasonSumNotOne           = "sum_not_one"
	ReasonInteractionInvalid  = "interaction_invalid"
)

// ValidationError reports which rule a candidate weight set violated.
type ValidationError struct {
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("weights validation failed (%s): %s", e.Reason, e.Detail)
}

// SignalWeights blends the four continuous signals and their two pairwise
// interaction terms. Invariant once validated: the four base weights are
// finite, non-negative, and sum to 1 within sumTolerance; interaction terms
// are finite and non-negative.
type SignalWeights struct {
	SSS float64 `json:"sss_weight"`
	ARS float64 `json:"ars_weight"`
	EVS float64 `json:"evs_weight"`
	TRS float64 `json:"trs_weight"`

	SSSARSInteraction float64 `json:"sss_ars_interaction"`
	EVSTRSInteraction float64 `json:"evs_trs_interaction"`

	SegmentType SegmentType `json:"segment_type"`
	SegmentKey  string      `json:"segment_key"`
	SampleSize  float64     `json:"sample_size"`

	Validated   bool      `json:"is_validated"`
	ValidatedAt time.Time `json:"validation_timestamp,omitzero"`
}

// Default returns the global default weights. They are the shrinkage anchor
// and the fallback whenever a segment candidate fails validation.
func Default() SignalWeights {
	return SignalWeights{
		SSS:               0.35,
		ARS:               0.25,
		EVS:               0.20,
		TRS:               0.20,
		SSSARSInteraction: 0.05,
		EVSTRSInteraction: 0.05,
		SegmentType:       SegmentGlobal,
		SegmentKey:        "global",
		SampleSize:        500,
	}
}

// Validate re-checks the full invariant. It returns a *ValidationError with
// a machine-readable reason on the first violated rule.
func (w SignalWeights) Validate() error {
	base := []struct {
		name  string
		value float64
	}{
		{"sss", w.SSS},
		{"ars", w.ARS},
		{"evs", w.EVS},
		{"trs", w.TRS},
	}
	for _, b := range base {
		if !isFinite(b.value) || b.value < 0 {
			return &ValidationError{
				Reason: ReasonNonFiniteOrNegative,
				Detail: fmt.Sprintf("%s weight is %g", b.name, b.value),
			}
		}
	}

	sum := w.SSS + w.ARS + w.EVS + w.TRS
	if math.Abs(sum-1) > sumTolerance {
		return &ValidationError{
			Reason: ReasonSumNotOne,
			Detail: fmt.Sprintf("base weights sum to %g", sum),
		}
	}

	for _, it := range []struct {
		name  string
		value float64
	}{
		{"sss_ars", w.SSSARSInteraction},
		{"evs_trs", w.EVSTRSInteraction},
	} {
		if !isFinite(it.value) || it.value < 0 {
			return &ValidationError{
				Reason: ReasonInteractionInvalid,
				Detail: fmt.Sprintf("%s interaction is %g", it.name, it.value),
			}
		}
	}
	return nil
}

// Shrink blends a segment-specific weight set toward the global default,
// weighted by the segment's sample size:
//
//	shrinkage = n / (n + minSampleSize)
//
// A segment with a non-positive or non-finite sample size is rejected
// outright. The blended result is fully revalidated before use.
func Shrink(segment, global SignalWeights, minSampleSize float64) (SignalWeights, error) {
	n := segment.SampleSize
	if !isFinite(n) || n <= 0 {
		return SignalWeights{}, &ValidationError{
			Reason: ReasonInvalidSample,
			Detail: fmt.Sprintf("segment %s sample size is %g", segment.SegmentKey, n),
		}
	}

	s := n / (n + minSampleSize)
	blend := func(seg, glob float64) float64 {
		return s*seg + (1-s)*glob
	}

	out := SignalWeights{
		SSS:               blend(segment.SSS, global.SSS),
		ARS:               blend(segment.ARS, global.ARS),
		EVS:               blend(segment.EVS, global.EVS),
		TRS:               blend(segment.TRS, global.TRS),
		SSSARSInteraction: blend(segment.SSSARSInteraction, global.SSSARSInteraction),
		EVSTRSInteraction: blend(segment.EVSTRSInteraction, global.EVSTRSInteraction),
		SegmentType:       segment.SegmentType,
		SegmentKey:        segment.SegmentKey,
		SampleSize:        n,
	}

	if err := out.Validate(); err != nil {
		return SignalWeights{}, err
	}
	out.Validated = true
	out.ValidatedAt = time.Now().UTC()
	return out, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
