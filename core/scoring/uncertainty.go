package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/adalundhe/fuse/core/signals"
	"github.com/adalundhe/fuse/core/weights"
)

// DefaultVariance is the variance assumed when nothing reduces uncertainty:
// zero effective sample and zero signal confidence. sqrt(0.05)*1.96 ≈ 0.44,
// so the worst-case interval saturates most of [0,1].
const DefaultVariance = 0.05

// z95 is the two-sided 95% normal quantile.
const z95 = 1.96

// missingConfidence stands in for absent or non-finite signal confidences.
const missingConfidence = 0.5

// Interval is a credible interval around the composite score.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// EstimateInterval derives the 95% credible interval around the composite
// score. Variance shrinks with both the weight segment's sample size and
// the mean confidence of the four continuous signals.
func EstimateInterval(set signals.Set, w weights.SignalWeights, minSampleSize, composite float64) Interval {
	sampleFactor := 0.0
	if minSampleSize > 0 && isFinite(w.SampleSize) && w.SampleSize > 0 {
		sampleFactor = math.Min(w.SampleSize/minSampleSize, 1)
	}

	confidences := []float64{
		sanitizeConfidence(set.Linguistic.Confidence),
		sanitizeConfidence(set.Author.Confidence),
		sanitizeConfidence(set.Velocity.Confidence),
		sanitizeConfidence(set.Semantic.Confidence),
	}
	avgConfidence := stat.Mean(confidences, nil)

	variance := DefaultVariance * (1 - sampleFactor) * (1 - avgConfidence)
	if !isFinite(variance) || variance <= 0 {
		variance = DefaultVariance
	}

	half := z95 * math.Sqrt(variance)
	return Interval{
		Lower: clamp01(composite - half),
		Upper: clamp01(composite + half),
	}
}

func sanitizeConfidence(v float64) float64 {
	if !isFinite(v) || v < 0 || v > 1 {
		return missingConfidence
	}
	return v
}
