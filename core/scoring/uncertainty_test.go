package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/fuse/core/signals"
	"github.com/adalundhe/fuse/core/weights"
)

func confidentSet(c float64) signals.Set {
	return signals.Set{
		Linguistic: signals.Linguistic{Confidence: c},
		Author:     signals.AuthorContext{Confidence: c},
		Velocity:   signals.Velocity{Confidence: c},
		Semantic:   signals.SemanticTopic{Confidence: c},
	}
}

func TestIntervalOrderedAndBounded(t *testing.T) {
	w := weights.Default()

	samples := []float64{0, 1, 10, 50, 500, 1e9}
	confidences := []float64{0, 0.3, 0.5, 1, math.NaN()}
	composites := []float64{0, 0.2, 0.5, 0.8, 1}

	for _, n := range samples {
		for _, c := range confidences {
			for _, score := range composites {
				w.SampleSize = n
				got := EstimateInterval(confidentSet(c), w, 50, score)

				require.LessOrEqual(t, got.Lower, got.Upper)
				require.GreaterOrEqual(t, got.Lower, 0.0)
				require.LessOrEqual(t, got.Upper, 1.0)
			}
		}
	}
}

func TestIntervalWidensWithLowConfidence(t *testing.T) {
	w := weights.Default()
	w.SampleSize = 25 // half the anchor → sampleFactor 0.5

	wide := EstimateInterval(confidentSet(0.1), w, 50, 0.5)
	narrow := EstimateInterval(confidentSet(0.9), w, 50, 0.5)

	assert.Greater(t, wide.Upper-wide.Lower, narrow.Upper-narrow.Lower)
}

func TestIntervalZeroSampleUsesFullVariance(t *testing.T) {
	w := weights.Default()
	w.SampleSize = 0

	got := EstimateInterval(confidentSet(0), w, 50, 0.5)

	// variance = DefaultVariance, half-width 1.96*sqrt(0.05) ≈ 0.438.
	half := z95 * math.Sqrt(DefaultVariance)
	assert.InDelta(t, 0.5-half, got.Lower, 1e-9)
	assert.InDelta(t, 0.5+half, got.Upper, 1e-9)
}

func TestIntervalClampedAtEdges(t *testing.T) {
	w := weights.Default()
	w.SampleSize = 0

	got := EstimateInterval(confidentSet(0), w, 50, 0.05)
	assert.Equal(t, 0.0, got.Lower)
	assert.Greater(t, got.Upper, 0.0)
}

func TestIntervalNonFiniteConfidenceDefaults(t *testing.T) {
	w := weights.Default()
	w.SampleSize = 25

	nan := EstimateInterval(confidentSet(math.NaN()), w, 50, 0.5)
	half := EstimateInterval(confidentSet(0.5), w, 50, 0.5)

	assert.Equal(t, half, nan)
}

func TestIntervalSaturatedInputsFloorToDefaultVariance(t *testing.T) {
	w := weights.Default()
	w.SampleSize = 500 // ≥ anchor → sampleFactor 1 → raw variance 0

	got := EstimateInterval(confidentSet(1), w, 50, 0.5)

	half := z95 * math.Sqrt(DefaultVariance)
	assert.InDelta(t, 0.5-half, got.Lower, 1e-9)
	assert.InDelta(t, 0.5+half, got.Upper, 1e-9)
}
