package weights

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeightsAreValid(t *testing.T) {
	w := Default()
	require.NoError(t, w.Validate())

	sum := w.SSS + w.ARS + w.EVS + w.TRS
	assert.InDelta(t, 1.0, sum, 0.001)
}

func TestValidateRejectsSumNotOne(t *testing.T) {
	// Four 0.4 weights sum to 1.6.
	w := Default()
	w.SSS, w.ARS, w.EVS, w.TRS = 0.4, 0.4, 0.4, 0.4

	err := w.Validate()
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ReasonSumNotOne, ve.Reason)
}

func TestValidateRejectsNonFiniteAndNegative(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SignalWeights)
		reason string
	}{
		{"nan base weight", func(w *SignalWeights) { w.SSS = math.NaN() }, ReasonNonFiniteOrNegative},
		{"infinite base weight", func(w *SignalWeights) { w.EVS = math.Inf(1) }, ReasonNonFiniteOrNegative},
		{"negative base weight", func(w *SignalWeights) { w.ARS = -0.1 }, ReasonNonFiniteOrNegative},
		{"nan interaction", func(w *SignalWeights) { w.SSSARSInteraction = math.NaN() }, ReasonInteractionInvalid},
		{"negative interaction", func(w *SignalWeights) { w.EVSTRSInteraction = -1 }, ReasonInteractionInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := Default()
			tc.mutate(&w)

			var ve *ValidationError
			require.ErrorAs(t, w.Validate(), &ve)
			assert.Equal(t, tc.reason, ve.Reason)
		})
	}
}

func TestValidateAcceptsSumWithinTolerance(t *testing.T) {
	w := Default()
	w.SSS += 0.0009

	assert.NoError(t, w.Validate())
}

func TestShrinkBlendsTowardGlobal(t *testing.T) {
	global := Default()
	segment := SignalWeights{
		SSS: 0.55, ARS: 0.15, EVS: 0.15, TRS: 0.15,
		SSSARSInteraction: 0.10,
		EVSTRSInteraction: 0.02,
		SegmentType:       SegmentCombined,
		SegmentKey:        "mastodon_morning",
		SampleSize:        50,
	}

	// sampleSize 50, minSampleSize 50 → shrinkage 0.5, an even blend.
	got, err := Shrink(segment, global, 50)
	require.NoError(t, err)

	assert.InDelta(t, 0.45, got.SSS, 1e-9)
	assert.InDelta(t, 0.20, got.ARS, 1e-9)
	assert.InDelta(t, 0.175, got.EVS, 1e-9)
	assert.InDelta(t, 0.175, got.TRS, 1e-9)
	assert.InDelta(t, 0.075, got.SSSARSInteraction, 1e-9)
	assert.InDelta(t, 0.035, got.EVSTRSInteraction, 1e-9)
	assert.True(t, got.Validated)
	assert.False(t, got.ValidatedAt.IsZero())
}

func TestShrinkLargeSampleStaysNearSegment(t *testing.T) {
	global := Default()
	segment := Default()
	segment.SSS, segment.ARS = 0.5, 0.1
	segment.SegmentKey = "bluesky"
	segment.SampleSize = 5000

	got, err := Shrink(segment, global, 50)
	require.NoError(t, err)

	// shrinkage ≈ 0.99: nearly all segment.
	assert.InDelta(t, 0.4985, got.SSS, 1e-4)
}

func TestShrinkRejectsBadSampleSize(t *testing.T) {
	for _, n := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		segment := Default()
		segment.SampleSize = n

		_, err := Shrink(segment, Default(), 50)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, ReasonInvalidSample, ve.Reason)
	}
}

func TestShrinkRevalidatesBlend(t *testing.T) {
	segment := Default()
	segment.SSS = math.NaN()
	segment.SampleSize = 100

	_, err := Shrink(segment, Default(), 50)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ReasonNonFiniteOrNegative, ve.Reason)
}
