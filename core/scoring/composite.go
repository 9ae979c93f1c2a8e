// Package scoring fuses the four continuous signals into the composite
// score and derives the credible interval around it. Both operations are
// pure given their inputs; malformed numerics degrade to fixed safe
// defaults instead of failing.
package scoring

import (
	"math"

	"github.com/adalundhe/fuse/core/metrics"
	"github.com/adalundhe/fuse/core/weights"
)

// Fallbacks substituted for non-finite inputs. EVS is a ratio, so its
// neutral value is 1 (baseline velocity), not 0.5.
const (
	fallbackScore    = 0.5
	fallbackEVSRatio = 1.0
)

// evsLogDenominator = log10(101), so ratio 0 maps to 0 and ratio 100 maps
// to exactly 1.
var evsLogDenominator = math.Log10(101)

// NormalizeEVS log-compresses the unbounded velocity ratio into [0,1].
func NormalizeEVS(ratio float64) float64 {
	return math.Log10(ratio+1) / evsLogDenominator
}

// Composite computes the weighted fusion of the four normalized signals.
type Composite struct {
	sink metrics.Sink
}

// NewComposite creates a scorer. sink may be nil.
func NewComposite(sink metrics.Sink) *Composite {
	if sink == nil {
		sink = metrics.Nop{}
	}
	return &Composite{sink: sink}
}

// Score returns the composite score in [0,1]. Each input is independently
// sanitized: non-finite values are replaced by fixed fallbacks, bounded
// scores are clamped into [0,1], and the EVS ratio is log-compressed. The
// weighted sum plus the two interaction terms is clamped defensively.
func (c *Composite) Score(sss, ars, evs, trs float64, w weights.SignalWeights) float64 {
	sss = c.sanitizeUnit(sss, "sss")
	ars = c.sanitizeUnit(ars, "ars")
	trs = c.sanitizeUnit(trs, "trs")
	evsNormalized := c.sanitizeEVS(evs)

	raw := w.SSS*sss + w.ARS*ars + w.EVS*evsNormalized + w.TRS*trs +
		sss*ars*w.SSSARSInteraction +
		evsNormalized*trs*w.EVSTRSInteraction

	if !isFinite(raw) {
		c.sink.Inc("nan_infinity_detected_count", "signal", "composite")
		return fallbackScore
	}
	if raw < 0 || raw > 1 {
		c.sink.Inc("score.out_of_range", "signal", "composite")
		c.sink.Inc("score.clamped", "signal", "composite")
		return clamp01(raw)
	}
	return raw
}

// sanitizeUnit enforces a finite value in [0,1] for SSS/ARS/TRS.
func (c *Composite) sanitizeUnit(v float64, name string) float64 {
	if !isFinite(v) {
		c.sink.Inc("nan_infinity_detected_count", "signal", name)
		return fallbackScore
	}
	if v < 0 || v > 1 {
		c.sink.Inc("score.clamped", "signal", name)
		return clamp01(v)
	}
	return v
}

// sanitizeEVS validates the raw ratio and returns its normalized value.
// The ratio is unbounded above but never negative.
func (c *Composite) sanitizeEVS(ratio float64) float64 {
	if !isFinite(ratio) {
		c.sink.Inc("nan_infinity_detected_count", "signal", "evs")
		ratio = fallbackEVSRatio
	}
	if ratio < 0 {
		c.sink.Inc("score.clamped", "signal", "evs")
		ratio = 0
	}
	return NormalizeEVS(ratio)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
