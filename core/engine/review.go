package engine

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/adalundhe/fuse/core/config"
	"github.com/adalundhe/fuse/core/signals"
)

// Review reasons, in precedence order. The precedence
// (CONFLICTING_SIGNALS > LOW_CONFIDENCE > NEAR_THRESHOLD) is a policy
// choice inherited from the decision logic, not a derived invariant.
const (
	ReviewConflictingSignals = "CONFLICTING_SIGNALS"
	ReviewLowConfidence      = "LOW_CONFIDENCE"
	ReviewNearThreshold      = "NEAR_THRESHOLD"
)

// conflictSpread is the SSS/ARS/TRS disagreement beyond which the decision
// is flagged for review.
const conflictSpread = 0.6

// reviewInfo decides whether a human should look at this decision, and why.
func reviewInfo(set signals.Set, composite float64, t config.Thresholds) (bool, string) {
	if signalSpread(set) > conflictSpread {
		return true, ReviewConflictingSignals
	}
	if meanConfidence(set) < t.ReviewLowConfidence {
		return true, ReviewLowConfidence
	}
	if nearThreshold(composite, t) {
		return true, ReviewNearThreshold
	}
	return false, ""
}

// signalSpread is the gap between the highest and lowest of the three
// unit-range scores.
func signalSpread(set signals.Set) float64 {
	scores := []float64{set.Linguistic.Score, set.Author.Score, set.Semantic.Score}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	return hi - lo
}

func meanConfidence(set signals.Set) float64 {
	return stat.Mean([]float64{
		set.Linguistic.Confidence,
		set.Author.Confidence,
		set.Velocity.Confidence,
		set.Semantic.Confidence,
	}, nil)
}

// nearThreshold reports whether the composite sits within the review margin
// of either SSS decision cut.
func nearThreshold(composite float64, t config.Thresholds) bool {
	for _, cut := range []float64{t.SSSHelpful, t.SSSModerate} {
		if math.Abs(composite-cut) <= t.ReviewMargin {
			return true
		}
	}
	return false
}
