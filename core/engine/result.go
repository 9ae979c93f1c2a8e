package engine

import (
	"encoding/json"
	"time"

	"github.com/adalundhe/fuse/core/modes"
	"github.com/adalundhe/fuse/core/persistence"
	"github.com/adalundhe/fuse/core/scoring"
	"github.com/adalundhe/fuse/core/signals"
	"github.com/adalundhe/fuse/core/weights"
)

// LogicVersion tags every persisted decision with the decision-logic
// revision that produced it.
const LogicVersion = "fusion/v2"

// DecisionResult is the aggregate output of one decision call. It is
// created once per call and never mutated after Decide returns.
type DecisionResult struct {
	DecisionID string      `json:"decision_id"`
	PostID     string      `json:"post_id"`
	Signals    signals.Set `json:"signals"`

	Weights        weights.SignalWeights `json:"weights"`
	CompositeScore float64               `json:"composite_score"`
	Interval       scoring.Interval      `json:"credible_interval"`

	Mode           modes.Mode             `json:"mode"`
	Probabilities  map[modes.Mode]float64 `json:"probabilities"`
	ModeConfidence float64                `json:"mode_confidence"`
	GateReason     string                 `json:"gate_reason"`

	NeedsReview  bool     `json:"needs_review"`
	ReviewReason string   `json:"review_reason,omitempty"`
	SafetyFlags  []string `json:"safety_flags,omitempty"`

	ArchetypeID    int64  `json:"archetype_id"`
	ArchetypeName  string `json:"archetype_name,omitempty"`
	CompetitorName string `json:"competitor_name,omitempty"`

	UserTier              string `json:"user_tier"`
	IsPowerUser           bool   `json:"is_power_user"`
	ResponseTargetMinutes int    `json:"response_target_minutes"`

	SegmentKey   string    `json:"segment_key"`
	LogicVersion string    `json:"logic_version"`
	CreatedAt    time.Time `json:"created_at"`

	// Persisted reports whether the best-effort save succeeded.
	Persisted bool `json:"persisted"`
}

// record flattens the result into the persistence payload.
func (r *DecisionResult) record() *persistence.Record {
	probs, _ := json.Marshal(r.Probabilities)
	snapshot, _ := json.Marshal(r.Signals)

	var flags string
	if len(r.SafetyFlags) > 0 {
		b, _ := json.Marshal(r.SafetyFlags)
		flags = string(b)
	}

	return &persistence.Record{
		DecisionID:            r.DecisionID,
		PostID:                r.PostID,
		SSS:                   r.Signals.Linguistic.Score,
		ARS:                   r.Signals.Author.Score,
		EVSRatio:              r.Signals.Velocity.Ratio,
		TRS:                   r.Signals.Semantic.Score,
		CompositeScore:        r.CompositeScore,
		Mode:                  string(r.Mode),
		ArchetypeID:           r.ArchetypeID,
		IntervalLower:         r.Interval.Lower,
		IntervalUpper:         r.Interval.Upper,
		ModeConfidence:        r.ModeConfidence,
		ProbabilitiesJSON:     string(probs),
		NeedsReview:           r.NeedsReview,
		ReviewReason:          r.ReviewReason,
		SafetyFlagsJSON:       flags,
		SignalsJSON:           string(snapshot),
		CompetitorName:        r.CompetitorName,
		UserTier:              r.UserTier,
		IsPowerUser:           r.IsPowerUser,
		ResponseTargetMinutes: r.ResponseTargetMinutes,
		SegmentKey:            r.SegmentKey,
		LogicVersion:          r.LogicVersion,
		CreatedAt:             r.CreatedAt,
	}
}
