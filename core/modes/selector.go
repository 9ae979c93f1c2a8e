// Package modes implements the gated decision state machine that turns the
// fused signals into an operational mode plus a calibrated probability
// vector over all four modes.
package modes

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/adalundhe/fuse/core/config"
	"github.com/adalundhe/fuse/core/scoring"
	"github.com/adalundhe/fuse/core/signals"
)

// Mode is the discrete operational outcome of a decision.
type Mode string

const (
	Helpful    Mode = "HELPFUL"
	Engagement Mode = "ENGAGEMENT"
	Hybrid     Mode = "HYBRID"
	Disengaged Mode = "DISENGAGED"
)

// modeOrder fixes iteration order for the logit vector.
var modeOrder = [4]Mode{Helpful, Engagement, Hybrid, Disengaged}

// All returns every mode in canonical order.
func All() []Mode {
	return modeOrder[:]
}

// Gate reasons recorded on the selection.
const (
	GateSafety     = "safety_disengage"
	GateCompetitor = "competitor"
	GateTopicality = "trs_gate"
	GatePowerUser  = "power_user"
	GateCascade    = "threshold_cascade"
)

// Power-user routing cuts. These are part of the decision logic itself, not
// tunable thresholds.
const (
	powerUserSSSCut   = 0.7
	powerUserViralCut = 3.0
)

// minSelectedProbability guards a gated choice against receiving near-zero
// softmax mass.
const minSelectedProbability = 1e-6

// logitModel is the fixed linear model producing one mode's logit from the
// normalized signals.
type logitModel struct {
	intercept float64
	sss       float64
	ars       float64
	evs       float64
	trs       float64
}

// Static per-mode coefficients. Calibrated offline; not learned at runtime.
var logitModels = map[Mode]logitModel{
	Helpful:    {intercept: -2.0, sss: 4.0, ars: 1.5, evs: 0.5, trs: 1.0},
	Engagement: {intercept: -1.0, sss: 1.0, ars: 2.5, evs: 1.5, trs: 0.5},
	Hybrid:     {intercept: -1.5, sss: 2.0, ars: 1.0, evs: 2.5, trs: 0.8},
	Disengaged: {intercept: 0.5, sss: -3.0, ars: -1.0, evs: -0.5, trs: -2.0},
}

// Inputs are the signals the state machine evaluates. EVSRatio is the raw
// (unbounded) velocity ratio.
type Inputs struct {
	SSS      float64
	ARS      float64
	EVSRatio float64
	TRS      float64

	Safety     signals.Safety
	Competitor signals.Competitor
	Tier       signals.Tier
}

// Selection is the state machine's output: the selected mode and the full
// probability vector. Terminal marks the hard one-hot gates (safety and
// topicality disengagement).
type Selection struct {
	Mode          Mode             `json:"mode"`
	Probabilities map[Mode]float64 `json:"probabilities"`
	Confidence    float64          `json:"confidence"`
	GateReason    string           `json:"gate_reason"`
	Terminal      bool             `json:"terminal"`
}

// Selector evaluates the gates in strict priority order. It is a pure
// function of its inputs and thresholds.
type Selector struct {
	thresholds config.Thresholds
}

// NewSelector creates a selector over the loaded thresholds.
func NewSelector(t config.Thresholds) *Selector {
	return &Selector{thresholds: t}
}

// Select runs the gate cascade. Gates are evaluated first-match-wins; only
// the safety and topicality gates are terminal one-hot outcomes, every
// other path routes through the probabilistic vector.
func (s *Selector) Select(in Inputs) Selection {
	sss := sanitize(in.SSS, 0.5)
	ars := sanitize(in.ARS, 0.5)
	trs := sanitize(in.TRS, 0.5)
	evsRatio := sanitize(in.EVSRatio, 1.0)
	if evsRatio < 0 {
		evsRatio = 0
	}

	if in.Safety.ShouldDisengage {
		return oneHot(Disengaged, GateSafety)
	}

	if in.Competitor.Detected {
		mode := Hybrid
		if in.Competitor.OpportunityScore > s.thresholds.CompetitorOpportunity {
			mode = Helpful
		}
		return s.probabilistic(mode, GateCompetitor, sss, ars, evsRatio, trs)
	}

	if trs < s.thresholds.TRSGate {
		return oneHot(Disengaged, GateTopicality)
	}

	if in.Tier.IsPowerUser {
		mode := Engagement
		switch {
		case sss >= powerUserSSSCut:
			mode = Helpful
		case evsRatio > powerUserViralCut:
			mode = Hybrid
		}
		return s.probabilistic(mode, GatePowerUser, sss, ars, evsRatio, trs)
	}

	mode := s.cascade(sss, ars, evsRatio)
	return s.probabilistic(mode, GateCascade, sss, ars, evsRatio, trs)
}

// cascade applies the SSS/EVS/ARS threshold ladder for ordinary authors.
func (s *Selector) cascade(sss, ars, evsRatio float64) Mode {
	t := s.thresholds
	switch {
	case sss >= t.SSSHelpful:
		return Helpful
	case evsRatio >= t.EVSViralHigh:
		return Hybrid
	case sss >= t.SSSModerate && evsRatio >= t.EVSViralModerate:
		return Hybrid
	case ars >= t.ARSStrong:
		return Engagement
	case sss >= t.SSSModerate:
		return Engagement
	default:
		return Disengaged
	}
}

// probabilistic computes the softmax vector over the four mode logits, then
// floors the gated mode's probability and renormalizes.
func (s *Selector) probabilistic(selected Mode, reason string, sss, ars, evsRatio, trs float64) Selection {
	evsNormalized := scoring.NormalizeEVS(evsRatio)

	logits := make([]float64, len(modeOrder))
	for i, m := range modeOrder {
		c := logitModels[m]
		logits[i] = c.intercept + c.sss*sss + c.ars*ars + c.evs*evsNormalized + c.trs*trs
	}

	denom := floats.LogSumExp(logits)
	if math.IsInf(denom, -1) || math.IsNaN(denom) {
		// All logits -Inf: no softmax mass anywhere.
		return oneHot(Disengaged, reason)
	}

	probs := make([]float64, len(modeOrder))
	selectedIdx := 0
	for i, m := range modeOrder {
		probs[i] = math.Exp(logits[i] - denom)
		if m == selected {
			selectedIdx = i
		}
	}

	if probs[selectedIdx] < minSelectedProbability {
		probs[selectedIdx] = minSelectedProbability
		floats.Scale(1/floats.Sum(probs), probs)
	}

	out := Selection{
		Mode:          selected,
		Probabilities: make(map[Mode]float64, len(modeOrder)),
		GateReason:    reason,
	}
	for i, m := range modeOrder {
		out.Probabilities[m] = probs[i]
	}
	out.Confidence = out.Probabilities[selected]
	return out
}

func oneHot(selected Mode, reason string) Selection {
	out := Selection{
		Mode:          selected,
		Probabilities: make(map[Mode]float64, len(modeOrder)),
		Confidence:    1,
		GateReason:    reason,
		Terminal:      true,
	}
	for _, m := range modeOrder {
		out.Probabilities[m] = 0
	}
	out.Probabilities[selected] = 1
	return out
}

func sanitize(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
