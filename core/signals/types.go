// Package signals defines the per-decision signal values consumed by the
// fusion engine, the provider contracts that produce them, and the gateway
// that fetches all of them concurrently behind circuit breakers.
package signals

import (
	"context"
	"time"
)

// Kind identifies one of the eight signal sources. Kinds index the gateway's
// breaker arena, so the zero-based ordering is load-bearing.
type Kind int

const (
	KindLinguistic Kind = iota
	KindAuthor
	KindVelocity
	KindSemantic
	KindSafety
	KindTier
	KindCompetitor
	KindTemporal

	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindLinguistic:
		return "linguistic"
	case KindAuthor:
		return "author"
	case KindVelocity:
		return "velocity"
	case KindSemantic:
		return "semantic"
	case KindSafety:
		return "safety"
	case KindTier:
		return "tier"
	case KindCompetitor:
		return "competitor"
	case KindTemporal:
		return "temporal"
	default:
		return "unknown"
	}
}

// Kinds returns every signal kind in fetch order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// Item is the content item a decision is made about.
type Item struct {
	ID        string    `json:"id"`
	Platform  string    `json:"platform"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TimeOfDayBucket buckets the item's creation hour into the segment key
// space used by the weight resolver ("night", "morning", "afternoon",
// "evening").
func (i Item) TimeOfDayBucket() string {
	switch h := i.CreatedAt.Hour(); {
	case h < 6:
		return "night"
	case h < 12:
		return "morning"
	case h < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

// Author identifies the item's author on its platform.
type Author struct {
	Platform   string `json:"platform"`
	PlatformID string `json:"platform_id"`
	Handle     string `json:"handle"`
}

// Linguistic is the semantic-similarity score (SSS) for the item's content.
type Linguistic struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Category   string  `json:"category"`
}

// AuthorContext is the author-relationship score (ARS).
type AuthorContext struct {
	Score            float64  `json:"score"`
	Confidence       float64  `json:"confidence"`
	Archetypes       []string `json:"archetypes,omitempty"`
	InteractionCount int      `json:"interaction_count"`
}

// Velocity is the engagement-velocity signal (EVS). Ratio is an unbounded
// multiple of the author's baseline engagement rate.
type Velocity struct {
	Ratio        float64 `json:"ratio"`
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
	BaselineRate float64 `json:"baseline_rate"`
	CurrentRate  float64 `json:"current_rate"`
}

// SemanticTopic is the topical-relevance score (TRS).
type SemanticTopic struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Context    string  `json:"context"`
}

// Safety is the safety classification for the item and author.
type Safety struct {
	ShouldDisengage     bool     `json:"should_disengage"`
	Flags               []string `json:"flags,omitempty"`
	Severity            string   `json:"severity"`
	DistressProbability float64  `json:"distress_probability"`
}

// Tier classifies the author's account tier.
type Tier struct {
	IsPowerUser           bool     `json:"is_power_user"`
	UserTier              string   `json:"user_tier"`
	EngagementRate        float64  `json:"engagement_rate"`
	ResponseTargetMinutes int      `json:"response_target_minutes"`
	SuggestedArchetypes   []string `json:"suggested_archetypes,omitempty"`
}

// Competitor reports whether the item mentions a competitor. Detected may be
// forced to false in place by the engine's rate-limit check before the
// decision is finalized; every other field is immutable after creation.
type Competitor struct {
	Detected         bool    `json:"detected"`
	Name             string  `json:"name,omitempty"`
	OpportunityScore float64 `json:"opportunity_score"`
	Sentiment        float64 `json:"sentiment"`
	Satisfaction     float64 `json:"satisfaction"`
}

// Temporal carries time-of-day context for threshold adjustment.
type Temporal struct {
	Context             string  `json:"context"`
	ThresholdAdjustment float64 `json:"threshold_adjustment"`
}

// Set is the full snapshot of the eight signals for one decision. It is
// owned exclusively by the decision call that created it.
type Set struct {
	Linguistic Linguistic    `json:"linguistic"`
	Author     AuthorContext `json:"author"`
	Velocity   Velocity      `json:"velocity"`
	Semantic   SemanticTopic `json:"semantic"`
	Safety     Safety        `json:"safety"`
	Tier       Tier          `json:"tier"`
	Competitor Competitor    `json:"competitor"`
	Temporal   Temporal      `json:"temporal"`
}

// Provider contracts. Each signal source is an external collaborator
// consumed only through its fetch method; implementations own their own
// retries and model calls.

type LinguisticProvider interface {
	Linguistic(ctx context.Context, content string) (Linguistic, error)
}

type AuthorProvider interface {
	Author(ctx context.Context, author Author) (AuthorContext, error)
}

type VelocityProvider interface {
	Velocity(ctx context.Context, item Item, author Author) (Velocity, error)
}

type SemanticProvider interface {
	Semantic(ctx context.Context, content string) (SemanticTopic, error)
}

type SafetyProvider interface {
	Safety(ctx context.Context, content string, author Author, itemID string) (Safety, error)
}

type TierProvider interface {
	Tier(ctx context.Context, author Author) (Tier, error)
}

type CompetitorProvider interface {
	Competitor(ctx context.Context, content string) (Competitor, error)
}

type TemporalProvider interface {
	Temporal(ctx context.Context, at time.Time) (Temporal, error)
}

// ProviderSet bundles the eight providers the gateway fans out to.
type ProviderSet struct {
	Linguistic LinguisticProvider
	Author     AuthorProvider
	Velocity   VelocityProvider
	Semantic   SemanticProvider
	Safety     SafetyProvider
	Tier       TierProvider
	Competitor CompetitorProvider
	Temporal   TemporalProvider
}
