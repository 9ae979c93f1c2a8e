// Package engine implements the decision fusion engine: concurrent signal
// collection, weight resolution, composite scoring, mode selection,
// uncertainty estimation, and best-effort transactional persistence.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adalundhe/fuse/core/archetype"
	"github.com/adalundhe/fuse/core/config"
	"github.com/adalundhe/fuse/core/metrics"
	"github.com/adalundhe/fuse/core/modes"
	"github.com/adalundhe/fuse/core/persistence"
	"github.com/adalundhe/fuse/core/ratelimit"
	"github.com/adalundhe/fuse/core/scoring"
	"github.com/adalundhe/fuse/core/signals"
	"github.com/adalundhe/fuse/core/weights"
)

// Default archetype per mode, used when neither the tier nor the author
// signal suggests one.
var modeArchetypes = map[modes.Mode]string{
	modes.Helpful:    "helpful_expert",
	modes.Engagement: "community_voice",
	modes.Hybrid:     "balanced_guide",
	modes.Disengaged: "observer",
}

// Config wires the engine's collaborators. Thresholds must already be
// validated (config.Load fails hard otherwise). Repository, SegmentStore,
// Limiter, ArchetypeDirectory, Sink, and Logger are optional.
type Config struct {
	Providers          signals.ProviderSet
	Breaker            signals.BreakerConfig
	Thresholds         config.Thresholds
	SegmentStore       weights.SegmentStore
	Repository         persistence.Repository
	Limiter            ratelimit.Limiter
	ArchetypeDirectory archetype.Directory
	Sink               metrics.Sink
	Logger             *slog.Logger
}

// Engine owns the full decision pipeline. It is safe for concurrent use;
// the breaker arena and weight cache are the only cross-call state.
type Engine struct {
	gateway    *signals.Gateway
	resolver   *weights.Resolver
	composite  *scoring.Composite
	selector   *modes.Selector
	thresholds config.Thresholds
	repo       persistence.Repository
	limiter    ratelimit.Limiter
	archetypes *archetype.Resolver
	sink       metrics.Sink
	latency    *metrics.LatencyRecorder
	logger     *slog.Logger
}

// New constructs an engine from explicitly injected dependencies. There is
// no process-wide singleton; the long-lived breaker registry lives inside
// the returned instance.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("thresholds: %w", err)
	}
	if cfg.Sink == nil {
		cfg.Sink = metrics.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.Unlimited{}
	}

	resolver, err := weights.NewResolver(weights.ResolverConfig{
		Store:         cfg.SegmentStore,
		MinSampleSize: cfg.Thresholds.MinSampleSize,
		Sink:          cfg.Sink,
		Logger:        cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("weight resolver: %w", err)
	}

	archetypes, err := archetype.NewResolver(cfg.ArchetypeDirectory)
	if err != nil {
		resolver.Close()
		return nil, err
	}

	return &Engine{
		gateway:    signals.NewGateway(cfg.Providers, cfg.Breaker, cfg.Sink, cfg.Logger),
		resolver:   resolver,
		composite:  scoring.NewComposite(cfg.Sink),
		selector:   modes.NewSelector(cfg.Thresholds),
		thresholds: cfg.Thresholds,
		repo:       cfg.Repository,
		limiter:    cfg.Limiter,
		archetypes: archetypes,
		sink:       cfg.Sink,
		latency:    metrics.NewLatencyRecorder(0),
		logger:     cfg.Logger,
	}, nil
}

// Decide runs the full pipeline for one item. It never fails: signal and
// persistence problems degrade the result (toward DISENGAGED for critical
// signals) instead of propagating.
func (e *Engine) Decide(ctx context.Context, item signals.Item, author signals.Author) *DecisionResult {
	start := time.Now()
	defer func() {
		e.latency.Record(time.Since(start))
	}()

	set := e.gateway.Collect(ctx, item, author)

	// Competitor engagement is budgeted per competitor; over budget, the
	// detection is forced off in place before mode selection.
	if set.Competitor.Detected {
		if !e.limiter.CheckAndIncrement("competitor:" + set.Competitor.Name) {
			set.Competitor.Detected = false
			e.sink.Inc("competitor.rate_limited")
		}
	}

	w := e.resolver.Resolve(ctx, weights.Context{
		Platform:        item.Platform,
		TimeOfDayBucket: item.TimeOfDayBucket(),
	})

	composite := e.composite.Score(
		set.Linguistic.Score,
		set.Author.Score,
		set.Velocity.Ratio,
		set.Semantic.Score,
		w,
	)

	selection := e.selector.Select(modes.Inputs{
		SSS:        set.Linguistic.Score,
		ARS:        set.Author.Score,
		EVSRatio:   set.Velocity.Ratio,
		TRS:        set.Semantic.Score,
		Safety:     set.Safety,
		Competitor: set.Competitor,
		Tier:       set.Tier,
	})

	interval := scoring.EstimateInterval(set, w, e.thresholds.MinSampleSize, composite)
	needsReview, reviewReason := reviewInfo(set, composite, e.thresholds)

	archetypeName := e.archetypeName(set, selection.Mode)
	competitorName := ""
	if set.Competitor.Detected {
		competitorName = set.Competitor.Name
	}

	result := &DecisionResult{
		DecisionID:            uuid.NewString(),
		PostID:                item.ID,
		Signals:               set,
		Weights:               w,
		CompositeScore:        composite,
		Interval:              interval,
		Mode:                  selection.Mode,
		Probabilities:         selection.Probabilities,
		ModeConfidence:        selection.Confidence,
		GateReason:            selection.GateReason,
		NeedsReview:           needsReview,
		ReviewReason:          reviewReason,
		SafetyFlags:           set.Safety.Flags,
		ArchetypeName:         archetypeName,
		ArchetypeID:           e.archetypes.Resolve(ctx, archetypeName),
		CompetitorName:        competitorName,
		UserTier:              set.Tier.UserTier,
		IsPowerUser:           set.Tier.IsPowerUser,
		ResponseTargetMinutes: set.Tier.ResponseTargetMinutes,
		SegmentKey:            w.SegmentKey,
		LogicVersion:          LogicVersion,
		CreatedAt:             time.Now().UTC(),
	}

	result.Persisted = e.persist(ctx, result)
	return result
}

// archetypeName picks the archetype to respond with: tier suggestion, then
// author archetype, then the mode default.
func (e *Engine) archetypeName(set signals.Set, mode modes.Mode) string {
	if len(set.Tier.SuggestedArchetypes) > 0 {
		return set.Tier.SuggestedArchetypes[0]
	}
	if len(set.Author.Archetypes) > 0 {
		return set.Author.Archetypes[0]
	}
	return modeArchetypes[mode]
}

// persist saves the decision best-effort. Failures are logged and counted,
// never surfaced; the item simply stays unprocessed.
func (e *Engine) persist(ctx context.Context, result *DecisionResult) bool {
	if e.repo == nil {
		return false
	}
	if err := e.repo.SaveDecision(ctx, result.record()); err != nil {
		e.sink.Inc("decision.persist_failure")
		e.logger.Error("decision persist failed",
			"post_id", result.PostID,
			"decision_id", result.DecisionID,
			"error", err)
		return false
	}
	return true
}

// HealthSnapshot is the engine's observability surface: weight cache
// behavior, per-signal breaker states, and the latency histogram.
type HealthSnapshot struct {
	WeightCache weights.CacheStats              `json:"weight_cache"`
	Breakers    map[string]signals.BreakerStats `json:"breakers"`
	Latency     metrics.LatencySnapshot         `json:"latency"`
}

// Health returns a point-in-time health snapshot.
func (e *Engine) Health() HealthSnapshot {
	return HealthSnapshot{
		WeightCache: e.resolver.Stats(),
		Breakers:    e.gateway.BreakerStats(),
		Latency:     e.latency.Snapshot(),
	}
}

// Latency exposes the recorder for the metrics endpoint.
func (e *Engine) Latency() *metrics.LatencyRecorder {
	return e.latency
}

// Close releases the engine's caches.
func (e *Engine) Close() {
	e.resolver.Close()
}
