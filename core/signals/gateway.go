package signals

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adalundhe/fuse/core/metrics"
)

// Gateway fetches the eight signals for a decision, each call isolated
// behind its own circuit breaker. A provider failure or open circuit is
// converted to that signal's typed fallback; Collect never fails and never
// short-circuits on one bad source.
type Gateway struct {
	providers ProviderSet
	breakers  [kindCount]*Breaker
	sink      metrics.Sink
	timeout   time.Duration
	logger    *slog.Logger
}

// NewGateway creates a gateway with one breaker per signal kind. sink and
// logger may be nil.
func NewGateway(providers ProviderSet, cfg BreakerConfig, sink metrics.Sink, logger *slog.Logger) *Gateway {
	if sink == nil {
		sink = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{
		providers: providers,
		sink:      sink,
		timeout:   cfg.withDefaults().CallTimeout,
		logger:    logger,
	}
	for _, k := range Kinds() {
		name := k.String()
		g.breakers[k] = NewBreaker(cfg, func(event string) {
			g.sink.Inc("breaker.state", "signal", name, "event", event)
		})
	}
	return g
}

// BreakerStats returns a per-signal snapshot of breaker state for health
// reporting.
func (g *Gateway) BreakerStats() map[string]BreakerStats {
	out := make(map[string]BreakerStats, int(kindCount))
	for _, k := range Kinds() {
		out[k.String()] = g.breakers[k].Stats()
	}
	return out
}

// Collect fans out all eight fetches concurrently and waits for every one
// to settle. Missing providers behave like failed ones: the fallback is
// used and the failure counted.
func (g *Gateway) Collect(ctx context.Context, item Item, author Author) Set {
	var set Set
	var wg sync.WaitGroup
	wg.Add(int(kindCount))

	go func() {
		defer wg.Done()
		set.Linguistic = fetch(ctx, g, KindLinguistic, FallbackLinguistic(), func(ctx context.Context) (Linguistic, error) {
			if g.providers.Linguistic == nil {
				return Linguistic{}, errNoProvider
			}
			return g.providers.Linguistic.Linguistic(ctx, item.Content)
		})
	}()
	go func() {
		defer wg.Done()
		set.Author = fetch(ctx, g, KindAuthor, FallbackAuthor(), func(ctx context.Context) (AuthorContext, error) {
			if g.providers.Author == nil {
				return AuthorContext{}, errNoProvider
			}
			return g.providers.Author.Author(ctx, author)
		})
	}()
	go func() {
		defer wg.Done()
		set.Velocity = fetch(ctx, g, KindVelocity, FallbackVelocity(), func(ctx context.Context) (Velocity, error) {
			if g.providers.Velocity == nil {
				return Velocity{}, errNoProvider
			}
			return g.providers.Velocity.Velocity(ctx, item, author)
		})
	}()
	go func() {
		defer wg.Done()
		set.Semantic = fetch(ctx, g, KindSemantic, FallbackSemantic(), func(ctx context.Context) (SemanticTopic, error) {
			if g.providers.Semantic == nil {
				return SemanticTopic{}, errNoProvider
			}
			return g.providers.Semantic.Semantic(ctx, item.Content)
		})
	}()
	go func() {
		defer wg.Done()
		set.Safety = fetch(ctx, g, KindSafety, FallbackSafety(), func(ctx context.Context) (Safety, error) {
			if g.providers.Safety == nil {
				return Safety{}, errNoProvider
			}
			return g.providers.Safety.Safety(ctx, item.Content, author, item.ID)
		})
	}()
	go func() {
		defer wg.Done()
		set.Tier = fetch(ctx, g, KindTier, FallbackTier(), func(ctx context.Context) (Tier, error) {
			if g.providers.Tier == nil {
				return Tier{}, errNoProvider
			}
			return g.providers.Tier.Tier(ctx, author)
		})
	}()
	go func() {
		defer wg.Done()
		set.Competitor = fetch(ctx, g, KindCompetitor, FallbackCompetitor(), func(ctx context.Context) (Competitor, error) {
			if g.providers.Competitor == nil {
				return Competitor{}, errNoProvider
			}
			return g.providers.Competitor.Competitor(ctx, item.Content)
		})
	}()
	go func() {
		defer wg.Done()
		set.Temporal = fetch(ctx, g, KindTemporal, FallbackTemporal(), func(ctx context.Context) (Temporal, error) {
			if g.providers.Temporal == nil {
				return Temporal{}, errNoProvider
			}
			return g.providers.Temporal.Temporal(ctx, item.CreatedAt)
		})
	}()

	wg.Wait()
	return set
}

var errNoProvider = fmt.Errorf("no provider configured")

// fetch runs one provider call through its breaker. It recovers panics,
// enforces the per-call timeout, and substitutes the fallback on any
// failure path.
func fetch[T any](ctx context.Context, g *Gateway, kind Kind, fallback T, fn func(context.Context) (T, error)) T {
	br := g.breakers[kind]
	name := kind.String()

	if !br.Allow() {
		g.sink.Inc("signal.failure", "signal", name, "cause", "breaker_open")
		return fallback
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	value, err := safeCall(callCtx, fn)
	if err != nil {
		br.RecordFailure()
		cause := "error"
		if callCtx.Err() == context.DeadlineExceeded {
			cause = "timeout"
			g.sink.Inc("breaker.state", "signal", name, "event", BreakerEventTimeout)
		}
		g.sink.Inc("signal.failure", "signal", name, "cause", cause)
		g.logger.Warn("signal fetch failed", "signal", name, "error", err)
		return fallback
	}

	br.RecordSuccess()
	return value
}

// safeCall converts a provider panic into an error so one misbehaving
// dependency cannot take down the decision call.
func safeCall[T any](ctx context.Context, fn func(context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	return fn(ctx)
}
