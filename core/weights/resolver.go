package weights

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/adalundhe/fuse/core/metrics"
)

const (
	defaultCacheTTL    = 600 * time.Second
	cacheNumCounters   = 1e5
	cacheMaxCost       = 1e6
	cacheBufferItems   = 64
	weightSetCacheCost = 1
)

// Context keys a weight resolution. The combined segment is
// "<platform>_<timeOfDayBucket>"; the platform segment is the platform
// alone.
type Context struct {
	Platform        string
	TimeOfDayBucket string
}

// Key is the combined segment key for this context.
func (c Context) Key() string {
	return c.Platform + "_" + c.TimeOfDayBucket
}

// SegmentStore looks up the stored weight set for one segment. It is an
// external collaborator (the segment parameters are fitted offline); a
// missing segment is (zero, false, nil).
type SegmentStore interface {
	Segment(ctx context.Context, segmentType SegmentType, key string) (SignalWeights, bool, error)
}

// CacheStats reports resolver cache behavior for the health snapshot.
type CacheStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Sets   uint64 `json:"sets"`
}

// Resolver resolves validated weights for a decision context: TTL cache,
// then combined segment, then platform segment, then the global default.
// Safe for concurrent use; cache population is last-writer-wins, which is
// fine because entries are derivable and idempotent.
type Resolver struct {
	cache         *ristretto.Cache
	ttl           time.Duration
	store         SegmentStore
	global        SignalWeights
	minSampleSize float64
	sink          metrics.Sink
	logger        *slog.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
	sets   atomic.Uint64
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	Store         SegmentStore  // nil means global-default only
	TTL           time.Duration // default 600s
	MinSampleSize float64       // shrinkage anchor, must be positive
	Sink          metrics.Sink  // nil for none
	Logger        *slog.Logger  // nil for slog.Default()
}

// NewResolver creates a resolver with its TTL cache.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}
	if cfg.MinSampleSize <= 0 {
		cfg.MinSampleSize = 50
	}
	if cfg.Sink == nil {
		cfg.Sink = metrics.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheNumCounters,
		MaxCost:     cacheMaxCost,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		return nil, err
	}

	return &Resolver{
		cache:         cache,
		ttl:           cfg.TTL,
		store:         cfg.Store,
		global:        Default(),
		minSampleSize: cfg.MinSampleSize,
		sink:          cfg.Sink,
		logger:        cfg.Logger,
	}, nil
}

// Resolve returns a validated weight set for the context. It never fails:
// every degraded path lands on the global default, with Validated marking
// whether the result passed (or is) the clean default rather than a
// discarded candidate.
func (r *Resolver) Resolve(ctx context.Context, wc Context) SignalWeights {
	key := wc.Key()

	if cached, ok := r.cache.Get(key); ok {
		if w, ok := cached.(SignalWeights); ok && w.Validated {
			r.hits.Add(1)
			r.sink.Inc("weights.cache", "result", "hit")
			return w
		}
	}
	r.misses.Add(1)
	r.sink.Inc("weights.cache", "result", "miss")

	if w, found := r.segmentCandidate(ctx, SegmentCombined, key); found {
		return r.shrinkCandidate(w, key)
	}
	if w, found := r.segmentCandidate(ctx, SegmentPlatform, wc.Platform); found {
		return r.shrinkCandidate(w, key)
	}

	out := r.globalDefault(true)
	r.cacheSet(key, out)
	return out
}

// segmentCandidate looks up one segment; store errors read as not found.
func (r *Resolver) segmentCandidate(ctx context.Context, st SegmentType, key string) (SignalWeights, bool) {
	if r.store == nil {
		return SignalWeights{}, false
	}
	w, found, err := r.store.Segment(ctx, st, key)
	if err != nil {
		r.logger.Warn("segment lookup failed", "segment_type", string(st), "key", key, "error", err)
		return SignalWeights{}, false
	}
	if !found {
		return SignalWeights{}, false
	}
	w.SegmentType = st
	w.SegmentKey = key
	return w, true
}

// shrinkCandidate shrinks a found segment toward the global default. Any
// validation failure discards the candidate entirely in favor of the global
// default stamped Validated=false.
func (r *Resolver) shrinkCandidate(segment SignalWeights, cacheKey string) SignalWeights {
	shrunk, err := Shrink(segment, r.global, r.minSampleSize)
	if err != nil {
		reason := "unknown"
		if ve, ok := err.(*ValidationError); ok {
			reason = ve.Reason
		}
		r.sink.Inc("weights_validation_failure_count", "reason", reason)
		r.logger.Warn("segment weights rejected",
			"segment_type", string(segment.SegmentType),
			"segment_key", segment.SegmentKey,
			"reason", reason,
			"error", err)
		return r.globalDefault(false)
	}

	r.cacheSet(cacheKey, shrunk)
	return shrunk
}

func (r *Resolver) globalDefault(validated bool) SignalWeights {
	out := r.global
	out.Validated = validated
	out.ValidatedAt = time.Now().UTC()
	return out
}

func (r *Resolver) cacheSet(key string, w SignalWeights) {
	if r.cache.SetWithTTL(key, w, weightSetCacheCost, r.ttl) {
		r.sets.Add(1)
	}
}

// Wait flushes pending cache writes. Intended for tests.
func (r *Resolver) Wait() {
	r.cache.Wait()
}

// Stats returns resolver cache counters.
func (r *Resolver) Stats() CacheStats {
	return CacheStats{
		Hits:   r.hits.Load(),
		Misses: r.misses.Load(),
		Sets:   r.sets.Load(),
	}
}

// Close releases the cache.
func (r *Resolver) Close() {
	r.cache.Close()
}
