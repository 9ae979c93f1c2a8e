package providers

import (
	"context"
	"errors"
	"time"

	"github.com/adalundhe/fuse/core/signals"
)

type contextKey struct{}

// ErrNoValues is returned when a contextual provider is asked for signals
// but the request context carries none. The gateway converts it to the
// signal's fallback like any other provider failure.
var ErrNoValues = errors.New("no signal values on context")

// WithValues attaches pre-computed signal values to a request context for
// the Contextual provider set to serve.
func WithValues(ctx context.Context, set signals.Set) context.Context {
	return context.WithValue(ctx, contextKey{}, set)
}

func valuesFrom(ctx context.Context) (signals.Set, error) {
	if set, ok := ctx.Value(contextKey{}).(signals.Set); ok {
		return set, nil
	}
	return signals.Set{}, ErrNoValues
}

// contextual serves whatever signal values the request context carries.
// It lets a long-lived engine (breakers, weight cache, latency history)
// replay decisions from pre-computed signals.
type contextual struct{}

// Contextual returns the context-backed provider set.
func Contextual() signals.ProviderSet {
	c := contextual{}
	return signals.ProviderSet{
		Linguistic: c,
		Author:     c,
		Velocity:   c,
		Semantic:   c,
		Safety:     c,
		Tier:       c,
		Competitor: c,
		Temporal:   c,
	}
}

func (contextual) Linguistic(ctx context.Context, _ string) (signals.Linguistic, error) {
	set, err := valuesFrom(ctx)
	return set.Linguistic, err
}

func (contextual) Author(ctx context.Context, _ signals.Author) (signals.AuthorContext, error) {
	set, err := valuesFrom(ctx)
	return set.Author, err
}

func (contextual) Velocity(ctx context.Context, _ signals.Item, _ signals.Author) (signals.Velocity, error) {
	set, err := valuesFrom(ctx)
	return set.Velocity, err
}

func (contextual) Semantic(ctx context.Context, _ string) (signals.SemanticTopic, error) {
	set, err := valuesFrom(ctx)
	return set.Semantic, err
}

func (contextual) Safety(ctx context.Context, _ string, _ signals.Author, _ string) (signals.Safety, error) {
	set, err := valuesFrom(ctx)
	return set.Safety, err
}

func (contextual) Tier(ctx context.Context, _ signals.Author) (signals.Tier, error) {
	set, err := valuesFrom(ctx)
	return set.Tier, err
}

func (contextual) Competitor(ctx context.Context, _ string) (signals.Competitor, error) {
	set, err := valuesFrom(ctx)
	return set.Competitor, err
}

func (contextual) Temporal(ctx context.Context, _ time.Time) (signals.Temporal, error) {
	set, err := valuesFrom(ctx)
	return set.Temporal, err
}
