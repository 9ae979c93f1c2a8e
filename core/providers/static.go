// Package providers contains provider-set adapters. The real classifiers
// live in external services; Static lets the CLI and HTTP surfaces run the
// engine against pre-computed signal values.
package providers

import (
	"context"
	"time"

	"github.com/adalundhe/fuse/core/signals"
)

// static serves a fixed signal set for every fetch.
type static struct {
	set signals.Set
}

// Static wraps pre-computed signal values as a full provider set.
func Static(set signals.Set) signals.ProviderSet {
	s := &static{set: set}
	return signals.ProviderSet{
		Linguistic: s,
		Author:     s,
		Velocity:   s,
		Semantic:   s,
		Safety:     s,
		Tier:       s,
		Competitor: s,
		Temporal:   s,
	}
}

func (s *static) Linguistic(context.Context, string) (signals.Linguistic, error) {
	return s.set.Linguistic, nil
}

func (s *static) Author(context.Context, signals.Author) (signals.AuthorContext, error) {
	return s.set.Author, nil
}

func (s *static) Velocity(context.Context, signals.Item, signals.Author) (signals.Velocity, error) {
	return s.set.Velocity, nil
}

func (s *static) Semantic(context.Context, string) (signals.SemanticTopic, error) {
	return s.set.Semantic, nil
}

func (s *static) Safety(context.Context, string, signals.Author, string) (signals.Safety, error) {
	return s.set.Safety, nil
}

func (s *static) Tier(context.Context, signals.Author) (signals.Tier, error) {
	return s.set.Tier, nil
}

func (s *static) Competitor(context.Context, string) (signals.Competitor, error) {
	return s.set.Competitor, nil
}

func (s *static) Temporal(context.Context, time.Time) (signals.Temporal, error) {
	return s.set.Temporal, nil
}
