package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/fuse/core/signals"
)

func sampleSet() signals.Set {
	return signals.Set{
		Linguistic: signals.Linguistic{Score: 0.9, Confidence: 0.8, Category: "question"},
		Author:     signals.AuthorContext{Score: 0.7, Confidence: 0.6},
		Velocity:   signals.Velocity{Ratio: 2.5, Confidence: 0.9},
		Semantic:   signals.SemanticTopic{Score: 0.85, Confidence: 0.7},
		Safety:     signals.Safety{ShouldDisengage: false},
		Tier:       signals.Tier{UserTier: "power", IsPowerUser: true},
		Competitor: signals.Competitor{Detected: true, Name: "acme"},
		Temporal:   signals.Temporal{Context: "morning"},
	}
}

func TestStaticServesFixedValues(t *testing.T) {
	set := sampleSet()
	p := Static(set)
	ctx := context.Background()

	ling, err := p.Linguistic.Linguistic(ctx, "anything")
	require.NoError(t, err)
	assert.Equal(t, set.Linguistic, ling)

	tier, err := p.Tier.Tier(ctx, signals.Author{})
	require.NoError(t, err)
	assert.Equal(t, set.Tier, tier)

	comp, err := p.Competitor.Competitor(ctx, "anything")
	require.NoError(t, err)
	assert.Equal(t, set.Competitor, comp)
}

func TestContextualRoundTrip(t *testing.T) {
	set := sampleSet()
	p := Contextual()
	ctx := WithValues(context.Background(), set)

	ling, err := p.Linguistic.Linguistic(ctx, "ignored")
	require.NoError(t, err)
	assert.Equal(t, set.Linguistic, ling)

	vel, err := p.Velocity.Velocity(ctx, signals.Item{}, signals.Author{})
	require.NoError(t, err)
	assert.Equal(t, set.Velocity, vel)

	temp, err := p.Temporal.Temporal(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, set.Temporal, temp)
}

func TestContextualWithoutValuesErrors(t *testing.T) {
	p := Contextual()

	_, err := p.Safety.Safety(context.Background(), "", signals.Author{}, "")
	assert.ErrorIs(t, err, ErrNoValues)
}
