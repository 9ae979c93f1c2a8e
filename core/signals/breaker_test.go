package signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerStartsClosed(t *testing.T) {
	b := NewBreaker(DefaultBreakerConfig(), nil)

	assert.Equal(t, BreakerClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Hour}, nil)

	for i := 0; i < 2; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, BreakerClosed, b.State())

	b.RecordFailure()
	assert.Equal(t, BreakerOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Hour}, nil)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()

	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerHalfOpenProbeAfterResetTimeout(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond}, nil)

	b.RecordFailure()
	require.Equal(t, BreakerOpen, b.State())
	require.False(t, b.Allow())

	time.Sleep(20 * time.Millisecond)

	// First call after the timeout is the probe; concurrent calls are
	// rejected until the probe settles.
	assert.True(t, b.Allow())
	assert.Equal(t, BreakerHalfOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerProbeSuccessCloses(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Millisecond}, nil)

	b.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	require.True(t, b.Allow())

	b.RecordSuccess()
	assert.Equal(t, BreakerClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerProbeFailureReopens(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Millisecond}, nil)

	b.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	require.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, BreakerOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerEmitsTransitionEvents(t *testing.T) {
	var events []string
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Millisecond}, func(event string) {
		events = append(events, event)
	})

	b.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	require.True(t, b.Allow())
	b.RecordSuccess()

	assert.Equal(t, []string{BreakerEventOpen, BreakerEventHalfOpen, BreakerEventClose}, events)
}

func TestBreakerRejectEventWhileOpen(t *testing.T) {
	var events []string
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour}, func(event string) {
		events = append(events, event)
	})

	b.RecordFailure()
	b.Allow()

	assert.Contains(t, events, BreakerEventReject)
}

func TestBreakerStatsSnapshot(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 5, ResetTimeout: time.Hour}, nil)

	b.RecordFailure()
	b.RecordFailure()

	stats := b.Stats()
	assert.Equal(t, "closed", stats.State)
	assert.Equal(t, 2, stats.Failures)
	assert.False(t, stats.LastFailure.IsZero())
}
