package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	c := NewCounters()

	c.Inc("signal.failure", "signal", "safety")
	c.Inc("signal.failure", "signal", "safety")
	c.Inc("signal.failure", "signal", "velocity")

	assert.Equal(t, uint64(2), c.Get("signal.failure", "signal", "safety"))
	assert.Equal(t, uint64(1), c.Get("signal.failure", "signal", "velocity"))
	assert.Equal(t, uint64(0), c.Get("signal.failure", "signal", "tier"))
}

func TestCountersUnlabeled(t *testing.T) {
	c := NewCounters()
	c.Inc("decision.persist_failure")

	assert.Equal(t, uint64(1), c.Get("decision.persist_failure"))
}

func TestCountersConcurrentIncrement(t *testing.T) {
	c := NewCounters()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Inc("hits")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(800), c.Get("hits"))
}

func TestWritePrometheusNormalizesNames(t *testing.T) {
	c := NewCounters()
	c.Inc("score.clamped", "signal", "sss")

	var sb strings.Builder
	c.WritePrometheus(&sb)

	assert.Contains(t, sb.String(), `score_clamped{signal="sss"} 1`)
}

func TestSnapshotIsACopy(t *testing.T) {
	c := NewCounters()
	c.Inc("a")

	snap := c.Snapshot()
	snap["a"] = 99

	assert.Equal(t, uint64(1), c.Get("a"))
}
