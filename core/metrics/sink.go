// Package metrics provides the counter sink and latency recorder backing the
// engine's observability surface.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Sink receives counter increments. Labels are alternating key/value pairs.
type Sink interface {
	Inc(name string, labels ...string)
}

// Nop discards all increments.
type Nop struct{}

func (Nop) Inc(string, ...string) {}

// Counters is an in-memory Sink keyed by metric name and label set.
type Counters struct {
	mu     sync.Mutex
	counts map[string]uint64
}

// NewCounters creates an empty counter sink.
func NewCounters() *Counters {
	return &Counters{counts: make(map[string]uint64)}
}

// Inc increments the counter identified by name and labels by one.
func (c *Counters) Inc(name string, labels ...string) {
	key := seriesKey(name, labels)
	c.mu.Lock()
	c.counts[key]++
	c.mu.Unlock()
}

// Get returns the current value for a name and label set.
func (c *Counters) Get(name string, labels ...string) uint64 {
	key := seriesKey(name, labels)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}

// Snapshot returns a copy of every series and its count.
func (c *Counters) Snapshot() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// WritePrometheus renders every counter in Prometheus text exposition
// format, sorted by series name for stable output.
func (c *Counters) WritePrometheus(w io.Writer) {
	snap := c.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s %d\n", k, snap[k])
	}
}

// seriesKey renders name{k1="v1",k2="v2"}. Metric names use dots internally;
// they are normalized to underscores for exposition.
func seriesKey(name string, labels []string) string {
	name = strings.ReplaceAll(name, ".", "_")
	if len(labels) < 2 {
		return name
	}
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('{')
	for i := 0; i+1 < len(labels); i += 2 {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(labels[i])
		sb.WriteString(`="`)
		sb.WriteString(labels[i+1])
		sb.WriteString(`"`)
	}
	sb.WriteByte('}')
	return sb.String()
}
