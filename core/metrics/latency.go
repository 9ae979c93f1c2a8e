package metrics

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// LatencyBucketsMS are the fixed histogram bucket upper bounds in
// milliseconds.
var LatencyBucketsMS = []float64{50, 100, 200, 500, 1000, 2000, 4000}

const defaultRingCapacity = 1024

// LatencyRecorder keeps a bounded ring of recent decision latencies plus
// cumulative counters. The ring bounds memory while still giving a
// meaningful p95 over recent traffic.
type LatencyRecorder struct {
	mu      sync.Mutex
	samples []float64 // milliseconds, ring buffer
	next    int
	filled  bool

	count   uint64
	sum     float64
	max     float64
	buckets []uint64 // one per LatencyBucketsMS entry, plus overflow
}

// NewLatencyRecorder creates a recorder with the given ring capacity
// (defaultRingCapacity if non-positive).
func NewLatencyRecorder(capacity int) *LatencyRecorder {
	if capacity <= 0 {
		capacity = defaultRingCapacity
	}
	return &LatencyRecorder{
		samples: make([]float64, capacity),
		buckets: make([]uint64, len(LatencyBucketsMS)+1),
	}
}

// Record adds one latency observation.
func (r *LatencyRecorder) Record(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	if ms < 0 {
		ms = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples[r.next] = ms
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.filled = true
	}

	r.count++
	r.sum += ms
	if ms > r.max {
		r.max = ms
	}
	r.buckets[bucketIndex(ms)]++
}

func bucketIndex(ms float64) int {
	for i, ub := range LatencyBucketsMS {
		if ms <= ub {
			return i
		}
	}
	return len(LatencyBucketsMS)
}

// LatencySnapshot is a point-in-time view of the recorder.
type LatencySnapshot struct {
	Count   uint64            `json:"count"`
	SumMS   float64           `json:"sum_ms"`
	MaxMS   float64           `json:"max_ms"`
	P95MS   float64           `json:"p95_ms"`
	Buckets map[string]uint64 `json:"buckets"`
}

// Snapshot returns counters and a p95 computed over the retained ring.
func (r *LatencyRecorder) Snapshot() LatencySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := LatencySnapshot{
		Count:   r.count,
		SumMS:   r.sum,
		MaxMS:   r.max,
		Buckets: make(map[string]uint64, len(r.buckets)),
	}
	for i, ub := range LatencyBucketsMS {
		snap.Buckets[fmt.Sprintf("%g", ub)] = r.buckets[i]
	}
	snap.Buckets["+Inf"] = r.buckets[len(LatencyBucketsMS)]
	snap.P95MS = r.p95Locked()
	return snap
}

// p95Locked must be called with the lock held.
func (r *LatencyRecorder) p95Locked() float64 {
	n := r.next
	if r.filled {
		n = len(r.samples)
	}
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, r.samples[:n])
	sort.Float64s(sorted)
	return stat.Quantile(0.95, stat.Empirical, sorted, nil)
}

// WritePrometheus renders the latency histogram in Prometheus text format
// with cumulative le buckets.
func (r *LatencyRecorder) WritePrometheus(w io.Writer) {
	snap := r.Snapshot()

	fmt.Fprintln(w, "# TYPE fuse_decision_latency_ms histogram")
	var cumulative uint64
	for _, ub := range LatencyBucketsMS {
		key := fmt.Sprintf("%g", ub)
		cumulative += snap.Buckets[key]
		fmt.Fprintf(w, "fuse_decision_latency_ms_bucket{le=\"%s\"} %d\n", key, cumulative)
	}
	cumulative += snap.Buckets["+Inf"]
	fmt.Fprintf(w, "fuse_decision_latency_ms_bucket{le=\"+Inf\"} %d\n", cumulative)
	fmt.Fprintf(w, "fuse_decision_latency_ms_sum %g\n", snap.SumMS)
	fmt.Fprintf(w, "fuse_decision_latency_ms_count %d\n", snap.Count)
	fmt.Fprintf(w, "fuse_decision_latency_ms_p95 %g\n", snap.P95MS)
	fmt.Fprintf(w, "fuse_decision_latency_ms_max %g\n", snap.MaxMS)
}
