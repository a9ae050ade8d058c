package stats

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs float64
}

// Snapshot is a point-in-time aggregate of latency samples.
type Snapshot struct {
	Count  int     `json:"count" yaml:"count"`
	Errors int     `json:"errors" yaml:"errors"`
	MinMs  float64 `json:"min_ms" yaml:"min_ms"`
	MaxMs  float64 `json:"max_ms" yaml:"max_ms"`
	AvgMs  float64 `json:"avg_ms" yaml:"avg_ms"`
	P50Ms  float64 `json:"p50_ms" yaml:"p50_ms"`
	P95Ms  float64 `json:"p95_ms" yaml:"p95_ms"`
	P99Ms  float64 `json:"p99_ms" yaml:"p99_ms"`
}

// Latency tracks recent call latencies of a model backend within a rolling window.
type Latency struct {
	mu      sync.Mutex
	samples []sample
	errors  []time.Time
	maxAge  time.Duration
}

func NewLatency(maxAge time.Duration) *Latency {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Latency{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// Observe records one call. A non-nil err counts as a failure; failed calls
// still contribute their latency.
func (l *Latency) Observe(d time.Duration, err error) {
	if d < 0 {
		d = 0
	}
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)
	l.samples = append(l.samples, sample{
		timestamp:  now,
		durationMs: float64(d) / float64(time.Millisecond),
	})
	if err != nil {
		l.errors = append(l.errors, now)
	}
}

func (l *Latency) Snapshot() Snapshot {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)
	if len(l.samples) == 0 {
		return Snapshot{}
	}

	values := make([]float64, 0, len(l.samples))
	var sum float64
	for _, sm := range l.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	sort.Float64s(values)

	return Snapshot{
		Count:  len(values),
		Errors: len(l.errors),
		MinMs:  values[0],
		MaxMs:  values[len(values)-1],
		AvgMs:  sum / float64(len(values)),
		P50Ms:  Percentile(values, 50),
		P95Ms:  Percentile(values, 95),
		P99Ms:  Percentile(values, 99),
	}
}

func (l *Latency) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.maxAge)
	writeIdx := 0
	for _, sm := range l.samples {
		if !sm.timestamp.Before(cutoff) {
			l.samples[writeIdx] = sm
			writeIdx++
		}
	}
	l.samples = l.samples[:writeIdx]

	writeIdx = 0
	for _, ts := range l.errors {
		if !ts.Before(cutoff) {
			l.errors[writeIdx] = ts
			writeIdx++
		}
	}
	l.errors = l.errors[:writeIdx]
}
