package llm

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	at       time.Time
	op       string
	duration time.Duration
	failed   bool
}

// StatsSnapshot aggregates the model calls still inside the window.
type StatsSnapshot struct {
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// CallStats keeps model call latencies for a rolling window, tagged by
// operation ("structure", "chat").
type CallStats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
	now     func() time.Time
}

func NewCallStats(window time.Duration) *CallStats {
	if window <= 0 {
		window = time.Hour
	}
	return &CallStats{
		samples: make([]sample, 0, 128),
		window:  window,
		now:     time.Now,
	}
}

// Observe records one finished call. A nil receiver is a no-op so clients
// can run without stats.
func (s *CallStats) Observe(op string, d time.Duration, err error) {
	if s == nil {
		return
	}
	if d < 0 {
		d = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.samples = append(s.samples, sample{at: now, op: op, duration: d, failed: err != nil})
}

// Snapshot aggregates every operation.
func (s *CallStats) Snapshot() StatsSnapshot {
	return s.snapshot(func(sample) bool { return true })
}

// ByOperation aggregates per operation name.
func (s *CallStats) ByOperation() map[string]StatsSnapshot {
	s.mu.Lock()
	ops := map[string]struct{}{}
	for _, sm := range s.samples {
		ops[sm.op] = struct{}{}
	}
	s.mu.Unlock()

	out := make(map[string]StatsSnapshot, len(ops))
	for op := range ops {
		snap := s.snapshot(func(sm sample) bool { return sm.op == op })
		if snap.Count > 0 {
			out[op] = snap
		}
	}
	return out
}

func (s *CallStats) snapshot(keep func(sample) bool) StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())

	var (
		values   []int64
		sum      int64
		failures int
	)
	for _, sm := range s.samples {
		if !keep(sm) {
			continue
		}
		ms := sm.duration.Milliseconds()
		values = append(values, ms)
		sum += ms
		if sm.failed {
			failures++
		}
	}
	if len(values) == 0 {
		return StatsSnapshot{}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return StatsSnapshot{
		Count:    len(values),
		Failures: failures,
		MinMs:    values[0],
		MaxMs:    values[len(values)-1],
		AvgMs:    float64(sum) / float64(len(values)),
		P50Ms:    percentile(values, 50),
		P95Ms:    percentile(values, 95),
		P99Ms:    percentile(values, 99),
	}
}

func (s *CallStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	kept := s.samples[:0]
	for _, sm := range s.samples {
		if !sm.at.Before(cutoff) {
			kept = append(kept, sm)
		}
	}
	s.samples = kept
}

// percentile interpolates linearly between closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	idx := float64(len(sorted)-1) * pct / 100
	lo := int(idx)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	w := idx - float64(lo)
	return float64(sorted[lo]) + (float64(sorted[lo+1])-float64(sorted[lo]))*w
}
