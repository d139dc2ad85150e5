package async

import "sync/atomic"

// Metrics accumulates the orchestrator's error/outcome counters (§7
// "every background worker catches its own exceptions, records them in
// IngestMetrics.errors, and continues").
type Metrics struct {
	Embedded      int64
	RateLimitHits int64
	Errors        int64
	ZeroVectors   int64
}

func (m *Metrics) incEmbedded(n int64)      { atomic.AddInt64(&m.Embedded, n) }
func (m *Metrics) incRateLimitHit()         { atomic.AddInt64(&m.RateLimitHits, 1) }
func (m *Metrics) incError()                { atomic.AddInt64(&m.Errors, 1) }
func (m *Metrics) incZeroVectors(n int64)   { atomic.AddInt64(&m.ZeroVectors, n) }

func (m *Metrics) Snapshot() Metrics {
	return Metrics{
		Embedded:      atomic.LoadInt64(&m.Embedded),
		RateLimitHits: atomic.LoadInt64(&m.RateLimitHits),
		Errors:        atomic.LoadInt64(&m.Errors),
		ZeroVectors:   atomic.LoadInt64(&m.ZeroVectors),
	}
}
