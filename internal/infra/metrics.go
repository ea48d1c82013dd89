package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	tradesSettled  atomic.Uint64
	tradesRejected atomic.Uint64
	cacheHits      atomic.Uint64
	cacheMisses    atomic.Uint64
	providerErrors atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activeStreams atomic.Int32
}

// RecordSettlement records a settled trade with its latency.
func (m *Metrics) RecordSettlement(latency time.Duration) {
	m.tradesSettled.Add(1)
	m.latencySumNs.Add(latency.Nanoseconds())
	m.latencyCount.Add(1)
}

// RecordRejection records a trade that was refused or rolled back.
func (m *Metrics) RecordRejection() {
	m.tradesRejected.Add(1)
}

// RecordCacheHit records a quote served from cache.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a quote that required a provider call.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// RecordProviderError records a failed provider call.
func (m *Metrics) RecordProviderError() {
	m.providerErrors.Add(1)
}

// IncrementStreams increments open price streams by 1.
func (m *Metrics) IncrementStreams() {
	m.activeStreams.Add(1)
}

// DecrementStreams decrements open price streams by 1.
func (m *Metrics) DecrementStreams() {
	m.activeStreams.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	TradesSettled   uint64    `json:"trades_settled"`
	TradesRejected  uint64    `json:"trades_rejected"`
	CacheHits       uint64    `json:"cache_hits"`
	CacheMisses     uint64    `json:"cache_misses"`
	ProviderErrors  uint64    `json:"provider_errors"`
	AvgSettlementNs int64     `json:"avg_settlement_ns"`
	ActiveStreams   int32     `json:"active_streams"`
	CachedQuotes    int       `json:"cached_quotes"`
	Timestamp       time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		TradesSettled:   m.tradesSettled.Load(),
		TradesRejected:  m.tradesRejected.Load(),
		CacheHits:       m.cacheHits.Load(),
		CacheMisses:     m.cacheMisses.Load(),
		ProviderErrors:  m.providerErrors.Load(),
		AvgSettlementNs: avgLatency,
		ActiveStreams:   m.activeStreams.Load(),
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.tradesSettled.Store(0)
	m.tradesRejected.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.providerErrors.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.activeStreams.Store(0)
}
