package infra

import (
	"sync/atomic"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	ordersPlaced   atomic.Uint64
	ordersRejected atomic.Uint64
	ordersCanceled atomic.Uint64
	tradesExecuted atomic.Uint64

	// Latency tracking for match-and-settle units
	matchLatencySumNs atomic.Int64
	matchLatencyCount atomic.Uint64

	// Gauges
	wsClients atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordOrderPlaced records an accepted order with its matching latency.
func (m *Metrics) RecordOrderPlaced(latencyNs int64) {
	m.ordersPlaced.Add(1)
	m.matchLatencySumNs.Add(latencyNs)
	m.matchLatencyCount.Add(1)
}

// RecordOrderRejected records a rejected order submission.
func (m *Metrics) RecordOrderRejected() {
	m.ordersRejected.Add(1)
}

// RecordOrderCanceled records a successful cancel.
func (m *Metrics) RecordOrderCanceled() {
	m.ordersCanceled.Add(1)
}

// RecordTrades records trades produced by one match-and-settle unit.
func (m *Metrics) RecordTrades(n int) {
	if n > 0 {
		m.tradesExecuted.Add(uint64(n))
	}
}

// IncrementWSClients increments connected trade-feed clients by 1.
func (m *Metrics) IncrementWSClients() {
	m.wsClients.Add(1)
}

// DecrementWSClients decrements connected trade-feed clients by 1.
func (m *Metrics) DecrementWSClients() {
	m.wsClients.Add(-1)
}

// Snapshot returns current values for reporting.
type MetricsSnapshot struct {
	OrdersPlaced   uint64 `json:"orders_placed"`
	OrdersRejected uint64 `json:"orders_rejected"`
	OrdersCanceled uint64 `json:"orders_canceled"`
	TradesExecuted uint64 `json:"trades_executed"`
	AvgMatchNs     int64  `json:"avg_match_ns"`
	WSClients      int32  `json:"ws_clients"`
}

// Snapshot captures the current metric values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		OrdersPlaced:   m.ordersPlaced.Load(),
		OrdersRejected: m.ordersRejected.Load(),
		OrdersCanceled: m.ordersCanceled.Load(),
		TradesExecuted: m.tradesExecuted.Load(),
		WSClients:      m.wsClients.Load(),
	}
	if count := m.matchLatencyCount.Load(); count > 0 {
		snap.AvgMatchNs = m.matchLatencySumNs.Load() / int64(count)
	}
	return snap
}
