package infra

import (
	"sync"
	"testing"
)

func TestMetrics_Counters(t *testing.T) {
	m := &Metrics{}

	m.RecordOrderPlaced(1000)
	m.RecordOrderPlaced(3000)
	m.RecordOrderRejected()
	m.RecordOrderCanceled()
	m.RecordTrades(3)
	m.RecordTrades(0) // no-op

	snap := m.Snapshot()
	if snap.OrdersPlaced != 2 {
		t.Errorf("expected 2 orders placed, got %d", snap.OrdersPlaced)
	}
	if snap.OrdersRejected != 1 {
		t.Errorf("expected 1 rejection, got %d", snap.OrdersRejected)
	}
	if snap.OrdersCanceled != 1 {
		t.Errorf("expected 1 cancel, got %d", snap.OrdersCanceled)
	}
	if snap.TradesExecuted != 3 {
		t.Errorf("expected 3 trades, got %d", snap.TradesExecuted)
	}
	if snap.AvgMatchNs != 2000 {
		t.Errorf("expected avg latency 2000ns, got %d", snap.AvgMatchNs)
	}
}

func TestMetrics_ConcurrentAccess(t *testing.T) {
	m := &Metrics{}
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordOrderPlaced(100)
				m.RecordTrades(1)
				m.IncrementWSClients()
				m.DecrementWSClients()
			}
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	if snap.OrdersPlaced != 1000 {
		t.Errorf("expected 1000 orders, got %d", snap.OrdersPlaced)
	}
	if snap.TradesExecuted != 1000 {
		t.Errorf("expected 1000 trades, got %d", snap.TradesExecuted)
	}
	if snap.WSClients != 0 {
		t.Errorf("expected 0 ws clients, got %d", snap.WSClients)
	}
}
