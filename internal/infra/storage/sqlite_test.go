package storage

import (
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"exchange_go/internal/domain"

	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return s
}

func mustCreateInstrument(t *testing.T, s *Storage, symbol string) *domain.Instrument {
	t.Helper()
	inst := &domain.Instrument{Symbol: symbol, Name: symbol, IsListed: true}
	if err := s.CreateInstrument(inst); err != nil {
		t.Fatalf("CreateInstrument failed: %v", err)
	}
	return inst
}

func limitOrder(instID uint, side string, price int64, createdAt time.Time) *domain.Order {
	return &domain.Order{
		ExternalID:   side + "-" + strconv.FormatInt(price, 10) + "-" + createdAt.Format("150405.000000"),
		UserID:       1,
		InstrumentID: instID,
		Side:         side,
		Type:         domain.OrderTypeLimit,
		Price:        decimal.NewNullDecimal(decimal.NewFromInt(price)),
		Quantity:     decimal.NewFromInt(10),
		Filled:       decimal.Zero,
		Status:       domain.OrderStatusNew,
		CreatedAt:    createdAt,
	}
}

func TestAdjustBalance_CreatesRow(t *testing.T) {
	s := setupTestDB(t)
	inst := mustCreateInstrument(t, s, "AAPL")

	bal, err := s.AdjustBalance(1, inst.ID, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("AdjustBalance failed: %v", err)
	}
	if !bal.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected amount 100, got %s", bal.Amount)
	}

	// Second adjustment accumulates on the same row.
	bal, err = s.AdjustBalance(1, inst.ID, decimal.NewFromInt(-150))
	if err != nil {
		t.Fatalf("AdjustBalance failed: %v", err)
	}
	if !bal.Amount.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("expected amount -50 (negative allowed), got %s", bal.Amount)
	}

	balances, err := s.GetBalances(1)
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	if len(balances) != 1 {
		t.Fatalf("expected exactly one balance row, got %d", len(balances))
	}
}

func TestAdjustBalance_ConcurrentDeltas(t *testing.T) {
	s := setupTestDB(t)
	inst := mustCreateInstrument(t, s, "RACE")

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AdjustBalance(3, inst.ID, decimal.NewFromInt(1)); err != nil {
				t.Errorf("AdjustBalance failed: %v", err)
			}
		}()
	}
	wg.Wait()

	balances, err := s.GetBalances(3)
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	if len(balances) != 1 {
		t.Fatalf("expected a single balance row, got %d", len(balances))
	}
	if !balances[0].Amount.Equal(decimal.NewFromInt(workers)) {
		t.Errorf("expected amount %d after %d concurrent deltas, got %s",
			workers, workers, balances[0].Amount)
	}
}

func TestCreditDebit(t *testing.T) {
	s := setupTestDB(t)
	inst := mustCreateInstrument(t, s, "GME")

	if err := s.Credit(7, inst.ID, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if err := s.Debit(7, inst.ID, decimal.NewFromInt(8)); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}

	balances, _ := s.GetBalances(7)
	if len(balances) != 1 || !balances[0].Amount.Equal(decimal.NewFromInt(-3)) {
		t.Errorf("expected single balance of -3, got %+v", balances)
	}
}

func TestRestingOrders_PriceTimePriority(t *testing.T) {
	s := setupTestDB(t)
	inst := mustCreateInstrument(t, s, "MEME")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Sells: 101 (late), 100 (late), 100 (early), plus a filled one at 99
	// that must not appear.
	late101 := limitOrder(inst.ID, domain.SideSell, 101, base.Add(3*time.Second))
	late100 := limitOrder(inst.ID, domain.SideSell, 100, base.Add(2*time.Second))
	early100 := limitOrder(inst.ID, domain.SideSell, 100, base.Add(1*time.Second))
	filled99 := limitOrder(inst.ID, domain.SideSell, 99, base)
	filled99.Status = domain.OrderStatusFilled
	filled99.Filled = filled99.Quantity

	for _, o := range []*domain.Order{late101, late100, early100, filled99} {
		if err := s.CreateOrder(o); err != nil {
			t.Fatalf("CreateOrder failed: %v", err)
		}
	}

	asks, err := s.RestingOrders(inst.ID, domain.SideSell, 0, 0)
	if err != nil {
		t.Fatalf("RestingOrders failed: %v", err)
	}
	if len(asks) != 3 {
		t.Fatalf("expected 3 resting sells, got %d", len(asks))
	}
	if asks[0].ID != early100.ID {
		t.Errorf("expected earliest order at best price first, got order %d", asks[0].ID)
	}
	if asks[1].ID != late100.ID || asks[2].ID != late101.ID {
		t.Errorf("unexpected ask ordering: %d, %d", asks[1].ID, asks[2].ID)
	}

	// Buys rank descending by price.
	buy99 := limitOrder(inst.ID, domain.SideBuy, 99, base)
	buy102 := limitOrder(inst.ID, domain.SideBuy, 102, base.Add(time.Second))
	for _, o := range []*domain.Order{buy99, buy102} {
		if err := s.CreateOrder(o); err != nil {
			t.Fatalf("CreateOrder failed: %v", err)
		}
	}
	bids, err := s.RestingOrders(inst.ID, domain.SideBuy, 0, 0)
	if err != nil {
		t.Fatalf("RestingOrders failed: %v", err)
	}
	if len(bids) != 2 || bids[0].ID != buy102.ID {
		t.Errorf("expected highest bid first, got %+v", bids)
	}
}

func TestRestingOrders_ExcludesIncomingAndMarket(t *testing.T) {
	s := setupTestDB(t)
	inst := mustCreateInstrument(t, s, "BOND")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	resting := limitOrder(inst.ID, domain.SideSell, 100, base)
	incoming := limitOrder(inst.ID, domain.SideSell, 100, base.Add(time.Second))
	market := &domain.Order{
		ExternalID:   "mkt-1",
		UserID:       1,
		InstrumentID: inst.ID,
		Side:         domain.SideSell,
		Type:         domain.OrderTypeMarket,
		Quantity:     decimal.NewFromInt(5),
		Filled:       decimal.Zero,
		Status:       domain.OrderStatusNew,
		CreatedAt:    base,
	}
	for _, o := range []*domain.Order{resting, incoming, market} {
		if err := s.CreateOrder(o); err != nil {
			t.Fatalf("CreateOrder failed: %v", err)
		}
	}

	asks, err := s.RestingOrders(inst.ID, domain.SideSell, incoming.ID, 0)
	if err != nil {
		t.Fatalf("RestingOrders failed: %v", err)
	}
	if len(asks) != 1 || asks[0].ID != resting.ID {
		t.Errorf("expected only the resting limit order, got %+v", asks)
	}
}

func TestDelistInstrument(t *testing.T) {
	s := setupTestDB(t)
	inst := mustCreateInstrument(t, s, "DEAD")

	if err := s.DelistInstrument(inst.ID); err != nil {
		t.Fatalf("DelistInstrument failed: %v", err)
	}

	fetched, err := s.GetInstrumentBySymbol("DEAD")
	if err != nil {
		t.Fatalf("GetInstrumentBySymbol failed: %v", err)
	}
	if fetched == nil || fetched.IsListed {
		t.Error("expected instrument to be delisted but present")
	}

	listed, _ := s.ListInstruments(true)
	for _, i := range listed {
		if i.Symbol == "DEAD" {
			t.Error("delisted instrument must not show in listed set")
		}
	}
}

func TestUserLookup(t *testing.T) {
	s := setupTestDB(t)

	u := &domain.User{ExternalID: "u-1", Username: "alice", Token: "tok-abc"}
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byToken, err := s.GetUserByToken("tok-abc")
	if err != nil || byToken == nil || byToken.Username != "alice" {
		t.Fatalf("token lookup failed: %v, %+v", err, byToken)
	}

	missing, err := s.GetUserByToken("nope")
	if err != nil {
		t.Fatalf("missing token lookup errored: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown token")
	}
}

func TestTradesInWindow(t *testing.T) {
	s := setupTestDB(t)
	inst := mustCreateInstrument(t, s, "WIN")

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		trade := &domain.Trade{
			BuyOrderID:   1,
			SellOrderID:  2,
			InstrumentID: inst.ID,
			Price:        decimal.NewFromInt(int64(100 + i)),
			Quantity:     decimal.NewFromInt(1),
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateTrade(trade); err != nil {
			t.Fatalf("CreateTrade failed: %v", err)
		}
	}

	window, err := s.TradesInWindow(inst.ID, base, base.Add(time.Minute), 100)
	if err != nil {
		t.Fatalf("TradesInWindow failed: %v", err)
	}
	if len(window) != 2 {
		t.Fatalf("expected 2 trades in window, got %d", len(window))
	}
	if !window[0].Timestamp.Before(window[1].Timestamp) {
		t.Error("expected ascending timestamps for candle input")
	}

	recent, err := s.RecentTrades(inst.ID, 2)
	if err != nil {
		t.Fatalf("RecentTrades failed: %v", err)
	}
	if len(recent) != 2 || !recent[0].Timestamp.After(recent[1].Timestamp) {
		t.Error("expected newest-first recent trades")
	}
}
