package engine

import (
	"fmt"
	"time"

	"exchange_go/internal/domain"
	"exchange_go/internal/infra/storage"

	"github.com/shopspring/decimal"
)

// Engine executes incoming orders against the resting book and settles the
// resulting trades. One match-and-settle unit (book scan, fills, trade
// emission, balance updates) runs under the instrument's lock inside a single
// database transaction, so concurrent submits can never double-match the same
// resting liquidity.
type Engine struct {
	store   *storage.Storage
	locks   *lockTable
	onTrade func(domain.Trade) // invoked after commit, per trade
}

// NewEngine creates a matching engine over the given storage.
// onTrade may be nil.
func NewEngine(store *storage.Storage, onTrade func(domain.Trade)) *Engine {
	return &Engine{
		store:   store,
		locks:   newLockTable(),
		onTrade: onTrade,
	}
}

// matchAndSettle runs the continuous double auction for one incoming order.
// It must be called under the instrument lock, inside a transaction.
func matchAndSettle(tx *storage.Storage, inst *domain.Instrument, incoming *domain.Order) ([]domain.Trade, error) {
	opposite := domain.SideSell
	if incoming.Side == domain.SideSell {
		opposite = domain.SideBuy
	}

	book, err := tx.RestingOrders(inst.ID, opposite, incoming.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("book scan: %w", err)
	}

	var trades []domain.Trade
	remaining := incoming.Remaining()

	for i := range book {
		if !remaining.IsPositive() {
			break
		}
		resting := &book[i]

		// Price compatibility. The book is priority-ordered, so the first
		// incompatible price ends the scan: nothing behind it can cross.
		if incoming.Type == domain.OrderTypeLimit && resting.Price.Valid && incoming.Price.Valid {
			if incoming.Side == domain.SideBuy && incoming.Price.Decimal.LessThan(resting.Price.Decimal) {
				break
			}
			if incoming.Side == domain.SideSell && incoming.Price.Decimal.GreaterThan(resting.Price.Decimal) {
				break
			}
		}

		tradeQty := decimal.Min(remaining, resting.Remaining())
		if !tradeQty.IsPositive() {
			// Defensive: cannot happen with correct fill bookkeeping.
			continue
		}

		// The resting order sets the execution price.
		var tradePrice decimal.Decimal
		switch {
		case resting.Price.Valid:
			tradePrice = resting.Price.Decimal
		case incoming.Price.Valid:
			tradePrice = incoming.Price.Decimal
		}

		buyOrder, sellOrder := incoming, resting
		if incoming.Side == domain.SideSell {
			buyOrder, sellOrder = resting, incoming
		}

		// Settlement: the only place quantity changes hands. Both legs commit
		// or neither does; the surrounding transaction guarantees it.
		if err := tx.Credit(buyOrder.UserID, inst.ID, tradeQty); err != nil {
			return nil, &domain.SettlementError{Op: "credit", Err: err}
		}
		if err := tx.Debit(sellOrder.UserID, inst.ID, tradeQty); err != nil {
			return nil, &domain.SettlementError{Op: "debit", Err: err}
		}

		incoming.ApplyFill(tradeQty)
		resting.ApplyFill(tradeQty)
		if err := tx.SaveOrder(resting); err != nil {
			return nil, &domain.SettlementError{Op: "order", Err: err}
		}

		trade := domain.Trade{
			BuyOrderID:   buyOrder.ID,
			SellOrderID:  sellOrder.ID,
			InstrumentID: inst.ID,
			Price:        tradePrice,
			Quantity:     tradeQty,
			Timestamp:    time.Now().UTC(),
		}
		if err := tx.CreateTrade(&trade); err != nil {
			return nil, &domain.SettlementError{Op: "trade", Err: err}
		}
		trades = append(trades, trade)

		remaining = incoming.Remaining()
	}

	// An unfilled market remainder is discarded: market orders never rest
	// (RestingOrders only serves limit orders), and the status keeps
	// reflecting the actual fill.
	if err := tx.SaveOrder(incoming); err != nil {
		return nil, &domain.SettlementError{Op: "order", Err: err}
	}

	return trades, nil
}
