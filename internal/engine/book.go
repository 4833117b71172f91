package engine

import (
	"fmt"

	"exchange_go/internal/domain"

	"github.com/shopspring/decimal"
)

// BookLevel aggregates the resting quantity at one price.
type BookLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"qty"`
}

// BookDepth is the aggregated orderbook view: bids best-first (highest price)
// and asks best-first (lowest price).
type BookDepth struct {
	Bids []BookLevel `json:"bid_levels"`
	Asks []BookLevel `json:"ask_levels"`
}

// OrderBook returns up to depth aggregated levels per side for a listed
// instrument. Levels group resting orders by price; quantities are the
// summed unfilled remainders.
func (e *Engine) OrderBook(symbol string, depth int) (*BookDepth, error) {
	inst, err := e.store.GetInstrumentBySymbol(symbol)
	if err != nil {
		return nil, fmt.Errorf("instrument lookup: %w", err)
	}
	if inst == nil || !inst.IsListed {
		return nil, domain.ErrInstrumentNotFound
	}

	bids, err := e.bookSide(inst.ID, domain.SideBuy, depth)
	if err != nil {
		return nil, err
	}
	asks, err := e.bookSide(inst.ID, domain.SideSell, depth)
	if err != nil {
		return nil, err
	}

	return &BookDepth{Bids: bids, Asks: asks}, nil
}

// bookSide collapses priority-ordered resting orders into price levels.
// The orders arrive best-price-first, so adjacent equal prices form one level.
func (e *Engine) bookSide(instrumentID uint, side string, depth int) ([]BookLevel, error) {
	orders, err := e.store.RestingOrders(instrumentID, side, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("book scan: %w", err)
	}

	levels := make([]BookLevel, 0, depth)
	for _, o := range orders {
		if !o.Price.Valid {
			continue
		}
		remaining := o.Remaining()
		if n := len(levels); n > 0 && levels[n-1].Price.Equal(o.Price.Decimal) {
			levels[n-1].Quantity = levels[n-1].Quantity.Add(remaining)
			continue
		}
		if len(levels) == depth {
			break
		}
		levels = append(levels, BookLevel{Price: o.Price.Decimal, Quantity: remaining})
	}
	return levels, nil
}
