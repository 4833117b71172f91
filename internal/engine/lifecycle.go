package engine

import (
	"fmt"
	"log/slog"
	"time"

	"exchange_go/internal/domain"
	"exchange_go/internal/infra"
	"exchange_go/internal/infra/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceRequest is a validated-on-entry order submission.
// Price.Valid implies a limit order.
type PlaceRequest struct {
	Symbol   string
	Side     string
	Type     string
	Quantity decimal.Decimal
	Price    decimal.NullDecimal
}

// validate rejects malformed requests before any state is touched.
func (r *PlaceRequest) validate() error {
	if r.Side != domain.SideBuy && r.Side != domain.SideSell {
		return domain.NewValidationError("side", "must be BUY or SELL")
	}
	if r.Type != domain.OrderTypeLimit && r.Type != domain.OrderTypeMarket {
		return domain.NewValidationError("type", "must be LIMIT or MARKET")
	}
	if !r.Quantity.IsPositive() || !r.Quantity.IsInteger() {
		return domain.NewValidationError("qty", "must be a positive integer")
	}
	if r.Type == domain.OrderTypeLimit {
		if !r.Price.Valid || !r.Price.Decimal.IsPositive() {
			return domain.NewValidationError("price", "limit orders require a positive price")
		}
	} else if r.Price.Valid {
		return domain.NewValidationError("price", "market orders must not carry a price")
	}
	return nil
}

// PlaceOrder creates a NEW order and immediately matches it against the book.
// Returns the order (with final fill state) and the trades it produced.
// The whole match-and-settle unit runs under the instrument lock inside one
// transaction; a settlement failure leaves no state behind.
func (e *Engine) PlaceOrder(user *domain.User, req PlaceRequest) (*domain.Order, []domain.Trade, error) {
	if err := req.validate(); err != nil {
		infra.GlobalMetrics.RecordOrderRejected()
		return nil, nil, err
	}

	inst, err := e.store.GetInstrumentBySymbol(req.Symbol)
	if err != nil {
		return nil, nil, fmt.Errorf("instrument lookup: %w", err)
	}
	if inst == nil {
		infra.GlobalMetrics.RecordOrderRejected()
		return nil, nil, domain.ErrInstrumentNotFound
	}
	if !inst.IsListed {
		infra.GlobalMetrics.RecordOrderRejected()
		return nil, nil, domain.ErrInstrumentDelisted
	}

	order := &domain.Order{
		ExternalID:   uuid.NewString(),
		UserID:       user.ID,
		InstrumentID: inst.ID,
		Side:         req.Side,
		Type:         req.Type,
		Price:        req.Price,
		Quantity:     req.Quantity,
		Filled:       decimal.Zero,
		Status:       domain.OrderStatusNew,
		CreatedAt:    time.Now().UTC(),
	}

	lock := e.locks.Get(inst.ID)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()
	var trades []domain.Trade
	err = e.store.RunInTx(func(tx *storage.Storage) error {
		if err := tx.CreateOrder(order); err != nil {
			return &domain.SettlementError{Op: "order", Err: err}
		}
		trades, err = matchAndSettle(tx, inst, order)
		return err
	})
	if err != nil {
		infra.GlobalMetrics.RecordOrderRejected()
		return nil, nil, err
	}

	infra.GlobalMetrics.RecordOrderPlaced(time.Since(started).Nanoseconds())
	infra.GlobalMetrics.RecordTrades(len(trades))
	slog.Info("order placed",
		slog.String("order_id", order.ExternalID),
		slog.String("symbol", inst.Symbol),
		slog.String("side", order.Side),
		slog.String("status", order.Status),
		slog.Int("trades", len(trades)))

	if e.onTrade != nil {
		for _, tr := range trades {
			e.onTrade(tr)
		}
	}

	return order, trades, nil
}

// CancelOrder transitions an open order owned by user to CANCELED.
// Canceling a FILLED or already-CANCELED order is a conflict; an unknown or
// foreign order is not found. Neither mutates anything. The check-and-set
// runs under the instrument lock so a cancel racing an in-flight match
// observes the committed status.
func (e *Engine) CancelOrder(user *domain.User, externalID string) (*domain.Order, error) {
	order, err := e.store.GetOrderByExternalID(user.ID, externalID)
	if err != nil {
		return nil, fmt.Errorf("order lookup: %w", err)
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}

	lock := e.locks.Get(order.InstrumentID)
	lock.Lock()
	defer lock.Unlock()

	var updated *domain.Order
	err = e.store.RunInTx(func(tx *storage.Storage) error {
		// Re-read under the lock: a match may have filled it meanwhile.
		o, err := tx.GetOrderByExternalID(user.ID, externalID)
		if err != nil {
			return fmt.Errorf("order lookup: %w", err)
		}
		if o == nil {
			return domain.ErrOrderNotFound
		}
		if !o.IsOpen() {
			return domain.ErrOrderNotCancelable
		}
		o.Status = domain.OrderStatusCanceled
		if err := tx.SaveOrder(o); err != nil {
			return fmt.Errorf("cancel write: %w", err)
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	infra.GlobalMetrics.RecordOrderCanceled()
	slog.Info("order canceled", slog.String("order_id", updated.ExternalID))
	return updated, nil
}
