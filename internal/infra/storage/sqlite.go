package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"exchange_go/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage wraps the SQLite database. All exchange state (users, instruments,
// balances, orders, trades) lives here.
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a new SQLite storage instance at the given path.
func NewStorage(path string) (*Storage, error) {
	// Ensure directory exists
	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Instrument{},
		&domain.Balance{},
		&domain.Order{},
		&domain.Trade{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// RunInTx executes fn inside a single database transaction. fn receives a
// transaction-scoped Storage; returning an error rolls everything back.
// The matching engine uses this as its match-and-settle atomicity boundary.
func (s *Storage) RunInTx(fn func(tx *Storage) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Storage{db: tx})
	})
}

// ======================================================================================
// User Operations
// ======================================================================================

// CreateUser persists a new user.
func (s *Storage) CreateUser(u *domain.User) error {
	return s.db.Create(u).Error
}

// GetUserByToken resolves an API token to its user.
func (s *Storage) GetUserByToken(token string) (*domain.User, error) {
	var user domain.User
	err := s.db.First(&user, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &user, err
}

// GetUserByUsername retrieves a user by username.
func (s *Storage) GetUserByUsername(name string) (*domain.User, error) {
	var user domain.User
	err := s.db.First(&user, "username = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

// GetUserByExternalID retrieves a user by its public id.
func (s *Storage) GetUserByExternalID(externalID string) (*domain.User, error) {
	var user domain.User
	err := s.db.First(&user, "external_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

// DeleteUser removes a user row.
func (s *Storage) DeleteUser(id uint) error {
	return s.db.Delete(&domain.User{}, id).Error
}

// ======================================================================================
// Instrument Operations
// ======================================================================================

// CreateInstrument persists a new listed instrument.
func (s *Storage) CreateInstrument(inst *domain.Instrument) error {
	return s.db.Create(inst).Error
}

// GetInstrumentBySymbol retrieves an instrument by ticker.
func (s *Storage) GetInstrumentBySymbol(symbol string) (*domain.Instrument, error) {
	var inst domain.Instrument
	err := s.db.First(&inst, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &inst, err
}

// GetInstrumentByID retrieves an instrument by internal id.
func (s *Storage) GetInstrumentByID(id uint) (*domain.Instrument, error) {
	var inst domain.Instrument
	err := s.db.First(&inst, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &inst, err
}

// ListInstruments returns instruments, optionally only listed ones.
func (s *Storage) ListInstruments(listedOnly bool) ([]domain.Instrument, error) {
	var instruments []domain.Instrument
	q := s.db
	if listedOnly {
		q = q.Where("is_listed = ?", true)
	}
	err := q.Order("symbol asc").Find(&instruments).Error
	return instruments, err
}

// DelistInstrument flips is_listed to false. One-way transition.
func (s *Storage) DelistInstrument(id uint) error {
	return s.db.Model(&domain.Instrument{}).Where("id = ?", id).
		Update("is_listed", false).Error
}

// ======================================================================================
// Ledger Operations
// ======================================================================================

// AdjustBalance applies a signed delta to a (user, instrument) balance,
// creating the row first if none exists. The delta is applied in a single
// UPDATE so concurrent adjustments cannot lose each other, and there is no
// sufficiency check: balances may go negative.
func (s *Storage) AdjustBalance(userID, instrumentID uint, delta decimal.Decimal) (*domain.Balance, error) {
	apply := func() (int64, error) {
		res := s.db.Model(&domain.Balance{}).
			Where("user_id = ? AND instrument_id = ?", userID, instrumentID).
			Update("amount", gorm.Expr("amount + ?", delta))
		return res.RowsAffected, res.Error
	}

	affected, err := apply()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		created := domain.Balance{
			UserID:       userID,
			InstrumentID: instrumentID,
			Amount:       delta,
		}
		if err := s.db.Create(&created).Error; err != nil {
			// Lost the first-row race: the unique index means the row exists
			// now, so the delta goes through the update after all.
			affected, retryErr := apply()
			if retryErr != nil || affected == 0 {
				return nil, err
			}
		} else {
			return &created, nil
		}
	}

	var bal domain.Balance
	if err := s.db.Where("user_id = ? AND instrument_id = ?", userID, instrumentID).First(&bal).Error; err != nil {
		return nil, err
	}
	return &bal, nil
}

// Credit adds qty to the user's balance in the instrument.
func (s *Storage) Credit(userID, instrumentID uint, qty decimal.Decimal) error {
	_, err := s.AdjustBalance(userID, instrumentID, qty)
	return err
}

// Debit removes qty from the user's balance in the instrument.
func (s *Storage) Debit(userID, instrumentID uint, qty decimal.Decimal) error {
	_, err := s.AdjustBalance(userID, instrumentID, qty.Neg())
	return err
}

// GetBalances returns all balances of a user.
func (s *Storage) GetBalances(userID uint) ([]domain.Balance, error) {
	var balances []domain.Balance
	err := s.db.Where("user_id = ?", userID).Find(&balances).Error
	return balances, err
}

// ======================================================================================
// Order Operations
// ======================================================================================

// CreateOrder persists a new order.
func (s *Storage) CreateOrder(o *domain.Order) error {
	return s.db.Create(o).Error
}

// SaveOrder writes back mutated fill state.
func (s *Storage) SaveOrder(o *domain.Order) error {
	return s.db.Save(o).Error
}

// GetOrderByExternalID retrieves an order owned by userID.
// Foreign orders are indistinguishable from missing ones.
func (s *Storage) GetOrderByExternalID(userID uint, externalID string) (*domain.Order, error) {
	var order domain.Order
	err := s.db.First(&order, "external_id = ? AND user_id = ?", externalID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

// ListOrdersByUser returns all orders of a user, newest first.
func (s *Storage) ListOrdersByUser(userID uint) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.db.Where("user_id = ?", userID).
		Order("created_at desc, id desc").Find(&orders).Error
	return orders, err
}

// RestingOrders returns NEW/PARTIAL limit orders on one side of an
// instrument's book in matching priority order: best price first (descending
// for buys, ascending for sells), ties broken by earlier creation. Market
// orders never rest, so the book holds priced orders only. excludeID keeps
// the order currently being matched out of its own scan.
func (s *Storage) RestingOrders(instrumentID uint, side string, excludeID uint, limit int) ([]domain.Order, error) {
	priceOrder := "price asc"
	if side == domain.SideBuy {
		priceOrder = "price desc"
	}

	q := s.db.Where(
		"instrument_id = ? AND side = ? AND status IN ? AND type = ?",
		instrumentID, side,
		[]string{domain.OrderStatusNew, domain.OrderStatusPartial},
		domain.OrderTypeLimit,
	)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var orders []domain.Order
	err := q.Order(priceOrder + ", created_at asc, id asc").Find(&orders).Error
	return orders, err
}

// ======================================================================================
// Trade Operations
// ======================================================================================

// CreateTrade appends a trade record. Trades are never mutated or deleted.
func (s *Storage) CreateTrade(t *domain.Trade) error {
	return s.db.Create(t).Error
}

// RecentTrades returns the latest trades for an instrument, newest first.
func (s *Storage) RecentTrades(instrumentID uint, limit int) ([]domain.Trade, error) {
	var trades []domain.Trade
	err := s.db.Where("instrument_id = ?", instrumentID).
		Order("timestamp desc, id desc").Limit(limit).Find(&trades).Error
	return trades, err
}

// TradesInWindow returns trades within [start, end], oldest first.
// Used by candle aggregation.
func (s *Storage) TradesInWindow(instrumentID uint, start, end time.Time, limit int) ([]domain.Trade, error) {
	var trades []domain.Trade
	err := s.db.Where(
		"instrument_id = ? AND timestamp >= ? AND timestamp <= ?",
		instrumentID, start, end,
	).Order("timestamp asc, id asc").Limit(limit).Find(&trades).Error
	return trades, err
}
