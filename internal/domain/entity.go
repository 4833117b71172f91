package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a registered exchange participant.
// ExternalID is the identity exposed over the API; ID stays internal.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	ExternalID string    `gorm:"uniqueIndex;not null" json:"id"`
	Username   string    `gorm:"uniqueIndex;not null" json:"name"`
	Token      string    `gorm:"uniqueIndex" json:"-"`
	IsAdmin    bool      `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// Instrument is a tradable asset. Immutable after creation except for
// IsListed, which only ever flips true -> false (delisting).
type Instrument struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Symbol    string    `gorm:"uniqueIndex;not null" json:"ticker"`
	Name      string    `gorm:"not null" json:"name"`
	IsListed  bool      `gorm:"index" json:"-"`
	CreatedAt time.Time `json:"-"`
}

// Balance holds the quantity of one instrument owned by one user.
// Exactly one row per (user, instrument) pair ever touched; a missing row
// means zero. Amounts may go negative: debits apply without a sufficiency
// check.
type Balance struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	UserID       uint            `gorm:"uniqueIndex:idx_balance_owner;not null" json:"-"`
	InstrumentID uint            `gorm:"uniqueIndex:idx_balance_owner;not null" json:"-"`
	Amount       decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
}

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	OrderTypeLimit  = "LIMIT"
	OrderTypeMarket = "MARKET"

	OrderStatusNew      = "NEW"
	OrderStatusPartial  = "PARTIAL"
	OrderStatusFilled   = "FILLED"
	OrderStatusCanceled = "CANCELED"
)

// Order is a buy or sell instruction. Side/Type/Price/Quantity/UserID/
// InstrumentID are immutable after creation; only Filled and Status mutate,
// and only through the matching engine or an explicit cancel.
type Order struct {
	ID           uint                `gorm:"primaryKey" json:"-"`
	ExternalID   string              `gorm:"uniqueIndex;not null" json:"id"`
	UserID       uint                `gorm:"index;not null" json:"-"`
	InstrumentID uint                `gorm:"index;not null" json:"-"`
	Side         string              `gorm:"not null" json:"side"`
	Type         string              `gorm:"not null" json:"type"`
	Price        decimal.NullDecimal `gorm:"type:numeric" json:"price"` // set iff Type == LIMIT
	Quantity     decimal.Decimal     `gorm:"type:numeric;not null" json:"quantity"`
	Filled       decimal.Decimal     `gorm:"type:numeric;not null" json:"filled"`
	Status       string              `gorm:"index;not null" json:"status"`
	CreatedAt    time.Time           `gorm:"index" json:"created_at"`
}

// Trade records one execution between a buy and a sell order. Append-only.
type Trade struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	BuyOrderID   uint            `gorm:"index;not null" json:"-"`
	SellOrderID  uint            `gorm:"index;not null" json:"-"`
	InstrumentID uint            `gorm:"index;not null" json:"-"`
	Price        decimal.Decimal `gorm:"type:numeric;not null" json:"price"`
	Quantity     decimal.Decimal `gorm:"type:numeric;not null" json:"quantity"`
	Timestamp    time.Time       `gorm:"index" json:"timestamp"`
}
