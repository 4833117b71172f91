package service

import (
	"fmt"
	"sort"
	"time"

	"exchange_go/internal/domain"
	"exchange_go/internal/infra/storage"

	"github.com/shopspring/decimal"
)

// maxCandleTrades bounds how much trade history one candle query may scan.
const maxCandleTrades = 10000

// Candle is one OHLCV bucket over trade history.
type Candle struct {
	Timestamp time.Time       `json:"ts"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// CandleService aggregates trades into time buckets. This is a pure
// reporting query; it never touches order or balance state.
type CandleService struct {
	store *storage.Storage
}

// NewCandleService creates a new candle service.
func NewCandleService(store *storage.Storage) *CandleService {
	return &CandleService{store: store}
}

// Candles buckets an instrument's trades in [start, end] into intervalMin-
// minute candles, oldest bucket first. Empty buckets are omitted.
func (c *CandleService) Candles(symbol string, intervalMin int, start, end time.Time) ([]Candle, error) {
	if intervalMin < 1 {
		return nil, domain.NewValidationError("interval", "must be at least 1 minute")
	}
	if end.Before(start) {
		return nil, domain.NewValidationError("window", "end before start")
	}

	inst, err := c.store.GetInstrumentBySymbol(symbol)
	if err != nil {
		return nil, fmt.Errorf("instrument lookup: %w", err)
	}
	if inst == nil {
		return nil, domain.ErrInstrumentNotFound
	}

	trades, err := c.store.TradesInWindow(inst.ID, start, end, maxCandleTrades)
	if err != nil {
		return nil, fmt.Errorf("trade history: %w", err)
	}

	buckets := make(map[time.Time][]domain.Trade)
	for _, t := range trades {
		buckets[bucketStart(t.Timestamp, intervalMin)] = append(buckets[bucketStart(t.Timestamp, intervalMin)], t)
	}

	keys := make([]time.Time, 0, len(buckets))
	for ts := range buckets {
		keys = append(keys, ts)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	candles := make([]Candle, 0, len(keys))
	for _, ts := range keys {
		bucket := buckets[ts] // trades arrive oldest-first from storage
		candle := Candle{
			Timestamp: ts,
			Open:      bucket[0].Price,
			High:      bucket[0].Price,
			Low:       bucket[0].Price,
			Close:     bucket[len(bucket)-1].Price,
			Volume:    decimal.Zero,
		}
		for _, t := range bucket {
			if t.Price.GreaterThan(candle.High) {
				candle.High = t.Price
			}
			if t.Price.LessThan(candle.Low) {
				candle.Low = t.Price
			}
			candle.Volume = candle.Volume.Add(t.Quantity)
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// bucketStart floors ts to its interval boundary within the hour.
func bucketStart(ts time.Time, intervalMin int) time.Time {
	truncated := ts.Truncate(time.Minute)
	minutes := (truncated.Minute() / intervalMin) * intervalMin
	return time.Date(truncated.Year(), truncated.Month(), truncated.Day(),
		truncated.Hour(), minutes, 0, 0, truncated.Location())
}
