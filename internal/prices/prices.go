// Package prices provides the market price source: a reference table of
// demo stocks and a random-walk ticker that publishes updates.
package prices

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/user/papertrade/internal/models"
)

// referencePrices are the demo instruments and their base prices.
var referencePrices = map[string]decimal.Decimal{
	"AAPL": decimal.RequireFromString("174.79"),
	"MSFT": decimal.RequireFromString("416.38"),
	"NVDA": decimal.RequireFromString("950.02"),
	"AMZN": decimal.RequireFromString("178.25"),
	"TSLA": decimal.RequireFromString("177.56"),
	"GOOG": decimal.RequireFromString("170.63"),
	"META": decimal.RequireFromString("480.28"),
	"AMD":  decimal.RequireFromString("147.41"),
}

// Reference returns the base price for a known ticker. Unknown tickers are
// an error, not a random price.
func Reference(ticker string) (decimal.Decimal, error) {
	price, ok := referencePrices[ticker]
	if !ok {
		return decimal.Zero, models.ErrUnknownTicker
	}
	return price, nil
}

// Symbols returns the tracked tickers.
func Symbols() []string {
	out := make([]string, 0, len(referencePrices))
	for ticker := range referencePrices {
		out = append(out, ticker)
	}
	return out
}

// Update is a single price update for a symbol.
type Update struct {
	Ticker string          `json:"ticker"`
	Price  decimal.Decimal `json:"price"`
	Ts     int64           `json:"ts"` // Unix timestamp milliseconds
}

// Source tracks current prices and broadcasts updates while running. Prices
// drift by at most ±0.5% per tick around the reference table.
type Source struct {
	mu      sync.RWMutex
	current map[string]decimal.Decimal
	updates chan Update
	log     *zap.Logger
}

// NewSource seeds a source from the reference table.
func NewSource(log *zap.Logger) *Source {
	current := make(map[string]decimal.Decimal, len(referencePrices))
	for ticker, price := range referencePrices {
		current[ticker] = price
	}
	return &Source{
		current: current,
		updates: make(chan Update, 100),
		log:     log,
	}
}

// Price returns the current price for a ticker.
func (s *Source) Price(ticker string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.current[ticker]
	if !ok {
		return decimal.Zero, models.ErrUnknownTicker
	}
	return price, nil
}

// Snapshot returns a copy of all current prices.
func (s *Source) Snapshot() map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(s.current))
	for ticker, price := range s.current {
		out[ticker] = price
	}
	return out
}

// Updates is the stream of broadcast price changes.
func (s *Source) Updates() <-chan Update {
	return s.updates
}

// Run drifts prices every interval until ctx is cancelled.
func (s *Source) Run(ctx context.Context, interval time.Duration) {
	s.log.Info("price source started", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("price source stopped")
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Source) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	for ticker, price := range s.current {
		// ±0.5% move, quantized to cents.
		drift := decimal.NewFromFloat((rand.Float64() - 0.5) / 100)
		next := price.Mul(decimal.NewFromInt(1).Add(drift)).Round(2)
		if !next.IsPositive() {
			next = price
		}
		s.current[ticker] = next

		update := Update{Ticker: ticker, Price: next, Ts: now}
		select {
		case s.updates <- update:
		default:
			s.log.Warn("price update channel full, dropping update",
				zap.String("ticker", ticker))
		}
	}
}
