package oracle

import (
	"errors"
	"math/big"
	"sync"
)

// ErrNoPrice is returned when a feed has no observation to serve.
var ErrNoPrice = errors.New("oracle: no price available")

// PriceQuote is a single native/USD observation. Price carries the feed's own
// decimal precision; consumers must scale with Decimals rather than assume a
// fixed exponent.
type PriceQuote struct {
	Price     *big.Int `json:"price"`
	Decimals  uint8    `json:"decimals"`
	UpdatedAt int64    `json:"updatedAt"`
}

// Clone returns a deep copy of the quote.
func (q PriceQuote) Clone() PriceQuote {
	clone := q
	if q.Price != nil {
		clone.Price = new(big.Int).Set(q.Price)
	}
	return clone
}

// PriceFeed is the read-only contract against the external price oracle.
// Every call is a live read; the feed may serve stale data and staleness
// checking is the consumer's concern.
type PriceFeed interface {
	LatestPrice() (PriceQuote, error)
}

// StaticFeed serves a fixed, settable quote. The daemon uses it in dev mode
// and tests use it to pin conversion math.
type StaticFeed struct {
	mu    sync.RWMutex
	quote PriceQuote
}

// NewStaticFeed constructs a feed pinned to the supplied price.
func NewStaticFeed(price *big.Int, decimals uint8, updatedAt int64) *StaticFeed {
	feed := &StaticFeed{}
	feed.SetPrice(price, decimals, updatedAt)
	return feed
}

// SetPrice replaces the served quote.
func (f *StaticFeed) SetPrice(price *big.Int, decimals uint8, updatedAt int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quote = PriceQuote{Decimals: decimals, UpdatedAt: updatedAt}
	if price != nil {
		f.quote.Price = new(big.Int).Set(price)
	}
}

// LatestPrice implements the PriceFeed interface.
func (f *StaticFeed) LatestPrice() (PriceQuote, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.quote.Price == nil || f.quote.Price.Sign() <= 0 {
		return PriceQuote{}, ErrNoPrice
	}
	return f.quote.Clone(), nil
}
