package feegate

import (
	"errors"
	"fmt"
	"math/big"

	"chainsphere/oracle"
)

var (
	errFeedNotSet = errors.New("feegate: price feed not configured")
	// ErrInvalidPrice is returned when the oracle serves a non-positive rate.
	ErrInvalidPrice = errors.New("feegate: invalid oracle price")
	// ErrInsufficientPayment is returned when the attached payment does not
	// cover the quoted native amount.
	ErrInsufficientPayment = errors.New("feegate: insufficient payment")
)

// usdScale is the fixed-point scale for USD-denominated fees: 1 USD = 1e18.
var usdScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// FromCents converts a whole number of US cents into the 1e18 USD scale used
// by Quote and Authorize.
func FromCents(cents uint64) *big.Int {
	value := new(big.Int).SetUint64(cents)
	value.Mul(value, usdScale)
	return value.Div(value, big.NewInt(100))
}

// Gate converts USD-denominated fees into native amounts via a live price
// feed and validates attached payments against the result.
type Gate struct {
	feed oracle.PriceFeed
}

// NewGate constructs a gate backed by the supplied feed.
func NewGate(feed oracle.PriceFeed) *Gate {
	return &Gate{feed: feed}
}

// Quote converts a USD fee (1e18 scale) into the native amount currently
// required. Every call performs a fresh oracle read, so two quotes for the
// same nominal fee can differ.
func (g *Gate) Quote(usdFee *big.Int) (*big.Int, error) {
	if g == nil || g.feed == nil {
		return nil, errFeedNotSet
	}
	if usdFee == nil || usdFee.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	quote, err := g.feed.LatestPrice()
	if err != nil {
		return nil, err
	}
	if quote.Price == nil || quote.Price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	// native = usdFee * 10^decimals / price, preserving the feed's own
	// precision: a price of 2500 USD/native with 8 decimals is stored as
	// 2500e8, so the exponent cancels against the USD scale.
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(quote.Decimals)), nil)
	native := new(big.Int).Mul(usdFee, scale)
	return native.Quo(native, quote.Price), nil
}

// Authorize validates an attached payment against the USD fee and returns the
// native amount that was required. Amounts at or above the quote pass; the
// excess is the payer's loss (the fee is a minimum, with no refund path).
func (g *Gate) Authorize(paid *big.Int, usdFee *big.Int) (*big.Int, error) {
	required, err := g.Quote(usdFee)
	if err != nil {
		return nil, err
	}
	if required.Sign() == 0 {
		return required, nil
	}
	if paid == nil || paid.Cmp(required) < 0 {
		paidStr := "0"
		if paid != nil {
			paidStr = paid.String()
		}
		return nil, fmt.Errorf("%w: required %s, paid %s", ErrInsufficientPayment, required, paidStr)
	}
	return required, nil
}
