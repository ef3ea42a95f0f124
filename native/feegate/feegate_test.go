package feegate

import (
	"errors"
	"math/big"
	"testing"

	"chainsphere/oracle"
)

func newTestGate(price int64, decimals uint8) *Gate {
	feed := oracle.NewStaticFeed(big.NewInt(price), decimals, 1700000000)
	return NewGate(feed)
}

func TestFromCents(t *testing.T) {
	half := FromCents(50)
	want, _ := new(big.Int).SetString("500000000000000000", 10)
	if half.Cmp(want) != 0 {
		t.Fatalf("expected 50 cents = %s, got %s", want, half)
	}
	if FromCents(0).Sign() != 0 {
		t.Fatal("expected zero cents to quote zero")
	}
}

func TestQuoteConversion(t *testing.T) {
	// 2500 USD per native token, 8 feed decimals.
	gate := newTestGate(250000000000, 8)

	native, err := gate.Quote(FromCents(50))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// 0.50 USD at 2500 USD/native is 2e14 wei-scale units.
	want := big.NewInt(200000000000000)
	if native.Cmp(want) != 0 {
		t.Fatalf("expected %s, got %s", want, native)
	}

	doubled, err := gate.Quote(FromCents(100))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if doubled.Cmp(new(big.Int).Mul(want, big.NewInt(2))) != 0 {
		t.Fatalf("expected linear scaling, got %s", doubled)
	}
}

func TestQuoteZeroFee(t *testing.T) {
	gate := newTestGate(250000000000, 8)
	native, err := gate.Quote(nil)
	if err != nil || native.Sign() != 0 {
		t.Fatalf("expected free quote, got %s %v", native, err)
	}
}

func TestQuoteUnavailablePrice(t *testing.T) {
	gate := NewGate(oracle.NewStaticFeed(big.NewInt(0), 8, 0))
	if _, err := gate.Quote(FromCents(50)); !errors.Is(err, oracle.ErrNoPrice) {
		t.Fatalf("expected ErrNoPrice, got %v", err)
	}
}

func TestQuoteTracksFeedUpdates(t *testing.T) {
	feed := oracle.NewStaticFeed(big.NewInt(250000000000), 8, 0)
	gate := NewGate(feed)
	before, err := gate.Quote(FromCents(100))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// Price doubles, so the native fee halves on the next read.
	feed.SetPrice(big.NewInt(500000000000), 8, 1)
	after, err := gate.Quote(FromCents(100))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if after.Cmp(new(big.Int).Quo(before, big.NewInt(2))) != 0 {
		t.Fatalf("expected halved quote, got %s (was %s)", after, before)
	}
}

func TestAuthorizeBoundary(t *testing.T) {
	gate := newTestGate(250000000000, 8)
	usdFee := FromCents(50)
	required, err := gate.Quote(usdFee)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	// One unit short is rejected.
	short := new(big.Int).Sub(required, big.NewInt(1))
	if _, err := gate.Authorize(short, usdFee); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got %v", err)
	}
	if _, err := gate.Authorize(nil, usdFee); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment for nil payment, got %v", err)
	}

	// Exact and overpaid amounts both pass, returning the required amount.
	got, err := gate.Authorize(required, usdFee)
	if err != nil || got.Cmp(required) != 0 {
		t.Fatalf("exact payment rejected: %s %v", got, err)
	}
	over := new(big.Int).Mul(required, big.NewInt(3))
	got, err = gate.Authorize(over, usdFee)
	if err != nil || got.Cmp(required) != 0 {
		t.Fatalf("overpayment rejected: %s %v", got, err)
	}
}
