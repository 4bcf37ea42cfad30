package models

import (
	"math"
	"testing"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) <= eps
}

func sampleCall() Option {
	return Option{
		OptionType: Call,
		K:          100,
		BidPrice:   5,
		AskPrice:   5.5,
		Commission: Commission{Long: 0.01, Short: 0.01},
	}
}

func TestNetPricesAtZeroCommission(t *testing.T) {
	o := Option{BidPrice: 4.2, AskPrice: 4.9}
	if o.NetBidPrice() != o.BidPrice {
		t.Fatalf("net bid %v != bid %v", o.NetBidPrice(), o.BidPrice)
	}
	// NetAskPrice reads the bid quote.
	if o.NetAskPrice() != o.BidPrice {
		t.Fatalf("net ask %v != bid %v", o.NetAskPrice(), o.BidPrice)
	}
	u := UnderlyingAsset{BidPrice: 50, AskPrice: 51}
	if u.NetAskPrice() != u.BidPrice {
		t.Fatalf("underlying net ask %v != bid %v", u.NetAskPrice(), u.BidPrice)
	}
}

func TestNetPricesWithCommission(t *testing.T) {
	o := sampleCall()
	if !approx(o.NetBidPrice(), 5.05) {
		t.Errorf("net bid = %v, want 5.05", o.NetBidPrice())
	}
	if !approx(o.NetAskPrice(), 4.95) {
		t.Errorf("net ask = %v, want 4.95", o.NetAskPrice())
	}
	u := UnderlyingAsset{BidPrice: 102, AskPrice: 102.5, Commission: Commission{Long: 0.01, Short: 0.01}}
	if !approx(u.NetAskPrice(), 100.98) {
		t.Errorf("underlying net ask = %v, want 100.98", u.NetAskPrice())
	}
}

func TestProfitLongCallSlopeAboveStrike(t *testing.T) {
	o := sampleCall()
	base := o.Profit(o.K, Long)
	if !approx(base, -o.NetBidPrice()) {
		t.Fatalf("profit at strike = %v, want %v", base, -o.NetBidPrice())
	}
	for _, x := range []float64{0, 0.5, 1, 10, 250} {
		if got := o.Profit(o.K+x, Long) - base; !approx(got, x) {
			t.Errorf("profit(k+%v)-profit(k) = %v, want %v", x, got, x)
		}
	}
	for _, st := range []float64{0, 50, 99.99} {
		if got := o.Profit(st, Long); !approx(got, base) {
			t.Errorf("profit(%v) = %v, want flat %v below strike", st, got, base)
		}
	}
}

func TestProfitPutKink(t *testing.T) {
	o := sampleCall()
	o.OptionType = Put
	base := o.Profit(o.K, Long)
	if got := o.Profit(o.K-3, Long) - base; !approx(got, 3) {
		t.Errorf("put long slope below strike = %v, want 3", got)
	}
	if got := o.Profit(o.K+3, Long) - base; !approx(got, 0) {
		t.Errorf("put long above strike moved by %v", got)
	}
	short := o.Profit(o.K-3, Short)
	if want := -3 + 5.5*(1-0.01); !approx(short, want) {
		t.Errorf("put short = %v, want %v", short, want)
	}
}

func TestProfitShortUsesAskAndShortCommission(t *testing.T) {
	o := Option{
		OptionType: Call,
		K:          100,
		BidPrice:   5,
		AskPrice:   6,
		Commission: Commission{Long: 0.02, Short: 0.03},
	}
	tests := []struct {
		st   float64
		want float64
	}{
		{90, 6 * (1 - 0.03)},
		{100, 6 * (1 - 0.03)},
		{104, -4 + 6*(1-0.03)},
	}
	for _, tt := range tests {
		if got := o.Profit(tt.st, Short); !approx(got, tt.want) {
			t.Errorf("Profit(%v, Short) = %v, want %v", tt.st, got, tt.want)
		}
	}
	// With unequal commissions and quotes short is not the negated long.
	if long, short := o.Profit(104, Long), o.Profit(104, Short); approx(long, -short) {
		t.Errorf("expected asymmetry, got long %v short %v", long, short)
	}
}

func TestProfitPropagatesNaN(t *testing.T) {
	o := sampleCall()
	if !math.IsNaN(o.Profit(math.NaN(), Short)) {
		t.Fatalf("expected NaN to propagate")
	}
	if !math.IsInf(o.Profit(math.Inf(1), Long), 1) {
		t.Fatalf("expected +Inf to propagate")
	}
}

func TestScaled(t *testing.T) {
	c := CoveredCall{MaxPotProfit: 1, MaxPotLoss: -2, BreakEven: 3, CurrentProfit: 0.5}
	got := c.Scaled(100)
	want := CoveredCall{MaxPotProfit: 100, MaxPotLoss: -200, BreakEven: 3, CurrentProfit: 50}
	if got != want {
		t.Fatalf("Scaled = %+v, want %+v", got, want)
	}

	if be := (CoveredCall{BreakEven: 95.93}).Scaled(100).BreakEven; be != 95.93 {
		t.Fatalf("BreakEven scaled to %v, want 95.93", be)
	}
}
