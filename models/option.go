package models

import "math"

// Option is the quoted state of a single option contract. Identity fields,
// the validity window, ContractSize and T are informational; the price and
// profit formulas read only K, the quotes and the commission.
type Option struct {
	InsCode      string     `json:"ins_code" yaml:"ins_code"`
	Name         string     `json:"name" yaml:"name"`
	Symbol       string     `json:"symbol" yaml:"symbol"`
	Underlying   string     `json:"underlying" yaml:"underlying"`
	OptionType   OptionType `json:"option_type" yaml:"option_type"`
	BeginDate    string     `json:"begin_date" yaml:"begin_date"`
	EndDate      string     `json:"end_date" yaml:"end_date"`
	ContractSize float64    `json:"contract_size" yaml:"contract_size"`
	K            float64    `json:"k" yaml:"k"`
	T            float64    `json:"t" yaml:"t"`
	BidPrice     float64    `json:"bid_price" yaml:"bid_price"`
	BidVol       float64    `json:"bid_vol" yaml:"bid_vol"`
	AskPrice     float64    `json:"ask_price" yaml:"ask_price"`
	AskVol       float64    `json:"ask_vol" yaml:"ask_vol"`
	Commission   Commission `json:"commission" yaml:"commission"`
}

// NetBidPrice is the bid quote surcharged with the long-side commission.
func (o Option) NetBidPrice() float64 {
	return o.BidPrice * (1 + o.Commission.Long)
}

// NetAskPrice is the bid quote reduced by the short-side commission.
// It reads BidPrice, not AskPrice; callers depend on that.
func (o Option) NetAskPrice() float64 {
	return o.BidPrice * (1 - o.Commission.Short)
}

// Intrinsic is the payoff of the option at settlement price st before premium.
func (o Option) Intrinsic(st float64) float64 {
	distance := st - o.K
	if o.OptionType == Put {
		return math.Max(-distance, 0)
	}
	return math.Max(distance, 0)
}

// Profit is the scenario profit at settlement price st for the given side.
// A long holder pays the net bid premium and collects the intrinsic value;
// a short holder receives the ask premium net of the short commission and
// pays the intrinsic value out.
func (o Option) Profit(st float64, position Position) float64 {
	intrinsic := o.Intrinsic(st)
	if position == Short {
		netPremium := o.AskPrice * (1 - o.Commission.Short)
		return -intrinsic + netPremium
	}
	return intrinsic - o.NetBidPrice()
}
