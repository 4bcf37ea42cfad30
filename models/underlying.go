package models

// UnderlyingAsset is the quoted state of the instrument an option is written on.
type UnderlyingAsset struct {
	InsCode    string     `json:"ins_code" yaml:"ins_code"`
	Symbol     string     `json:"symbol" yaml:"symbol"`
	AskPrice   float64    `json:"ask_price" yaml:"ask_price"`
	AskVol     float64    `json:"ask_vol" yaml:"ask_vol"`
	BidPrice   float64    `json:"bid_price" yaml:"bid_price"`
	BidVol     float64    `json:"bid_vol" yaml:"bid_vol"`
	Commission Commission `json:"commission" yaml:"commission"`
}

// NetAskPrice is the bid quote reduced by the short-side commission. Like
// Option.NetAskPrice it reads BidPrice.
func (u UnderlyingAsset) NetAskPrice() float64 {
	return u.BidPrice * (1 - u.Commission.Short)
}
