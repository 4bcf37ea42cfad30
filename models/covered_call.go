package models

import "time"

// CoveredCall holds the strategy metrics of a short call against a long
// underlying. All values are per unit of the underlying.
type CoveredCall struct {
	MaxPotProfit  float64 `json:"max_pot_profit"`
	MaxPotLoss    float64 `json:"max_pot_loss"`
	BreakEven     float64 `json:"break_even"`
	CurrentProfit float64 `json:"current_profit"`
}

// Scaled returns a copy with the money metrics multiplied by contractSize.
// BreakEven is an underlying price and stays as is.
func (c CoveredCall) Scaled(contractSize float64) CoveredCall {
	return CoveredCall{
		MaxPotProfit:  c.MaxPotProfit * contractSize,
		MaxPotLoss:    c.MaxPotLoss * contractSize,
		BreakEven:     c.BreakEven,
		CurrentProfit: c.CurrentProfit * contractSize,
	}
}

/////////////////////////////////////////////////////////////////////////////
///////////////////////////////// PIPELINE //////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// Pair is one call option matched with its underlying, as read from a quote snapshot.
type Pair struct {
	Call       Option
	Underlying UnderlyingAsset
	Timestamp  time.Time
}

// Evaluation is the covered call computed for a Pair, flattened for storage.
type Evaluation struct {
	InsCode      string      `json:"ins_code"`
	Symbol       string      `json:"symbol"`
	Underlying   string      `json:"underlying"`
	OptionType   OptionType  `json:"option_type"`
	Strike       float64     `json:"strike"`
	ContractSize float64     `json:"contract_size"`
	Result       CoveredCall `json:"result"`
	Timestamp    time.Time   `json:"timestamp"`
}

// EvaluationBatch groups evaluations written together.
type EvaluationBatch struct {
	BatchID     string       `json:"batch_id"`
	Evaluations []Evaluation `json:"evaluations"`
	RecordCount int          `json:"record_count"`
	Timestamp   time.Time    `json:"timestamp"`
	ProcessedAt time.Time    `json:"processed_at"`
}
