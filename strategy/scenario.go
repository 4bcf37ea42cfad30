package strategy

import "optionflow/models"

// Scenario is the covered call P&L at one settlement price.
type Scenario struct {
	Settlement    float64 `json:"settlement"`
	CallLeg       float64 `json:"call_leg"`
	UnderlyingLeg float64 `json:"underlying_leg"`
	Total         float64 `json:"total"`
}

// Scenarios marks both legs at each price: the call as a short position and
// the underlying against its net acquisition price.
func Scenarios(call models.Option, ua models.UnderlyingAsset, prices []float64) []Scenario {
	out := make([]Scenario, 0, len(prices))
	cost := ua.NetAskPrice()
	for _, st := range prices {
		callLeg := call.Profit(st, models.Short)
		underlyingLeg := st - cost
		out = append(out, Scenario{
			Settlement:    st,
			CallLeg:       callLeg,
			UnderlyingLeg: underlyingLeg,
			Total:         callLeg + underlyingLeg,
		})
	}
	return out
}

// PriceGrid returns steps evenly spaced prices from from to to inclusive.
// Fewer than two steps yields just from.
func PriceGrid(from, to float64, steps int) []float64 {
	if steps < 2 {
		return []float64{from}
	}
	grid := make([]float64, steps)
	step := (to - from) / float64(steps-1)
	for i := range grid {
		grid[i] = from + step*float64(i)
	}
	grid[steps-1] = to
	return grid
}
