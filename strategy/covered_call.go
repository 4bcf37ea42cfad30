// Package strategy combines option and underlying legs into strategy metrics.
package strategy

import "optionflow/models"

// CoveredCall evaluates selling call against holding ua. Every field is
// derived from the two inputs independently of the others.
func CoveredCall(call models.Option, ua models.UnderlyingAsset) models.CoveredCall {
	maxPotProfit := call.K - ua.NetAskPrice() + call.NetBidPrice()
	maxPotLoss := call.NetBidPrice() - ua.NetAskPrice()
	breakEven := ua.NetAskPrice() - call.NetBidPrice()
	currentProfit := call.Profit(ua.NetAskPrice(), models.Short)

	return models.CoveredCall{
		MaxPotProfit:  maxPotProfit,
		MaxPotLoss:    maxPotLoss,
		BreakEven:     breakEven,
		CurrentProfit: currentProfit,
	}
}

// Evaluate runs CoveredCall on a pair and flattens the result.
func Evaluate(p models.Pair) models.Evaluation {
	return models.Evaluation{
		InsCode:      p.Call.InsCode,
		Symbol:       p.Call.Symbol,
		Underlying:   p.Underlying.Symbol,
		OptionType:   p.Call.OptionType,
		Strike:       p.Call.K,
		ContractSize: p.Call.ContractSize,
		Result:       CoveredCall(p.Call, p.Underlying),
		Timestamp:    p.Timestamp,
	}
}
