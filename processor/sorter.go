package processor

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"optionflow/models"
)

var ErrUnknownRankKey = errors.New("unknown rank key")

const (
	RankMaxPotProfit  = "max_pot_profit"
	RankCurrentProfit = "current_profit"
	RankBreakEven     = "break_even"
)

// RankKeys lists the accepted values for Rank's by argument.
var RankKeys = []string{RankMaxPotProfit, RankCurrentProfit, RankBreakEven}

// Rank returns a sorted copy of evals. Profits sort descending, break-even
// ascending. NaN values sort last and ties are broken by symbol.
func Rank(evals []models.Evaluation, by string) ([]models.Evaluation, error) {
	var (
		value     func(models.Evaluation) float64
		ascending bool
	)
	switch by {
	case RankMaxPotProfit:
		value = func(e models.Evaluation) float64 { return e.Result.MaxPotProfit }
	case RankCurrentProfit:
		value = func(e models.Evaluation) float64 { return e.Result.CurrentProfit }
	case RankBreakEven:
		value = func(e models.Evaluation) float64 { return e.Result.BreakEven }
		ascending = true
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRankKey, by)
	}

	ranked := make([]models.Evaluation, len(evals))
	copy(ranked, evals)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := value(ranked[i]), value(ranked[j])

		// NaN last
		if math.IsNaN(a) || math.IsNaN(b) {
			if math.IsNaN(a) && math.IsNaN(b) {
				return ranked[i].Symbol < ranked[j].Symbol
			}
			return !math.IsNaN(a)
		}

		if a != b {
			if ascending {
				return a < b
			}
			return a > b
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})

	return ranked, nil
}

// Flatten concatenates the evaluations of every batch.
func Flatten(batches []models.EvaluationBatch) []models.Evaluation {
	n := 0
	for _, b := range batches {
		n += len(b.Evaluations)
	}
	out := make([]models.Evaluation, 0, n)
	for _, b := range batches {
		out = append(out, b.Evaluations...)
	}
	return out
}
