package reader

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"

	appconfig "optionflow/config"
	"optionflow/internal/symbols"
	"optionflow/models"
)

var (
	ErrInvalidQuote       = errors.New("invalid quote")
	ErrUnderlyingNotFound = errors.New("underlying not found")
)

// UnderlyingQuote is an underlying as it appears in a snapshot file. A nil
// Commission falls back to the configured default.
type UnderlyingQuote struct {
	InsCode    string             `yaml:"ins_code"`
	Symbol     string             `yaml:"symbol"`
	AskPrice   float64            `yaml:"ask_price"`
	AskVol     float64            `yaml:"ask_vol"`
	BidPrice   float64            `yaml:"bid_price"`
	BidVol     float64            `yaml:"bid_vol"`
	Commission *models.Commission `yaml:"commission"`
}

// OptionQuote is an option contract as it appears in a snapshot file.
type OptionQuote struct {
	InsCode      string             `yaml:"ins_code"`
	Name         string             `yaml:"name"`
	Symbol       string             `yaml:"symbol"`
	Underlying   string             `yaml:"underlying"`
	OptionType   models.OptionType  `yaml:"option_type"`
	BeginDate    string             `yaml:"begin_date"`
	EndDate      string             `yaml:"end_date"`
	ContractSize float64            `yaml:"contract_size"`
	K            float64            `yaml:"k"`
	T            float64            `yaml:"t"`
	BidPrice     float64            `yaml:"bid_price"`
	BidVol       float64            `yaml:"bid_vol"`
	AskPrice     float64            `yaml:"ask_price"`
	AskVol       float64            `yaml:"ask_vol"`
	Commission   *models.Commission `yaml:"commission"`
}

// Snapshot is one market-data snapshot: every quoted underlying and option.
type Snapshot struct {
	TakenAt     time.Time         `yaml:"taken_at"`
	Underlyings []UnderlyingQuote `yaml:"underlyings"`
	Options     []OptionQuote     `yaml:"options"`
}

// DecodeSnapshot parses a YAML or JSON snapshot document.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &s, nil
}

func commissionOrDefault(c *models.Commission, def appconfig.CommissionConfig) models.Commission {
	if c != nil {
		return *c
	}
	return models.Commission{Long: def.Long, Short: def.Short}
}

func (q UnderlyingQuote) toModel(def appconfig.CommissionConfig) models.UnderlyingAsset {
	return models.UnderlyingAsset{
		InsCode:    q.InsCode,
		Symbol:     q.Symbol,
		AskPrice:   q.AskPrice,
		AskVol:     q.AskVol,
		BidPrice:   q.BidPrice,
		BidVol:     q.BidVol,
		Commission: commissionOrDefault(q.Commission, def),
	}
}

func (q OptionQuote) toModel(def appconfig.CommissionConfig) models.Option {
	return models.Option{
		InsCode:      q.InsCode,
		Name:         q.Name,
		Symbol:       q.Symbol,
		Underlying:   q.Underlying,
		OptionType:   q.OptionType,
		BeginDate:    q.BeginDate,
		EndDate:      q.EndDate,
		ContractSize: q.ContractSize,
		K:            q.K,
		T:            q.T,
		BidPrice:     q.BidPrice,
		BidVol:       q.BidVol,
		AskPrice:     q.AskPrice,
		AskVol:       q.AskVol,
		Commission:   commissionOrDefault(q.Commission, def),
	}
}

// Pairs matches every call with its underlying by normalized symbol. Puts are
// ignored and options without a type are rejected. When universe is non-empty only its underlyings are paired.
// Options that cannot be paired or fail validation are returned as errors
// and left out of the result.
func (s *Snapshot) Pairs(def appconfig.CommissionConfig, v appconfig.ValidationConfig, universe map[string]struct{}) ([]models.Pair, []error) {
	underlyings := make(map[string]models.UnderlyingAsset, len(s.Underlyings))
	var errs []error
	for _, q := range s.Underlyings {
		ua := q.toModel(def)
		if v.EnablePriceValidation {
			if err := ValidateQuote(ua.Symbol, ua.BidPrice, ua.AskPrice, v.MaxSpreadPercentage); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		underlyings[symbols.Normalize(ua.Symbol)] = ua
	}

	ts := s.TakenAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	pairs := make([]models.Pair, 0, len(s.Options))
	for _, q := range s.Options {
		if q.OptionType == 0 {
			errs = append(errs, fmt.Errorf("option %s: %w: missing option_type", q.Symbol, ErrInvalidQuote))
			continue
		}
		if q.OptionType != models.Call {
			continue
		}
		key := symbols.Normalize(q.Underlying)
		if len(universe) > 0 {
			if _, ok := universe[key]; !ok {
				continue
			}
		}
		call := q.toModel(def)
		if v.EnablePriceValidation {
			if err := ValidateOption(call, v.MaxSpreadPercentage); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		ua, ok := underlyings[key]
		if !ok {
			errs = append(errs, fmt.Errorf("option %s: %w: %q", call.Symbol, ErrUnderlyingNotFound, q.Underlying))
			continue
		}
		pairs = append(pairs, models.Pair{Call: call, Underlying: ua, Timestamp: ts})
	}
	return pairs, errs
}

// ValidateQuote rejects negative or NaN quotes, crossed quotes and, when
// maxSpreadPct is positive, spreads wider than that percentage of the mid.
func ValidateQuote(symbol string, bid, ask, maxSpreadPct float64) error {
	if math.IsNaN(bid) || math.IsNaN(ask) || bid < 0 || ask < 0 {
		return fmt.Errorf("%s: %w: negative or missing price (bid %v, ask %v)", symbol, ErrInvalidQuote, bid, ask)
	}
	if bid > ask {
		return fmt.Errorf("%s: %w: bid %v above ask %v", symbol, ErrInvalidQuote, bid, ask)
	}
	if maxSpreadPct > 0 {
		mid := (bid + ask) / 2
		if mid > 0 && (ask-bid)/mid*100 > maxSpreadPct {
			return fmt.Errorf("%s: %w: spread %.2f%% above %.2f%%", symbol, ErrInvalidQuote, (ask-bid)/mid*100, maxSpreadPct)
		}
	}
	return nil
}

// ValidateOption checks the option's quotes and strike.
func ValidateOption(o models.Option, maxSpreadPct float64) error {
	if math.IsNaN(o.K) || o.K <= 0 {
		return fmt.Errorf("%s: %w: strike %v", o.Symbol, ErrInvalidQuote, o.K)
	}
	return ValidateQuote(o.Symbol, o.BidPrice, o.AskPrice, maxSpreadPct)
}
