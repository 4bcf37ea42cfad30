package models

import (
	"fmt"
	"strings"
)

// OptionType selects the intrinsic value sign convention of an option. The
// zero value is not a valid type, so a quote without one is detectable.
type OptionType int

const (
	Call OptionType = iota + 1
	Put
)

func (t OptionType) String() string {
	switch t {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return fmt.Sprintf("OptionType(%d)", int(t))
	}
}

// ParseOptionType accepts call/c and put/p in any case.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	default:
		return 0, fmt.Errorf("unknown option type %q", s)
	}
}

func (t OptionType) MarshalText() ([]byte, error) {
	if t != Call && t != Put {
		return nil, fmt.Errorf("invalid option type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *OptionType) UnmarshalText(text []byte) error {
	v, err := ParseOptionType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Position is the side the evaluator holds in an option. It decides which
// quote and which commission rate enter a profit calculation.
type Position int

const (
	Long Position = iota
	Short
)

func (p Position) String() string {
	switch p {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// ParsePosition accepts long/l/buy and short/s/sell in any case.
func ParsePosition(s string) (Position, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "l", "buy":
		return Long, nil
	case "short", "s", "sell":
		return Short, nil
	default:
		return 0, fmt.Errorf("unknown position %q", s)
	}
}

func (p Position) MarshalText() ([]byte, error) {
	if p != Long && p != Short {
		return nil, fmt.Errorf("invalid position %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Position) UnmarshalText(text []byte) error {
	v, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
