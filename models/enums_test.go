package models

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseOptionType(t *testing.T) {
	tests := []struct {
		in      string
		want    OptionType
		wantErr bool
	}{
		{"call", Call, false},
		{"C", Call, false},
		{" Put ", Put, false},
		{"p", Put, false},
		{"straddle", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseOptionType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOptionType(%q) err = %v", tt.in, err)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseOptionType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParsePosition(t *testing.T) {
	for in, want := range map[string]Position{"long": Long, "BUY": Long, "short": Short, "s": Short} {
		got, err := ParsePosition(in)
		if err != nil || got != want {
			t.Errorf("ParsePosition(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParsePosition("flat"); err == nil {
		t.Errorf("expected error for unknown position")
	}
}

func TestOptionDecodesFromYAML(t *testing.T) {
	src := `
symbol: ACMEC100
underlying: ACME
option_type: call
k: 100
bid_price: 5
ask_price: 5.5
commission:
  long: 0.01
  short: 0.02
`
	var o Option
	if err := yaml.Unmarshal([]byte(src), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.OptionType != Call || o.K != 100 || o.Commission.Short != 0.02 || o.Underlying != "ACME" {
		t.Fatalf("unexpected option: %+v", o)
	}

	if err := yaml.Unmarshal([]byte("option_type: butterfly"), &o); err == nil {
		t.Fatalf("expected error for unknown option type")
	}
}

func TestOptionTypeZeroValueIsUnset(t *testing.T) {
	var o Option
	if err := yaml.Unmarshal([]byte("symbol: ACMEP100\nk: 100\n"), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.OptionType == Call || o.OptionType == Put {
		t.Fatalf("missing option_type decoded as %v", o.OptionType)
	}
	if _, err := o.OptionType.MarshalText(); err == nil {
		t.Fatalf("expected error marshalling an unset option type")
	}
}
