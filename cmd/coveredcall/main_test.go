package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

var quoteArgs = []string{
	"-k", "100", "-call-bid", "5", "-call-ask", "5.5",
	"-ua-bid", "102", "-ua-ask", "102.5", "-long", "0.01", "-short", "0.01",
	"-scenarios", "0", "-precision", "2",
}

func TestRunPerUnit(t *testing.T) {
	var out bytes.Buffer
	if err := run(append([]string{"-contract-size", "100"}, quoteArgs...), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "4.07") || !strings.Contains(s, "-95.93") {
		t.Errorf("unexpected per unit output:\n%s", s)
	}
	if strings.Contains(s, "per contract") {
		t.Errorf("per contract view without -per-contract:\n%s", s)
	}
}

func TestRunPerContract(t *testing.T) {
	var out bytes.Buffer
	args := append([]string{"-contract-size", "100", "-per-contract"}, quoteArgs...)
	if err := run(args, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "(per contract)") || !strings.Contains(s, "407.00") || !strings.Contains(s, "-9593.00") {
		t.Errorf("values not scaled by contract size:\n%s", s)
	}
	if !strings.Contains(s, "95.93") {
		t.Errorf("break even should stay a price:\n%s", s)
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := map[string][]string{
		"missing strike":         {"-call-bid", "5"},
		"per contract size zero": append([]string{"-per-contract", "-contract-size", "0"}, quoteArgs...),
	}
	for name, args := range tests {
		var out bytes.Buffer
		if err := run(args, &out); !errors.Is(err, errUsage) {
			t.Errorf("%s: expected usage error, got %v", name, err)
		}
	}
}
