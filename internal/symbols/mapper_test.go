package symbols

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AAPL.US", "AAPL"},
		{" acme ", "ACME"},
		{"700.HK", "700"},
		{"BRK.B", "BRK.B"},
		{"Foo Bar", "FOOBAR"},
		{".US", ".US"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q)=%q want %q", tt.in, got, tt.want)
		}
	}
}

func TestSet(t *testing.T) {
	s := Set([]string{"acme.us", "ACME", " ", "globex"})
	if len(s) != 2 {
		t.Fatalf("expected 2 symbols, got %v", s)
	}
	if _, ok := s["GLOBEX"]; !ok {
		t.Fatalf("GLOBEX missing: %v", s)
	}
}
