package symbols

import "strings"

// venueSuffixes are quote-vendor market suffixes, e.g. "AAPL.US" or "700.HK".
var venueSuffixes = []string{".US", ".HK", ".SH", ".SZ", ".SG", ".L"}

// Normalize maps an instrument symbol from any quote source to the form used
// for pairing options with their underlying: trimmed, upper case, without
// inner whitespace and without a venue suffix.
func Normalize(sym string) string {
	sym = strings.ToUpper(strings.Join(strings.Fields(sym), ""))
	for _, s := range venueSuffixes {
		if strings.HasSuffix(sym, s) && len(sym) > len(s) {
			return strings.TrimSuffix(sym, s)
		}
	}
	return sym
}

// Set builds a lookup of normalized symbols.
func Set(syms []string) map[string]struct{} {
	out := make(map[string]struct{}, len(syms))
	for _, s := range syms {
		if n := Normalize(s); n != "" {
			out[n] = struct{}{}
		}
	}
	return out
}
