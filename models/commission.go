package models

// Commission is the fee schedule charged on a transaction, as a unit fraction
// of the traded price (0.001 = 0.1%). Long applies when buying, Short when selling.
type Commission struct {
	Long  float64 `json:"long" yaml:"long"`
	Short float64 `json:"short" yaml:"short"`
}
