package domain

// ExchangeRate converts one unit of Currency into EUR or USD. The table is
// always refreshed as a whole.
type ExchangeRate struct {
	Currency string
	EURRate  float64
	USDRate  float64
}

// RateTable indexes exchange rates by currency code.
type RateTable map[string]ExchangeRate
