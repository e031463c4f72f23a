package domain

import "github.com/shopspring/decimal"

// Amounts travel as JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// MoneyScale is the number of fractional digits the store keeps (NUMERIC(15,2))
const MoneyScale = 2

// IsMoney reports whether d fits the store precision without rounding.
// Trailing zeros are fine, 100.000 is accepted and 99.995 is not.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}
