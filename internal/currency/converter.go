package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Base is the reporting currency of the ledger.
const Base = "CAD"

// cadPerUnit maps ISO codes to the number of CAD per one unit.
// Approximate early-2025 rates for the corridors users come from.
var cadPerUnit = map[string]decimal.Decimal{
	"CAD": decimal.NewFromInt(1),
	"USD": decimal.RequireFromString("1.4400"), // US Dollar
	"GBP": decimal.RequireFromString("1.7900"), // Pound Sterling
	"AUD": decimal.RequireFromString("0.8950"), // Australian Dollar
	"NZD": decimal.RequireFromString("0.8100"), // New Zealand Dollar
}

// Supported reports whether code is a recognised ISO code. Codes are
// matched exactly; "cad" or "$CAD" are not CAD.
func Supported(code string) bool {
	_, ok := cadPerUnit[code]
	return ok
}

// ToCAD converts amount in code into CAD, rounded to cents.
func ToCAD(amount decimal.Decimal, code string) (decimal.Decimal, error) {
	rate, ok := cadPerUnit[code]
	if !ok {
		return decimal.Zero, fmt.Errorf("unsupported currency: %q", code)
	}
	return amount.Mul(rate).Round(2), nil
}
