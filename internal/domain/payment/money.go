package payment

import "github.com/shopspring/decimal"

// ToMinorUnits converts an amount with at most 2 decimal places into cents.
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).IntPart()
}

// FitsMinorUnits reports whether d expressed in cents fits an int64.
// ToMinorUnits wraps around for amounts outside that range.
func FitsMinorUnits(d decimal.Decimal) bool {
	return d.Shift(2).BigInt().IsInt64()
}

// FromMinorUnits converts cents into an amount with exactly 2 decimal places.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// HasAtMostTwoDecimals reports whether d is representable in whole cents.
func HasAtMostTwoDecimals(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}
