// Package currency holds the rounding policy shared by conversions and
// balance arithmetic. All conversions round half-to-even (banker's rounding)
// at the target currency's minor unit so that repeated conversions stay
// reproducible across services.
package currency

import "github.com/shopspring/decimal"

// RoundToMinorUnit rounds value to the given number of minor-unit digits
// using round-half-to-even.
func RoundToMinorUnit(value decimal.Decimal, decimals int32) decimal.Decimal {
	return value.RoundBank(decimals)
}

// ConvertWithRate converts value with a positive rate and rounds the result
// at the target precision.
func ConvertWithRate(value, rate decimal.Decimal, decimals int32) decimal.Decimal {
	return RoundToMinorUnit(value.Mul(rate), decimals)
}
