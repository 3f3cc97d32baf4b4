package accounting

import "github.com/shopspring/decimal"

// SettlementPrecision is the fractional precision of all settlement-currency
// postings.
const SettlementPrecision = 2

var half = decimal.New(5, -1)

// RoundHalfUp rounds d to the given number of decimal places using the
// round-half-up rule (ties go toward positive infinity). decimal.Round uses
// half-away-from-zero, which differs for negative ties, so settlement math
// goes through this helper to stay reproducible.
func RoundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}

// RoundSettlement rounds a settlement-currency amount to posting precision.
func RoundSettlement(d decimal.Decimal) decimal.Decimal {
	return RoundHalfUp(d, SettlementPrecision)
}
