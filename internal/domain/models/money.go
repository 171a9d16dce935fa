package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// currencyExponents lists ISO 4217 minor-unit exponents that differ from
// the default of 2
var currencyExponents = map[string]int32{
	"bhd": 3,
	"jod": 3,
	"kwd": 3,
	"omr": 3,
	"tnd": 3,
	"jpy": 0,
	"krw": 0,
	"vnd": 0,
}

// CurrencyExponent returns the number of minor-unit digits for a currency
func CurrencyExponent(currency string) int32 {
	if exp, ok := currencyExponents[strings.ToLower(currency)]; ok {
		return exp
	}
	return 2
}

// DisplayAmount converts an integer minor-unit amount into a major-unit
// decimal for reporting (e.g. 5000 "inr" -> 50.00). Stored amounts stay
// integers; this is presentation only.
func DisplayAmount(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -CurrencyExponent(currency))
}
