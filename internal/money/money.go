package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for negative or otherwise non-representable
// monetary input.
var ErrInvalidAmount = errors.New("invalid monetary amount")

// ErrUnsupportedCurrency is returned when a display currency is not known.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Currency is a display currency code. All persisted amounts are in the
// canonical currency; other currencies exist only for display conversion.
type Currency string

const (
	// UZS is the canonical currency. It has no minor unit, so display
	// amounts carry zero fractional digits.
	UZS Currency = "UZS"
	// USD is a display-only currency with the usual two fractional digits.
	USD Currency = "USD"
)

// exponent is the number of fractional digits a currency displays with.
var exponents = map[Currency]int32{
	UZS: 0,
	USD: 2,
}

// Supported reports whether c is a known currency.
func Supported(c Currency) bool {
	_, ok := exponents[c]
	return ok
}

// Canonical reports whether c is the canonical storage currency.
func Canonical(c Currency) bool {
	return c == UZS
}

// Convert converts a canonical amount into the display currency using the
// given rate, rounding to the display currency's precision. It is pure: the
// input amount is never mutated and no state is consulted. The canonical
// currency passes through unchanged apart from rounding (the rate is treated
// as 1). A negative amount or a non-positive rate is an ErrInvalidAmount.
func Convert(amountBase decimal.Decimal, display Currency, rate decimal.Decimal) (decimal.Decimal, error) {
	exp, ok := exponents[display]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, display)
	}
	if amountBase.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount %s is negative", ErrInvalidAmount, amountBase)
	}
	if Canonical(display) {
		return amountBase.Round(exp), nil
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: rate %s must be positive", ErrInvalidAmount, rate)
	}
	return amountBase.Mul(rate).Round(exp), nil
}

// Format renders a converted amount with the currency's natural precision,
// e.g. "125000 UZS" or "10.42 USD".
func Format(amount decimal.Decimal, c Currency) string {
	exp, ok := exponents[c]
	if !ok {
		exp = 2
	}
	return amount.StringFixed(exp) + " " + string(c)
}
