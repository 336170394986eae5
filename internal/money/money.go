// Package money converts between decimal display prices and integer minor units.
package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MaxPrice is the largest amount whose minor units fit in an int64.
var MaxPrice = decimal.New(math.MaxInt64, -2)

// ErrOutOfRange is returned for amounts that cannot be stored as int64 minor units.
var ErrOutOfRange = errors.New("amount out of range")

// PriceToCents rounds amount half-up to two places and returns it in minor units.
func PriceToCents(amount decimal.Decimal) (int64, error) {
	rounded := amount.Round(2)
	if rounded.Abs().GreaterThan(MaxPrice) {
		return 0, ErrOutOfRange
	}
	return rounded.Mul(hundred).IntPart(), nil
}

// CentsToPrice returns the display amount for minor units.
func CentsToPrice(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// CentsToFloat is CentsToPrice as a float64 for JSON payloads.
func CentsToFloat(cents int64) float64 {
	f, _ := CentsToPrice(cents).Float64()
	return f
}
