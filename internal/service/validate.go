package service

import (
	"encoding/json"
	"errors"
	"strings"

	"camera_market/internal/apperror"
	"camera_market/internal/money"

	"github.com/shopspring/decimal"
)

// priceCents requires a strictly positive amount and converts it to minor units.
func priceCents(field string, amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, apperror.InvalidInput(field, field+" must be greater than 0")
	}
	cents, err := money.PriceToCents(amount)
	if errors.Is(err, money.ErrOutOfRange) {
		return 0, apperror.InvalidInput(field, field+" is too large")
	}
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, apperror.InvalidInput(field, field+" must be greater than 0")
	}
	return cents, nil
}

// currencyCode upper-cases a 3-letter code; an empty code falls back to def when def is set.
func currencyCode(field, code, def string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" && def != "" {
		return def, nil
	}
	if len(code) != 3 {
		return "", apperror.InvalidInput(field, field+" must be a 3-letter currency code")
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", apperror.InvalidInput(field, field+" must be a 3-letter currency code")
		}
	}
	return code, nil
}

func jsonMarshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
