package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Currency is the display unit shared by every amount of a machine. It carries no conversion logic.
type Currency struct {
	Symbol string
}

func NewCurrency(symbol string) Currency {
	return Currency{Symbol: strings.TrimSpace(symbol)}
}

// Format renders an amount with the currency symbol and two decimal places, e.g. "£1.50".
func (c Currency) Format(amount decimal.Decimal) string {
	return c.Symbol + amount.StringFixed(2)
}

// Parse reads an amount typed by a customer ("£1.50", "1.5", " 2 "), stripping the symbol if present.
func (c Currency) Parse(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if c.Symbol != "" {
		value = strings.TrimSpace(strings.ReplaceAll(value, c.Symbol, ""))
	}
	if value == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, amount.String())
	}
	return amount, nil
}
