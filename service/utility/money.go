package utility

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/genproto/googleapis/type/money"
)

const (
	NanoSize = 1000000000

	// AmountPlaces is the number of fraction digits the provider expects.
	AmountPlaces = 2
)

var (
	ErrAmountNotNumeric = errors.New("amount is not numeric")
	ErrAmountNegative   = errors.New("amount must not be negative")
)

// ParseAmount coerces the supported amount representations into a decimal.
// Strings, integers, floats, decimals and money values are accepted.
func ParseAmount(amount any) (decimal.Decimal, error) {
	var d decimal.Decimal

	switch v := amount.(type) {
	case decimal.Decimal:
		d = v
	case *decimal.Decimal:
		if v == nil {
			return d, ErrAmountNotNumeric
		}
		d = *v
	case *money.Money:
		if v == nil {
			return d, ErrAmountNotNumeric
		}
		d = FromMoney(v)
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return d, fmt.Errorf("%w: %q", ErrAmountNotNumeric, v)
		}
		d = parsed
	case int:
		d = decimal.NewFromInt(int64(v))
	case int32:
		d = decimal.NewFromInt32(v)
	case int64:
		d = decimal.NewFromInt(v)
	case uint:
		d = decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(v)), 0)
	case uint32:
		d = decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(v)), 0)
	case uint64:
		d = decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return d, ErrAmountNotNumeric
		}
		d = decimal.NewFromFloat32(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return d, ErrAmountNotNumeric
		}
		d = decimal.NewFromFloat(v)
	default:
		return d, fmt.Errorf("%w: unsupported type %T", ErrAmountNotNumeric, amount)
	}

	if d.IsNegative() {
		return d, ErrAmountNegative
	}
	return d, nil
}

// FormatAmount renders an amount as a fixed point string with two fraction digits.
func FormatAmount(amount any) (string, error) {
	d, err := ParseAmount(amount)
	if err != nil {
		return "", err
	}
	return d.StringFixed(AmountPlaces), nil
}

func ToMoney(currency string, amount decimal.Decimal) *money.Money {
	// Split the decimal value into units and nanos
	units := amount.IntPart()
	nanos := amount.Sub(decimal.NewFromInt(units)).Mul(decimal.NewFromInt(NanoSize)).IntPart()

	return &money.Money{CurrencyCode: currency, Units: units, Nanos: int32(nanos)}
}

func FromMoney(m *money.Money) decimal.Decimal {
	units := decimal.NewFromInt(m.GetUnits())
	nanos := decimal.NewFromInt(int64(m.GetNanos())).Div(decimal.NewFromInt(NanoSize))
	return units.Add(nanos)
}

// Truncate shortens s to at most limit runes.
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
