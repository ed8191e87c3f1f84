package utility

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"google.golang.org/genproto/googleapis/type/money"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name        string
		amount      any
		expected    string
		expectedErr error
	}{
		{name: "int", amount: 10, expected: "10.00"},
		{name: "float", amount: 10.5, expected: "10.50"},
		{name: "string", amount: "10.50", expected: "10.50"},
		{name: "padded string", amount: " 7 ", expected: "7.00"},
		{name: "rounds to two places", amount: "3.456", expected: "3.46"},
		{name: "zero", amount: 0, expected: "0.00"},
		{name: "uint64", amount: uint64(25), expected: "25.00"},
		{name: "decimal", amount: decimal.RequireFromString("99.9"), expected: "99.90"},
		{name: "money", amount: &money.Money{CurrencyCode: "EUR", Units: 12, Nanos: 500000000}, expected: "12.50"},
		{name: "not numeric", amount: "abc", expectedErr: ErrAmountNotNumeric},
		{name: "empty string", amount: "", expectedErr: ErrAmountNotNumeric},
		{name: "nan", amount: math.NaN(), expectedErr: ErrAmountNotNumeric},
		{name: "unsupported type", amount: []int{1}, expectedErr: ErrAmountNotNumeric},
		{name: "nil money", amount: (*money.Money)(nil), expectedErr: ErrAmountNotNumeric},
		{name: "negative", amount: -1, expectedErr: ErrAmountNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatAmount(tt.amount)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestToMoneyRoundTrip(t *testing.T) {
	amount := decimal.RequireFromString("1520.75")

	m := ToMoney("EUR", amount)

	assert.Equal(t, "EUR", m.GetCurrencyCode())
	assert.Equal(t, int64(1520), m.GetUnits())
	assert.Equal(t, int32(750000000), m.GetNanos())
	assert.True(t, amount.Equal(FromMoney(m)))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate(" short ", 20))
	assert.Equal(t, "abcdefghijklmnopqrst", Truncate("abcdefghijklmnopqrstuvwxyz", 20))
	assert.Equal(t, "ééé", Truncate("éééé", 3))
}

func TestValidateMSISDN(t *testing.T) {
	local := MSISDNPattern("260")
	strict := MobilePrefixPattern("260", []string{"76", "96"})

	assert.NoError(t, ValidateMSISDN("260771234567", local))
	assert.Error(t, ValidateMSISDN("0771234567", local))
	assert.Error(t, ValidateMSISDN("26077123456", local))
	assert.Error(t, ValidateMSISDN("", local))

	assert.NoError(t, ValidateMSISDN("260961234567", strict))
	assert.NoError(t, ValidateMSISDN("260761234567", strict))
	assert.Error(t, ValidateMSISDN("260771234567", strict))

	assert.Equal(t, local.String(), MobilePrefixPattern("260", nil).String())
}

func TestValidateReference(t *testing.T) {
	assert.NoError(t, ValidateReference(uuid.NewString()))
	assert.Error(t, ValidateReference(""))
	assert.Error(t, ValidateReference("not-a-uuid"))
	// version 1 uuid
	assert.Error(t, ValidateReference("c232ab00-9414-11ec-b3c8-9f6bdeced846"))
}
