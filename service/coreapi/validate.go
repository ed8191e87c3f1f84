package coreapi

import (
	"regexp"

	"github.com/antinvestor/momo-api/service/utility"
)

func CheckPhone(op, phone string, pattern *regexp.Regexp) error {
	if err := utility.ValidateMSISDN(phone, pattern); err != nil {
		return ValidationError(op, err)
	}
	return nil
}

func CheckReference(op, reference string) error {
	if err := utility.ValidateReference(reference); err != nil {
		return ValidationError(op, err)
	}
	return nil
}

// CheckAmount returns the provider encoding of amount.
func CheckAmount(op string, amount any) (string, error) {
	formatted, err := utility.FormatAmount(amount)
	if err != nil {
		return "", ValidationError(op, err)
	}
	return formatted, nil
}

func CheckCurrency(op, currency string) error {
	if err := utility.ValidateCurrency(currency); err != nil {
		return ValidationError(op, err)
	}
	return nil
}

func CheckName(op, name string) error {
	if err := utility.ValidateName(name); err != nil {
		return ValidationError(op, err)
	}
	return nil
}
