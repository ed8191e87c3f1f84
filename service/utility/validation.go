package utility

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"
	"github.com/jellydator/validation/is"
)

// SubscriberDigits is the length of the national number after the country code.
const SubscriberDigits = 9

// MSISDNPattern matches a local-format number: country code followed by nine digits.
func MSISDNPattern(countryCode string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^%s\d{%d}$`, regexp.QuoteMeta(countryCode), SubscriberDigits))
}

// MobilePrefixPattern is stricter than MSISDNPattern: the nine subscriber digits must start
// with one of the given network prefixes. Prefixes may differ in length; empty prefixes and
// prefixes longer than the subscriber number are skipped.
func MobilePrefixPattern(countryCode string, prefixes []string) *regexp.Regexp {
	alternatives := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" || len(p) >= SubscriberDigits {
			continue
		}
		alternatives = append(alternatives,
			fmt.Sprintf(`%s\d{%d}`, regexp.QuoteMeta(p), SubscriberDigits-len(p)))
	}
	if len(alternatives) == 0 {
		return MSISDNPattern(countryCode)
	}
	return regexp.MustCompile(fmt.Sprintf(`^%s(?:%s)$`,
		regexp.QuoteMeta(countryCode), strings.Join(alternatives, "|")))
}

// ValidateMSISDN checks a phone number against the given pattern.
func ValidateMSISDN(phone string, pattern *regexp.Regexp) error {
	return validation.Validate(phone,
		validation.Required.Error("phone number is required"),
		validation.Match(pattern).Error(fmt.Sprintf("phone number must match %s", pattern.String())),
	)
}

// ValidateReference checks that a transaction reference is a v4 UUID.
func ValidateReference(reference string) error {
	return validation.Validate(reference,
		validation.Required.Error("reference is required"),
		is.UUIDv4.Error("reference must be a v4 uuid"),
	)
}

// ValidateCurrency checks an ISO 4217 currency code.
func ValidateCurrency(currency string) error {
	return validation.Validate(currency,
		validation.Required.Error("currency is required"),
		is.CurrencyCode.Error("currency must be an ISO 4217 code"),
	)
}

// ValidateName checks a party name is present.
func ValidateName(name string) error {
	return validation.Validate(strings.TrimSpace(name),
		validation.Required.Error("name is required"),
	)
}
