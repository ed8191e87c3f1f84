package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/jellydator/validation"
	"github.com/jellydator/validation/is"
	"github.com/pitabwire/frame"
)

const (
	EnvironmentSandbox = "sandbox"
	SandboxCurrency    = "EUR"

	ProductCollection   = "collection"
	ProductDisbursement = "disbursement"
)

// MomoConfig is the immutable configuration shared by the token manager and every service.
type MomoConfig struct {
	BaseURL           string `envDefault:"https://sandbox.momodeveloper.mtn.com" env:"MOMO_BASE_URL"`
	TargetEnvironment string `envDefault:"sandbox" env:"MOMO_TARGET_ENVIRONMENT"`

	CollectionSubscriptionKey   string `env:"MOMO_COLLECTION_SUBSCRIPTION_KEY"`
	DisbursementSubscriptionKey string `env:"MOMO_DISBURSEMENT_SUBSCRIPTION_KEY"`

	// CallbackHost is registered with the provider when an api user is created.
	CallbackHost string `envDefault:"localhost" env:"MOMO_CALLBACK_HOST"`
	CallbackURL  string `env:"MOMO_CALLBACK_URL"`

	// Pre-provisioned credentials, production keys are issued through the provider portal.
	APIUser string `env:"MOMO_API_USER"`
	APIKey  string `env:"MOMO_API_KEY"`

	Currency             string   `envDefault:"EUR" env:"MOMO_CURRENCY"`
	CountryCode          string   `envDefault:"260" env:"MOMO_COUNTRY_CODE"`
	// KYCProduct is the product whose key, token and oauth endpoints serve identity lookups.
	KYCProduct           string   `envDefault:"disbursement" env:"MOMO_KYC_PRODUCT"`
	DisbursementPrefixes []string `envDefault:"76,96" env:"MOMO_DISBURSEMENT_PREFIXES" envSeparator:","`

	StatusSettleDelay time.Duration `envDefault:"5s" env:"MOMO_STATUS_SETTLE_DELAY"`
	StatusPollTimeout time.Duration `envDefault:"2m" env:"MOMO_STATUS_POLL_TIMEOUT"`
	RequestTimeout    time.Duration `envDefault:"30s" env:"MOMO_REQUEST_TIMEOUT"`
	// InvoiceValidity is the invoice validityDuration in seconds.
	InvoiceValidity int `envDefault:"360" env:"MOMO_INVOICE_VALIDITY"`

	LogLevel string `envDefault:"info" env:"LOG_LEVEL"`
}

// Load reads the configuration from the environment and validates it.
func Load() (MomoConfig, error) {
	cfg, err := frame.ConfigFromEnv[MomoConfig]()
	if err != nil {
		return cfg, fmt.Errorf("could not load momo config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c MomoConfig) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.TargetEnvironment, validation.Required),
		validation.Field(&c.Currency, validation.Required, validation.Length(3, 3), is.UpperCase),
		validation.Field(&c.CountryCode, validation.Required, is.Digit, validation.Length(1, 3)),
		validation.Field(&c.KYCProduct, validation.Required, validation.In(ProductCollection, ProductDisbursement)),
		validation.Field(&c.DisbursementPrefixes, validation.Each(is.Digit, validation.Length(1, 8))),
		validation.Field(&c.StatusSettleDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.StatusPollTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RequestTimeout, validation.Required),
		validation.Field(&c.InvoiceValidity, validation.Required, validation.Min(1)),
		validation.Field(&c.CallbackURL, is.URL),
	)
	if err != nil {
		return fmt.Errorf("invalid momo config: %w", err)
	}
	return nil
}

func (c MomoConfig) IsSandbox() bool {
	return strings.EqualFold(c.TargetEnvironment, EnvironmentSandbox)
}

// SubscriptionKey returns the subscription key of the named product.
func (c MomoConfig) SubscriptionKey(product string) string {
	switch product {
	case ProductDisbursement:
		return c.DisbursementSubscriptionKey
	default:
		return c.CollectionSubscriptionKey
	}
}

// BaseEndpoint returns the base url without a trailing slash.
func (c MomoConfig) BaseEndpoint() string {
	return strings.TrimRight(c.BaseURL, "/")
}
