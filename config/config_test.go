package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		expectError bool
		check       func(t *testing.T, cfg MomoConfig)
	}{
		{
			name: "Happy path - defaults are applied",
			env: map[string]string{
				"MOMO_COLLECTION_SUBSCRIPTION_KEY": "collection-key",
			},
			check: func(t *testing.T, cfg MomoConfig) {
				assert.Equal(t, "https://sandbox.momodeveloper.mtn.com", cfg.BaseURL)
				assert.Equal(t, "sandbox", cfg.TargetEnvironment)
				assert.Equal(t, "collection-key", cfg.CollectionSubscriptionKey)
				assert.Equal(t, "EUR", cfg.Currency)
				assert.Equal(t, "260", cfg.CountryCode)
				assert.Equal(t, []string{"76", "96"}, cfg.DisbursementPrefixes)
				assert.Equal(t, 5*time.Second, cfg.StatusSettleDelay)
				assert.Equal(t, 360, cfg.InvoiceValidity)
				assert.Equal(t, ProductDisbursement, cfg.KYCProduct)
				assert.True(t, cfg.IsSandbox())
			},
		},
		{
			name: "Happy path - overrides are read",
			env: map[string]string{
				"MOMO_BASE_URL":                      "https://proxy.momoapi.mtn.com/",
				"MOMO_TARGET_ENVIRONMENT":            "mtnzambia",
				"MOMO_DISBURSEMENT_SUBSCRIPTION_KEY": "disbursement-key",
				"MOMO_CURRENCY":                      "ZMW",
				"MOMO_DISBURSEMENT_PREFIXES":         "96,76,95",
				"MOMO_STATUS_SETTLE_DELAY":           "250ms",
				"MOMO_API_USER":                      "4bd2b05e-8f0b-4d43-8f5a-6d2f6ec6a1a4",
				"MOMO_API_KEY":                       "secret",
			},
			check: func(t *testing.T, cfg MomoConfig) {
				assert.Equal(t, "https://proxy.momoapi.mtn.com", cfg.BaseEndpoint())
				assert.False(t, cfg.IsSandbox())
				assert.Equal(t, "disbursement-key", cfg.SubscriptionKey("disbursement"))
				assert.Equal(t, "ZMW", cfg.Currency)
				assert.Equal(t, []string{"96", "76", "95"}, cfg.DisbursementPrefixes)
				assert.Equal(t, 250*time.Millisecond, cfg.StatusSettleDelay)
				assert.Equal(t, "secret", cfg.APIKey)
			},
		},
		{
			name:        "Error path - base url is not a url",
			env:         map[string]string{"MOMO_BASE_URL": "not a url"},
			expectError: true,
		},
		{
			name:        "Error path - currency is not an iso code",
			env:         map[string]string{"MOMO_CURRENCY": "euro"},
			expectError: true,
		},
		{
			name:        "Error path - prefix longer than a subscriber number",
			env:         map[string]string{"MOMO_DISBURSEMENT_PREFIXES": "76,123456789"},
			expectError: true,
		},
		{
			name: "Happy path - single digit prefix",
			env:  map[string]string{"MOMO_DISBURSEMENT_PREFIXES": "7"},
			check: func(t *testing.T, cfg MomoConfig) {
				assert.Equal(t, []string{"7"}, cfg.DisbursementPrefixes)
			},
		},
		{
			name:        "Error path - unknown kyc product",
			env:         map[string]string{"MOMO_KYC_PRODUCT": "remittance"},
			expectError: true,
		},
		{
			name:        "Error path - duration cannot be parsed",
			env:         map[string]string{"MOMO_REQUEST_TIMEOUT": "soon"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.expectError {
				assert.Error(t, err, "Expected an error but got none")
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestSubscriptionKey(t *testing.T) {
	cfg := MomoConfig{CollectionSubscriptionKey: "c", DisbursementSubscriptionKey: "d"}

	assert.Equal(t, "c", cfg.SubscriptionKey("collection"))
	assert.Equal(t, "d", cfg.SubscriptionKey("disbursement"))
}
