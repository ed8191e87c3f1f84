package collections_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/antinvestor/momo-api/service/collections"
	"github.com/antinvestor/momo-api/service/coreapi"
	"github.com/antinvestor/momo-api/service/coreapi/coreapitest"
	"github.com/antinvestor/momo-api/service/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInvoices(t *testing.T, provider *coreapitest.Provider) *collections.Invoices {
	t.Helper()
	cfg := provider.Config()
	tokens := coreapi.NewTokenManager(cfg, coreapi.WithHTTPClient(provider.Client()))
	return collections.NewInvoices(cfg, tokens, coreapi.WithHTTPClient(provider.Client()))
}

func TestCreateInvoice(t *testing.T) {
	tests := []struct {
		name        string
		amount      any
		payer       string
		payee       string
		expectedErr error
	}{
		{
			name:   "Success",
			amount: "150",
			payer:  "260771234567",
			payee:  "260961234567",
		},
		{
			name:        "Error - payer phone",
			amount:      "150",
			payer:       "771234567",
			payee:       "260961234567",
			expectedErr: coreapi.ErrValidation,
		},
		{
			name:        "Error - payee phone",
			amount:      "150",
			payer:       "260771234567",
			payee:       "",
			expectedErr: coreapi.ErrValidation,
		},
		{
			name:        "Error - amount",
			amount:      "one fifty",
			payer:       "260771234567",
			payee:       "260961234567",
			expectedErr: coreapi.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := coreapitest.New(t)
			provider.Handle(http.MethodPost, "/collection/v2_0/invoice", coreapitest.Respond(http.StatusAccepted, ""))
			invoices := newInvoices(t, provider)

			invoiceID, err := invoices.Create(context.Background(), tt.amount, tt.payer, tt.payee, "")
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Empty(t, provider.Calls())
				return
			}
			require.NoError(t, err)

			call := provider.LastCall(t, http.MethodPost, "/collection/v2_0/invoice")
			assert.Equal(t, invoiceID, call.Header.Get(coreapi.HeaderReferenceID))

			var body models.Invoice
			call.JSON(t, &body)
			assert.Equal(t, "150.00", body.Amount)
			assert.Equal(t, "EUR", body.Currency)
			assert.Equal(t, "360", body.ValidityDuration)
			assert.Equal(t, models.MSISDN(tt.payer), body.IntendedPayer)
			assert.Equal(t, models.MSISDN(tt.payee), body.Payee)
			assert.Equal(t, "Generated Invoice", body.Description)
		})
	}
}

func TestInvoiceStatus(t *testing.T) {
	invoiceID := uuid.NewString()
	provider := coreapitest.New(t)
	provider.Handle(http.MethodGet, "/collection/v2_0/invoice/{id}", coreapitest.Respond(http.StatusOK,
		`{"referenceId":"`+invoiceID+`","amount":"150.00","currency":"EUR","status":"PENDING","paymentReference":"PAY-1","expiryDateTime":"2024-03-01T10:00:00Z"}`))
	invoices := newInvoices(t, provider)

	st, err := invoices.Status(context.Background(), invoiceID)
	require.NoError(t, err)
	assert.Equal(t, invoiceID, st.ReferenceID)
	assert.Equal(t, "PENDING", st.Status)
	assert.Equal(t, "PAY-1", st.PaymentReference)
	assert.NotEmpty(t, st.Raw)

	_, err = invoices.Status(context.Background(), "INV-1")
	assert.ErrorIs(t, err, coreapi.ErrValidation)
}

func TestDeleteInvoice(t *testing.T) {
	tests := []struct {
		name           string
		responseStatus int
		responseBody   string
		expected       bool
		expectedErr    error
	}{
		{
			name:           "deleted",
			responseStatus: http.StatusOK,
			expected:       true,
		},
		{
			name:           "accepted",
			responseStatus: http.StatusAccepted,
		},
		{
			name:           "unknown invoice",
			responseStatus: http.StatusNotFound,
			responseBody:   `{"code":"RESOURCE_NOT_FOUND","message":"Requested resource was not found."}`,
			expectedErr:    coreapi.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoiceID := uuid.NewString()
			provider := coreapitest.New(t)
			provider.Handle(http.MethodDelete, "/collection/v2_0/invoice/{id}", coreapitest.Respond(tt.responseStatus, tt.responseBody))
			invoices := newInvoices(t, provider)

			deleted, err := invoices.Delete(context.Background(), invoiceID)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.False(t, deleted)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, deleted)

			call := provider.LastCall(t, http.MethodDelete, "/collection/v2_0/invoice/"+invoiceID)
			reference := call.Header.Get(coreapi.HeaderReferenceID)
			assert.NotEmpty(t, reference)
			assert.NotEqual(t, invoiceID, reference)

			var body models.DeleteInvoice
			call.JSON(t, &body)
			assert.NotEmpty(t, body.ExternalID)
		})
	}
}
