package coreapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/antinvestor/momo-api/service/coreapi"
	"github.com/antinvestor/momo-api/service/coreapi/coreapitest"
	"github.com/antinvestor/momo-api/service/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const payPath = "/collection/v1_0/requesttopay"

func newCollectionAPI(t *testing.T, provider *coreapitest.Provider, opts ...coreapi.Option) *coreapi.API {
	t.Helper()
	cfg := provider.Config()
	tokens := coreapi.NewTokenManager(cfg, coreapi.WithHTTPClient(provider.Client()))
	opts = append([]coreapi.Option{coreapi.WithHTTPClient(provider.Client())}, opts...)
	return coreapi.NewAPI(cfg, tokens, coreapi.ProductCollection, opts...)
}

func TestSubmitReturnsReference(t *testing.T) {
	provider := coreapitest.New(t)
	provider.Handle(http.MethodPost, payPath, coreapitest.Respond(http.StatusAccepted, ""))
	api := newCollectionAPI(t, provider)

	externalID := uuid.NewString()
	reference, err := api.Submit(context.Background(), "request to pay", payPath, models.RequestToPay{
		Amount:     "25.00",
		Currency:   "EUR",
		ExternalID: externalID,
		Payer:      models.MSISDN("260771234567"),
	})
	require.NoError(t, err)

	_, err = uuid.Parse(reference)
	require.NoError(t, err)
	assert.NotEqual(t, externalID, reference)

	call := provider.LastCall(t, http.MethodPost, payPath)
	assert.Equal(t, reference, call.Header.Get(coreapi.HeaderReferenceID))
	assert.Equal(t, coreapitest.CollectionSubscriptionKey, call.Header.Get(coreapi.HeaderSubscriptionKey))
	assert.Equal(t, "Bearer token-1", call.Header.Get("Authorization"))

	var body models.RequestToPay
	call.JSON(t, &body)
	assert.Equal(t, externalID, body.ExternalID)
}

func TestSubmitAcceptsAnySuccess(t *testing.T) {
	provider := coreapitest.New(t)
	provider.Handle(http.MethodPost, payPath, coreapitest.Respond(http.StatusCreated, ""))
	api := newCollectionAPI(t, provider)

	reference, err := api.Submit(context.Background(), "request to pay", payPath, map[string]string{})
	require.NoError(t, err)
	assert.NotEmpty(t, reference)
}

func TestStatus(t *testing.T) {
	reference := uuid.NewString()

	tests := []struct {
		name           string
		reference      string
		responseStatus int
		responseBody   string
		expectedErr    error
		expectedStatus string
		expectCall     bool
	}{
		{
			name:           "successful payment",
			reference:      reference,
			responseStatus: http.StatusOK,
			responseBody:   `{"amount":"25","currency":"EUR","financialTransactionId":"1234","externalId":"e","payer":{"partyIdType":"MSISDN","partyId":"260771234567"},"status":"SUCCESSFUL"}`,
			expectedStatus: models.StatusSuccessful,
			expectCall:     true,
		},
		{
			name:           "failed payment keeps the reason verbatim",
			reference:      reference,
			responseStatus: http.StatusOK,
			responseBody:   `{"amount":"25","currency":"EUR","status":"FAILED","reason":{"code":"PAYER_NOT_FOUND","message":"Payer not found"}}`,
			expectedStatus: models.StatusFailed,
			expectCall:     true,
		},
		{
			name:        "reference is not a uuid",
			reference:   "not-a-uuid",
			expectedErr: coreapi.ErrValidation,
		},
		{
			name:           "unknown reference",
			reference:      reference,
			responseStatus: http.StatusNotFound,
			responseBody:   `{"code":"RESOURCE_NOT_FOUND","message":"Requested resource was not found."}`,
			expectedErr:    coreapi.ErrNotFound,
			expectCall:     true,
		},
		{
			name:           "provider failure",
			reference:      reference,
			responseStatus: http.StatusInternalServerError,
			responseBody:   `{"code":"INTERNAL_PROCESSING_ERROR","message":"An internal error occurred"}`,
			expectedErr:    coreapi.ErrConnection,
			expectCall:     true,
		},
		{
			name:           "business rejection is reported as a connection failure",
			reference:      reference,
			responseStatus: http.StatusBadRequest,
			responseBody:   `{"code":"INVALID_CALLBACK_URL_HOST","message":"Callback URL with different host"}`,
			expectedErr:    coreapi.ErrConnection,
			expectCall:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := coreapitest.New(t)
			provider.Handle(http.MethodGet, payPath+"/{reference}", coreapitest.Respond(tt.responseStatus, tt.responseBody))
			api := newCollectionAPI(t, provider)

			st, err := api.Status(context.Background(), "payment status", payPath, tt.reference)

			calls := provider.CallsTo(http.MethodGet, payPath)
			if tt.expectCall {
				require.Len(t, calls, 1)
				assert.Equal(t, payPath+"/"+tt.reference, calls[0].Path)
			} else {
				assert.Empty(t, provider.Calls())
			}

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, st)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, st.Status)
			assert.JSONEq(t, tt.responseBody, string(st.Raw))
		})
	}
}

func TestStatusFailedReason(t *testing.T) {
	provider := coreapitest.New(t)
	provider.Handle(http.MethodGet, payPath+"/{reference}", coreapitest.Respond(http.StatusOK,
		`{"status":"FAILED","reason":{"code":"APPROVAL_REJECTED","message":"rejected by payer"}}`))
	api := newCollectionAPI(t, provider)

	st, err := api.Status(context.Background(), "payment status", payPath, uuid.NewString())
	require.NoError(t, err)
	assert.True(t, st.IsTerminal())
	assert.False(t, st.IsSuccessful())
	assert.JSONEq(t, `{"code":"APPROVAL_REJECTED","message":"rejected by payer"}`, string(st.Reason))
}

func TestStatusSettleDelayIsCancellable(t *testing.T) {
	provider := coreapitest.New(t)
	never := func(time.Duration) <-chan time.Time { return nil }
	api := newCollectionAPI(t, provider, coreapi.WithTimer(never))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := api.Status(ctx, "payment status", payPath, uuid.NewString())
	assert.ErrorIs(t, err, coreapi.ErrConnection)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, provider.CallsTo(http.MethodGet, payPath))
}

func TestWaitReachesTerminalStatus(t *testing.T) {
	provider := coreapitest.New(t)
	provider.Handle(http.MethodGet, payPath+"/{reference}", coreapitest.Sequence(
		coreapitest.Respond(http.StatusNotFound, `{"code":"RESOURCE_NOT_FOUND","message":"Requested resource was not found."}`),
		coreapitest.Respond(http.StatusOK, `{"status":"PENDING"}`),
		coreapitest.Respond(http.StatusOK, `{"status":"SUCCESSFUL","financialTransactionId":"42"}`),
	))
	api := newCollectionAPI(t, provider)

	st, err := api.Wait(context.Background(), "wait for payment", payPath, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccessful, st.Status)
	assert.Equal(t, "42", st.FinancialTransactionID)
	assert.Len(t, provider.CallsTo(http.MethodGet, payPath), 3)
}

func TestWaitStopsOnDeadline(t *testing.T) {
	provider := coreapitest.New(t)
	provider.Handle(http.MethodGet, payPath+"/{reference}", coreapitest.Respond(http.StatusOK, `{"status":"PENDING"}`))
	api := newCollectionAPI(t, provider)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	st, err := api.Wait(ctx, "wait for payment", payPath, uuid.NewString())
	require.Error(t, err)
	assert.ErrorIs(t, err, coreapi.ErrConnection)
	require.NotNil(t, st)
	assert.Equal(t, models.StatusPending, st.Status)
}

func TestWaitStopsOnAuthFailure(t *testing.T) {
	provider := coreapitest.New(t)
	provider.Handle(http.MethodGet, payPath+"/{reference}", coreapitest.Respond(http.StatusUnauthorized,
		`{"statusCode":401,"message":"Access denied due to invalid subscription key."}`))
	api := newCollectionAPI(t, provider)

	_, err := api.Wait(context.Background(), "wait for payment", payPath, uuid.NewString())
	assert.ErrorIs(t, err, coreapi.ErrAuth)
	assert.Len(t, provider.CallsTo(http.MethodGet, payPath), 1)
}

func TestAPIRequiresProvisionedTokens(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokens := coreapi.NewMockTokenProvider(ctrl)
	tokens.EXPECT().IsProvisioned().Return(false).AnyTimes()

	provider := coreapitest.New(t)
	api := coreapi.NewAPI(provider.Config(), tokens, coreapi.ProductCollection, coreapi.WithHTTPClient(provider.Client()))

	_, err := api.Submit(context.Background(), "request to pay", payPath, map[string]string{})
	assert.ErrorIs(t, err, coreapi.ErrAuth)

	_, err = api.Status(context.Background(), "payment status", payPath, uuid.NewString())
	assert.ErrorIs(t, err, coreapi.ErrAuth)

	assert.Empty(t, provider.Calls())
}

func TestAPIUsesProductToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokens := coreapi.NewMockTokenProvider(ctrl)
	tokens.EXPECT().IsProvisioned().Return(true)
	tokens.EXPECT().Token(gomock.Any(), coreapi.ProductDisbursement).
		Return(coreapi.Token{Value: "disbursement-token", ExpiresAt: time.Now().Add(time.Hour)}, nil)

	provider := coreapitest.New(t)
	provider.Handle(http.MethodGet, "/disbursement/v1_0/account/balance",
		coreapitest.Respond(http.StatusOK, `{"availableBalance":"1000","currency":"EUR"}`))
	api := coreapi.NewAPI(provider.Config(), tokens, coreapi.ProductDisbursement, coreapi.WithHTTPClient(provider.Client()))

	var balance models.Balance
	require.NoError(t, api.Fetch(context.Background(), "get balance", "/disbursement/v1_0/account/balance", &balance))
	assert.Equal(t, "1000", balance.AvailableBalance)

	call := provider.LastCall(t, http.MethodGet, "/disbursement/v1_0/account/balance")
	assert.Equal(t, "Bearer disbursement-token", call.Header.Get("Authorization"))
	assert.Equal(t, coreapitest.DisbursementSubscriptionKey, call.Header.Get(coreapi.HeaderSubscriptionKey))
}
