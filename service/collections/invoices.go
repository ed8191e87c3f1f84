package collections

import (
	"context"
	"net/http"
	"regexp"
	"strconv"

	"github.com/antinvestor/momo-api/config"
	"github.com/antinvestor/momo-api/service/coreapi"
	"github.com/antinvestor/momo-api/service/models"
	"github.com/antinvestor/momo-api/service/utility"
	"github.com/google/uuid"
)

const (
	invoicePath = "/collection/v2_0/invoice"

	defaultInvoiceDescription = "Generated Invoice"
)

// Invoices issues collection invoices. The invoice id is the reference id the invoice was
// created under.
type Invoices struct {
	api   *coreapi.API
	cfg   config.MomoConfig
	phone *regexp.Regexp
}

func NewInvoices(cfg config.MomoConfig, tokens coreapi.TokenProvider, opts ...coreapi.Option) *Invoices {
	return &Invoices{
		api:   coreapi.NewAPI(cfg, tokens, coreapi.ProductCollection, opts...),
		cfg:   cfg,
		phone: utility.MSISDNPattern(cfg.CountryCode),
	}
}

// Create bills payerPhone for amount on behalf of payeePhone.
func (i *Invoices) Create(ctx context.Context, amount any, payerPhone, payeePhone, description string) (string, error) {
	const op = "create invoice"

	if err := coreapi.CheckPhone(op, payerPhone, i.phone); err != nil {
		return "", err
	}
	if err := coreapi.CheckPhone(op, payeePhone, i.phone); err != nil {
		return "", err
	}
	value, err := coreapi.CheckAmount(op, amount)
	if err != nil {
		return "", err
	}

	return i.api.Submit(ctx, op, invoicePath, models.Invoice{
		ExternalID:       uuid.NewString(),
		Amount:           value,
		Currency:         i.cfg.Currency,
		ValidityDuration: strconv.Itoa(i.cfg.InvoiceValidity),
		IntendedPayer:    models.MSISDN(payerPhone),
		Payee:            models.MSISDN(payeePhone),
		Description:      orDefault(description, defaultInvoiceDescription),
	})
}

func (i *Invoices) Status(ctx context.Context, invoiceID string) (*models.InvoiceStatus, error) {
	const op = "invoice status"

	if err := coreapi.CheckReference(op, invoiceID); err != nil {
		return nil, err
	}
	var st models.InvoiceStatus
	if err := i.api.Fetch(ctx, op, invoicePath+"/"+invoiceID, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Delete cancels an unpaid invoice. It reports whether the provider answered 200.
func (i *Invoices) Delete(ctx context.Context, invoiceID string) (bool, error) {
	const op = "delete invoice"

	if err := coreapi.CheckReference(op, invoiceID); err != nil {
		return false, err
	}
	resp, err := i.api.Send(ctx, coreapi.Request{
		Op:          op,
		Method:      http.MethodDelete,
		Path:        invoicePath + "/" + invoiceID,
		ReferenceID: uuid.NewString(),
		CallbackURL: i.cfg.CallbackURL,
		JSON:        models.DeleteInvoice{ExternalID: uuid.NewString()},
	})
	if err != nil {
		return false, err
	}
	return resp.StatusCode == http.StatusOK, nil
}
