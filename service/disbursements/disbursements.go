// Package disbursements sends money to account holders: transfers, deposits and refunds.
package disbursements

import (
	"context"
	"regexp"
	"strings"

	"github.com/antinvestor/momo-api/config"
	"github.com/antinvestor/momo-api/service/coreapi"
	"github.com/antinvestor/momo-api/service/models"
	"github.com/antinvestor/momo-api/service/utility"
	"github.com/google/uuid"
)

const (
	transferPath       = "/disbursement/v1_0/transfer"
	depositPath        = "/disbursement/v1_0/deposit"
	refundPath         = "/disbursement/v1_0/refund"
	balancePath        = "/disbursement/v1_0/account/balance"
	messageLimit       = 20
	recipientNameLimit = 15

	defaultRefundReason = "Transaction refund"
)

type Service struct {
	api   *coreapi.API
	cfg   config.MomoConfig
	payee *regexp.Regexp
}

// New binds a disbursement service to tokens. Payees must match the configured mobile
// network prefixes.
func New(cfg config.MomoConfig, tokens coreapi.TokenProvider, opts ...coreapi.Option) *Service {
	return &Service{
		api:   coreapi.NewAPI(cfg, tokens, coreapi.ProductDisbursement, opts...),
		cfg:   cfg,
		payee: utility.MobilePrefixPattern(cfg.CountryCode, cfg.DisbursementPrefixes),
	}
}

// Transfer sends amount to phone. The recipient name travels in the payer message so the
// provider can match it against the account holder; a mismatch is a validation failure.
func (s *Service) Transfer(ctx context.Context, phone string, amount any, recipientName, currency string) (string, error) {
	const op = "transfer"

	body, err := s.payeeBody(op, phone, amount, recipientName, currency)
	if err != nil {
		return "", err
	}
	body.PayerMessage = payerMessage("Transfer to ", recipientName)
	body.PayeeNote = "Funds transfer"

	reference, err := s.api.Submit(ctx, op, transferPath, body)
	if err != nil {
		return "", s.rejection(err)
	}
	return reference, nil
}

// Deposit credits phone without debiting a payer wallet.
func (s *Service) Deposit(ctx context.Context, phone string, amount any, recipientName, currency string) (string, error) {
	const op = "deposit"

	body, err := s.payeeBody(op, phone, amount, recipientName, currency)
	if err != nil {
		return "", err
	}
	body.PayerMessage = payerMessage("Deposit to ", recipientName)
	body.PayeeNote = "Funds deposit"

	reference, err := s.api.Submit(ctx, op, depositPath, body)
	if err != nil {
		return "", s.rejection(err)
	}
	return reference, nil
}

// DepositFunds deposits in the configured currency.
func (s *Service) DepositFunds(ctx context.Context, phone string, amount any, recipientName string) (string, error) {
	return s.Deposit(ctx, phone, amount, recipientName, s.cfg.Currency)
}

func (s *Service) CashIn(ctx context.Context, phone string, amount any, recipientName, currency string) (string, error) {
	return s.Deposit(ctx, phone, amount, recipientName, currency)
}

// Refund returns amount of an earlier collection. Only the format of originalReference is
// checked, the provider decides whether it exists.
func (s *Service) Refund(ctx context.Context, originalReference string, amount any, reason string) (string, error) {
	const op = "refund"

	if err := coreapi.CheckReference(op, originalReference); err != nil {
		return "", err
	}
	value, err := coreapi.CheckAmount(op, amount)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reason) == "" {
		reason = defaultRefundReason
	}

	reference, err := s.api.Submit(ctx, op, refundPath, models.Refund{
		Amount:              value,
		Currency:            s.cfg.Currency,
		ExternalID:          uuid.NewString(),
		PayerMessage:        utility.Truncate(reason, messageLimit),
		PayeeNote:           "Refund processed",
		ReferenceIDToRefund: originalReference,
	})
	if err != nil {
		return "", coreapi.RemapProvider(s.rejection(err), coreapi.ErrValidation,
			"original transaction reference is invalid", "invalid reference", "invalid_reference")
	}
	return reference, nil
}

func (s *Service) TransferStatus(ctx context.Context, reference string) (*models.TransactionStatus, error) {
	return s.api.Status(ctx, "transfer status", transferPath, reference)
}

func (s *Service) DepositStatus(ctx context.Context, reference string) (*models.TransactionStatus, error) {
	return s.api.Status(ctx, "deposit status", depositPath, reference)
}

// CashInStatus is DepositStatus.
func (s *Service) CashInStatus(ctx context.Context, reference string) (*models.TransactionStatus, error) {
	return s.DepositStatus(ctx, reference)
}

func (s *Service) RefundStatus(ctx context.Context, reference string) (*models.TransactionStatus, error) {
	return s.api.Status(ctx, "refund status", refundPath, reference)
}

// WaitForTransfer polls a transfer until it succeeds or fails.
func (s *Service) WaitForTransfer(ctx context.Context, reference string) (*models.TransactionStatus, error) {
	return s.api.Wait(ctx, "wait for transfer", transferPath, reference)
}

func (s *Service) Balance(ctx context.Context) (*models.Balance, error) {
	var balance models.Balance
	if err := s.api.Fetch(ctx, "disbursement balance", balancePath, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

func (s *Service) payeeBody(op, phone string, amount any, recipientName, currency string) (models.Transfer, error) {
	if err := coreapi.CheckPhone(op, phone, s.payee); err != nil {
		return models.Transfer{}, err
	}
	value, err := coreapi.CheckAmount(op, amount)
	if err != nil {
		return models.Transfer{}, err
	}
	if err = coreapi.CheckName(op, recipientName); err != nil {
		return models.Transfer{}, err
	}
	if currency == "" {
		currency = s.cfg.Currency
	}
	if err = coreapi.CheckCurrency(op, currency); err != nil {
		return models.Transfer{}, err
	}

	return models.Transfer{
		Amount:     value,
		Currency:   currency,
		ExternalID: uuid.NewString(),
		Payee:      models.MSISDN(phone),
	}, nil
}

// rejection maps the provider's name matching and sandbox currency rejections.
func (s *Service) rejection(err error) error {
	err = coreapi.RemapProvider(err, coreapi.ErrValidation, "recipient name validation failed",
		"name mismatch", "name_mismatch")
	if s.cfg.IsSandbox() {
		err = coreapi.RemapCurrency(err)
	}
	return err
}

func payerMessage(prefix, recipientName string) string {
	return prefix + utility.Truncate(recipientName, recipientNameLimit)
}
